// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ogdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLDB(t *testing.T) *LevelDB {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "ldb"), 0, 0)
	require.NoError(t, err)
	return db
}

func testPutGet(t *testing.T, db Database) {
	v, err := db.Get([]byte("missing"))
	assert.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))
	v, err = db.Get([]byte("k1"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	has, err := db.Has([]byte("k1"))
	assert.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("k1")))
	has, err = db.Has([]byte("k1"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func testBatchAndIterate(t *testing.T, db Database) {
	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a2"), []byte("2")))
	require.NoError(t, batch.Put([]byte("a1"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b1"), []byte("x")))
	assert.Equal(t, 3, batch.ValueSize())

	has, _ := db.Has([]byte("a1"))
	assert.False(t, has, "batch must not be visible before Write")
	require.NoError(t, batch.Write())

	it := db.NewIteratorWithPrefix([]byte("a"))
	defer it.Release()
	var keys, values []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		values = append(values, string(it.Value()))
	}
	assert.NoError(t, it.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
	assert.Equal(t, []string{"1", "2"}, values)
}

func TestMemDatabase(t *testing.T) {
	db := NewMemDatabase()
	testPutGet(t, db)
	testBatchAndIterate(t, db)
}

func TestLevelDB(t *testing.T) {
	db := newTestLDB(t)
	defer db.Close()
	testPutGet(t, db)
	testBatchAndIterate(t, db)
}

func TestLevelDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldb")
	db, err := NewLevelDB(path, 16, 16)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("persist"), []byte("yes")))
	db.Close()

	db, err = NewLevelDB(path, 16, 16)
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get([]byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), v)
}

func TestMemDatabaseCopiesValues(t *testing.T) {
	db := NewMemDatabase()
	value := []byte("abc")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'z'
	v, _ := db.Get([]byte("k"))
	assert.Equal(t, []byte("abc"), v)
}
