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
package core_test

import (
	"os"
	"testing"

	"github.com/annchain/badium/core"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLDB(t *testing.T) (*ogdb.LevelDB, func()) {
	dirname, err := os.MkdirTemp(os.TempDir(), "badium_core_test_")
	require.NoError(t, err)
	db, err := ogdb.NewLevelDB(dirname, 0, 0)
	require.NoError(t, err)
	return db, func() {
		db.Close()
		os.RemoveAll(dirname)
	}
}

func testReceipt(i byte) *types.Receipt {
	r := &types.Receipt{
		TxHash: crypto.Keccak256Hash([]byte{i}),
		Nonce:  uint64(i),
		From:   common.BytesToAddress([]byte{0xaa, i}),
		To:     common.BytesToAddress([]byte{0xbb}),
		Value:  "1000000000000000000",
		Status: types.ReceiptStatusSuccess,
		Logs: []*types.Log{{
			Address: common.BytesToAddress([]byte{0xbb}),
			Topics:  []common.Hash{crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))},
			Data:    []byte{1, 2, 3},
			Index:   0,
		}},
	}
	r.Logs[0].TxHash = r.TxHash
	return r
}

func TestReadWriteReceipt(t *testing.T) {
	t.Parallel()

	db, remove := newTestLDB(t)
	defer remove()

	acc, err := core.NewAccessor(db, 2)
	require.NoError(t, err)

	missing, err := acc.ReadReceipt(common.Hash{1})
	require.NoError(t, err)
	assert.Nil(t, missing)

	failed := testReceipt(2)
	failed.Logs = []*types.Log{}
	failed.SetErr(types.NewExecError(types.KindInsufficientBalance, "not enough"))
	for _, r := range []*types.Receipt{testReceipt(1), failed, testReceipt(3)} {
		require.NoError(t, acc.WriteReceipt(r))
	}
	assert.Equal(t, uint64(3), acc.ReceiptCount())

	// a fresh accessor has a cold cache and reads from the database
	reopened, err := core.NewAccessor(db, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), reopened.ReceiptCount())

	got, err := reopened.ReadReceipt(testReceipt(1).TxHash)
	require.NoError(t, err)
	assert.Equal(t, testReceipt(1), got)

	got, err = reopened.ReadReceipt(failed.TxHash)
	require.NoError(t, err)
	assert.False(t, got.Succeeded())
	assert.ErrorIs(t, got.Err(), types.ErrInsufficientBalance)
	assert.Equal(t, "not enough", got.ErrMsg)
}

func TestLatestReceipts(t *testing.T) {
	acc, err := core.NewAccessor(ogdb.NewMemDatabase(), 0)
	require.NoError(t, err)
	for i := byte(0); i < 5; i++ {
		require.NoError(t, acc.WriteReceipt(testReceipt(i)))
	}

	latest, err := acc.LatestReceipts(3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, testReceipt(4).TxHash, latest[0].TxHash)
	assert.Equal(t, testReceipt(2).TxHash, latest[2].TxHash)

	all, err := acc.LatestReceipts(10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
