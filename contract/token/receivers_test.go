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
package token

import (
	"errors"
	"testing"

	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressSetAddRemove(t *testing.T) {
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")
	c := common.HexToAddress("0x0c")
	s := NewAddressSet()

	assert.True(t, s.Add(a))
	assert.False(t, s.Add(a))
	assert.True(t, s.Add(b))
	assert.True(t, s.Add(c))
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, 0, s.Remove(a))
	assert.Equal(t, -1, s.Remove(a))
	assert.Equal(t, []common.Address{c, b}, s.Items())
	first, err := s.At(0)
	require.NoError(t, err)
	assert.Equal(t, c, first)

	_, err = s.At(2)
	assert.True(t, errors.Is(err, types.ErrIndexOutOfBounds))
}

func TestAddressSetRestore(t *testing.T) {
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")
	c := common.HexToAddress("0x0c")

	for _, victim := range []common.Address{a, b, c} {
		s := NewAddressSet()
		s.Add(a)
		s.Add(b)
		s.Add(c)
		slot := s.Remove(victim)
		s.restore(victim, slot)
		assert.Equal(t, []common.Address{a, b, c}, s.Items())
		for i, addr := range s.Items() {
			assert.Equal(t, i, s.index[addr])
		}
	}
}
