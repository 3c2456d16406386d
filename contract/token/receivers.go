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
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/common"
)

// AddressSet is an ordered set of addresses with O(1) membership, insertion
// and removal. Removal moves the last element into the freed slot.
type AddressSet struct {
	index map[common.Address]int
	items []common.Address
}

func NewAddressSet() *AddressSet {
	return &AddressSet{index: make(map[common.Address]int)}
}

func (s *AddressSet) Contains(addr common.Address) bool {
	_, ok := s.index[addr]
	return ok
}

func (s *AddressSet) Len() int {
	return len(s.items)
}

// Add appends addr. It returns false if addr was already present.
func (s *AddressSet) Add(addr common.Address) bool {
	if s.Contains(addr) {
		return false
	}
	s.index[addr] = len(s.items)
	s.items = append(s.items, addr)
	return true
}

// Remove deletes addr and returns the slot it occupied, or -1 if it was absent.
func (s *AddressSet) Remove(addr common.Address) int {
	i, ok := s.index[addr]
	if !ok {
		return -1
	}
	last := len(s.items) - 1
	if i != last {
		moved := s.items[last]
		s.items[i] = moved
		s.index[moved] = i
	}
	s.items = s.items[:last]
	delete(s.index, addr)
	return i
}

// restore undoes Remove(addr) that returned slot i.
func (s *AddressSet) restore(addr common.Address, i int) {
	if i == len(s.items) {
		s.index[addr] = i
		s.items = append(s.items, addr)
		return
	}
	moved := s.items[i]
	s.index[moved] = len(s.items)
	s.items = append(s.items, moved)
	s.items[i] = addr
	s.index[addr] = i
}

// At returns the element at slot i.
func (s *AddressSet) At(i uint64) (common.Address, error) {
	if i >= uint64(len(s.items)) {
		return common.Address{}, types.NewExecError(types.KindIndexOutOfBounds, "index %d, %d receivers", i, len(s.items))
	}
	return s.items[i], nil
}

// Items returns a copy of the elements in slot order.
func (s *AddressSet) Items() []common.Address {
	out := make([]common.Address, len(s.items))
	copy(out, s.items)
	return out
}
