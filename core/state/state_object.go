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
package state

import (
	"github.com/annchain/badium/common/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tinylib/msgp/msgp"
)

// AccountData is the persisted part of a native account.
type AccountData struct {
	Balance *uint256.Int
	Nonce   uint64
}

func NewAccountData() AccountData {
	return AccountData{
		Balance: new(uint256.Int),
		Nonce:   0,
	}
}

// MarshalMsg implements msgp.Marshaler
func (z *AccountData) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 2)
	o = math.AppendUint256(o, z.Balance)
	o = msgp.AppendUint64(o, z.Nonce)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *AccountData) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	if zb0001 != 2 {
		err = msgp.ArrayError{Wanted: 2, Got: zb0001}
		return
	}
	z.Balance, bts, err = math.ReadUint256Bytes(bts)
	if err != nil {
		err = msgp.WrapError(err, "Balance")
		return
	}
	z.Nonce, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		err = msgp.WrapError(err, "Nonce")
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *AccountData) Msgsize() (s int) {
	s = 1 + math.Uint256Size + msgp.Uint64Size
	return
}

// StateObject is a native account: a currency balance and a call counter.
type StateObject struct {
	address common.Address
	data    AccountData
	db      *StateDB
}

func NewStateObject(addr common.Address, db *StateDB) *StateObject {
	return &StateObject{
		address: addr,
		data:    NewAccountData(),
		db:      db,
	}
}

func (s *StateObject) Address() common.Address {
	return s.address
}

func (s *StateObject) GetBalance() *uint256.Int {
	return s.data.Balance
}

func (s *StateObject) GetNonce() uint64 {
	return s.data.Nonce
}

func (s *StateObject) SetBalance(balance *uint256.Int) {
	s.db.journal.append(&balanceChange{
		account: &s.address,
		prev:    s.data.Balance,
	})
	s.data.Balance = balance
}

func (s *StateObject) SetNonce(nonce uint64) {
	s.db.journal.append(&nonceChange{
		account: &s.address,
		prev:    s.data.Nonce,
	})
	s.data.Nonce = nonce
}

func (s *StateObject) Encode() ([]byte, error) {
	return s.data.MarshalMsg(nil)
}

func (s *StateObject) Decode(b []byte) error {
	_, err := s.data.UnmarshalMsg(b)
	return err
}
