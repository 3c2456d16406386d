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
package types

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Message is a call request handed to the execution environment. A nil To
// deploys a new contract of the given Kind with Data as its ABI encoded
// constructor arguments.
type Message struct {
	From  common.Address
	To    *common.Address
	Value *uint256.Int
	Data  []byte
	Kind  string
}

func (m *Message) IsDeployment() bool {
	return m.To == nil
}

// GetValue never returns nil.
func (m *Message) GetValue() *uint256.Int {
	if m.Value == nil {
		return new(uint256.Int)
	}
	return m.Value
}

// Hash identifies the message once the sender nonce is known.
func (m *Message) Hash(nonce uint64) common.Hash {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	var to []byte
	if m.To != nil {
		to = m.To.Bytes()
	}
	value := m.GetValue().Bytes32()
	return crypto.Keccak256Hash(
		m.From.Bytes(),
		to,
		value[:],
		nonceBytes[:],
		[]byte(m.Kind),
		m.Data,
	)
}
