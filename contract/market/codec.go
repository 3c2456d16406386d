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
package market

import (
	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/contract/ownable"
	"github.com/tinylib/msgp/msgp"
)

const marketFields = 3

func (m *Market) Encode() ([]byte, error) {
	return m.MarshalMsg(nil)
}

// MarshalMsg implements msgp.Marshaler
func (m *Market) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, m.Msgsize())
	o = msgp.AppendArrayHeader(o, marketFields)
	o = m.Ownable.AppendMsg(o)
	o = math.AppendUint256(o, m.tokenPrice)
	o = math.AppendAddress(o, m.tokenContract)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (m *Market) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	if sz != marketFields {
		err = msgp.ArrayError{Wanted: marketFields, Got: sz}
		return
	}
	if bts, err = m.Ownable.ReadMsg(bts); err != nil {
		err = msgp.WrapError(err, "Owner")
		return
	}
	if m.tokenPrice, bts, err = math.ReadUint256Bytes(bts); err != nil {
		err = msgp.WrapError(err, "TokenPrice")
		return
	}
	if m.tokenContract, bts, err = math.ReadAddressBytes(bts); err != nil {
		err = msgp.WrapError(err, "TokenContract")
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (m *Market) Msgsize() (s int) {
	s = 1 + ownable.Msgsize + math.Uint256Size + math.AddressSize
	return
}
