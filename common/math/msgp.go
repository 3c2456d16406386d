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
package math

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Uint256Size is the upper bound of an encoded uint256.
const Uint256Size = msgp.BytesPrefixSize + 32

// AddressSize is the size of an encoded address.
const AddressSize = msgp.BytesPrefixSize + common.AddressLength

// AppendUint256 appends x as a big endian msgpack bin without leading zeros.
func AppendUint256(b []byte, x *uint256.Int) []byte {
	if x == nil {
		return msgp.AppendBytes(b, nil)
	}
	return msgp.AppendBytes(b, x.Bytes())
}

func ReadUint256Bytes(b []byte) (*uint256.Int, []byte, error) {
	raw, o, err := msgp.ReadBytesZC(b)
	if err != nil {
		return nil, b, err
	}
	if len(raw) > 32 {
		return nil, b, errors.Errorf("uint256 encoding too long: %d bytes", len(raw))
	}
	return new(uint256.Int).SetBytes(raw), o, nil
}

func AppendAddress(b []byte, addr common.Address) []byte {
	return msgp.AppendBytes(b, addr.Bytes())
}

func ReadAddressBytes(b []byte) (common.Address, []byte, error) {
	var addr common.Address
	o, err := msgp.ReadExactBytes(b, addr[:])
	if err != nil {
		return addr, b, err
	}
	return addr, o, nil
}
