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
	"bytes"
	"sort"

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/contract/ownable"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tinylib/msgp/msgp"
)

const badiumFields = 9

func (b *Badium) Encode() ([]byte, error) {
	return b.MarshalMsg(nil)
}

func sortAddresses(addrs []common.Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
}

// MarshalMsg implements msgp.Marshaler. Balances of past epochs are dropped and
// map entries are written in address order so equal states encode equally.
func (b *Badium) MarshalMsg(bts []byte) (o []byte, err error) {
	o = msgp.Require(bts, b.Msgsize())
	o = msgp.AppendArrayHeader(o, badiumFields)
	o = b.Ownable.AppendMsg(o)
	o = msgp.AppendString(o, b.name)
	o = msgp.AppendString(o, b.symbol)
	o = msgp.AppendUint8(o, b.decimals)
	o = math.AppendUint256(o, b.totalSupply)
	o = msgp.AppendUint64(o, b.epoch)

	holders := make([]common.Address, 0, len(b.balances))
	for account, entry := range b.balances {
		if entry.epoch == b.epoch {
			holders = append(holders, account)
		}
	}
	sortAddresses(holders)
	o = msgp.AppendArrayHeader(o, uint32(len(holders)))
	for _, account := range holders {
		o = math.AppendAddress(o, account)
		o = math.AppendUint256(o, b.balances[account].amount)
	}

	owners := make([]common.Address, 0, len(b.allowances))
	for owner := range b.allowances {
		owners = append(owners, owner)
	}
	sortAddresses(owners)
	o = msgp.AppendArrayHeader(o, uint32(len(owners)))
	for _, owner := range owners {
		spenders := make([]common.Address, 0, len(b.allowances[owner]))
		for spender := range b.allowances[owner] {
			spenders = append(spenders, spender)
		}
		sortAddresses(spenders)
		o = math.AppendAddress(o, owner)
		o = msgp.AppendArrayHeader(o, uint32(len(spenders)))
		for _, spender := range spenders {
			o = math.AppendAddress(o, spender)
			o = math.AppendUint256(o, b.allowances[owner][spender])
		}
	}

	o = msgp.AppendArrayHeader(o, uint32(b.receivers.Len()))
	for _, account := range b.receivers.items {
		o = math.AppendAddress(o, account)
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (b *Badium) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	if sz != badiumFields {
		err = msgp.ArrayError{Wanted: badiumFields, Got: sz}
		return
	}
	if bts, err = b.Ownable.ReadMsg(bts); err != nil {
		err = msgp.WrapError(err, "Owner")
		return
	}
	if b.name, bts, err = msgp.ReadStringBytes(bts); err != nil {
		err = msgp.WrapError(err, "Name")
		return
	}
	if b.symbol, bts, err = msgp.ReadStringBytes(bts); err != nil {
		err = msgp.WrapError(err, "Symbol")
		return
	}
	if b.decimals, bts, err = msgp.ReadUint8Bytes(bts); err != nil {
		err = msgp.WrapError(err, "Decimals")
		return
	}
	if b.totalSupply, bts, err = math.ReadUint256Bytes(bts); err != nil {
		err = msgp.WrapError(err, "TotalSupply")
		return
	}
	if b.epoch, bts, err = msgp.ReadUint64Bytes(bts); err != nil {
		err = msgp.WrapError(err, "Epoch")
		return
	}

	if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		err = msgp.WrapError(err, "Balances")
		return
	}
	b.balances = make(map[common.Address]balanceEntry, sz)
	for i := uint32(0); i < sz; i++ {
		var account common.Address
		var entry balanceEntry
		if account, bts, err = math.ReadAddressBytes(bts); err != nil {
			err = msgp.WrapError(err, "Balances", i)
			return
		}
		if entry.amount, bts, err = math.ReadUint256Bytes(bts); err != nil {
			err = msgp.WrapError(err, "Balances", i)
			return
		}
		entry.epoch = b.epoch
		b.balances[account] = entry
	}

	if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		err = msgp.WrapError(err, "Allowances")
		return
	}
	b.allowances = make(map[common.Address]map[common.Address]*uint256.Int, sz)
	for i := uint32(0); i < sz; i++ {
		var owner common.Address
		if owner, bts, err = math.ReadAddressBytes(bts); err != nil {
			err = msgp.WrapError(err, "Allowances", i)
			return
		}
		var n uint32
		if n, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
			err = msgp.WrapError(err, "Allowances", i)
			return
		}
		for j := uint32(0); j < n; j++ {
			var spender common.Address
			var amount *uint256.Int
			if spender, bts, err = math.ReadAddressBytes(bts); err != nil {
				err = msgp.WrapError(err, "Allowances", i, j)
				return
			}
			if amount, bts, err = math.ReadUint256Bytes(bts); err != nil {
				err = msgp.WrapError(err, "Allowances", i, j)
				return
			}
			b.putAllowance(owner, spender, amount)
		}
	}

	if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		err = msgp.WrapError(err, "Receivers")
		return
	}
	b.receivers = NewAddressSet()
	for i := uint32(0); i < sz; i++ {
		var account common.Address
		if account, bts, err = math.ReadAddressBytes(bts); err != nil {
			err = msgp.WrapError(err, "Receivers", i)
			return
		}
		b.receivers.Add(account)
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (b *Badium) Msgsize() (s int) {
	s = 1 + ownable.Msgsize + msgp.StringPrefixSize + len(b.name) + msgp.StringPrefixSize + len(b.symbol) +
		msgp.Uint8Size + math.Uint256Size + msgp.Uint64Size
	s += msgp.ArrayHeaderSize + len(b.balances)*(math.AddressSize+math.Uint256Size)
	s += msgp.ArrayHeaderSize
	for _, m := range b.allowances {
		s += math.AddressSize + msgp.ArrayHeaderSize + len(m)*(math.AddressSize+math.Uint256Size)
	}
	s += msgp.ArrayHeaderSize + b.receivers.Len()*math.AddressSize
	return
}
