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

// Package ownable is the single owner capability shared by the contracts.
package ownable

import (
	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// ABIFragment lists the ABI entries served by Ownable. Contracts splice it
// into their own ABI.
const ABIFragment = `{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
{"type":"function","name":"transferOwnership","inputs":[{"name":"newOwner","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"event","name":"OwnershipTransferred","anonymous":false,"inputs":[{"name":"previousOwner","type":"address","indexed":true},{"name":"newOwner","type":"address","indexed":true}]}`

// Ownable holds the privileged account of a contract.
type Ownable struct {
	owner common.Address
}

// Init sets the first owner. Only constructors call it.
func (o *Ownable) Init(ctx *ovm.Context, owner common.Address) error {
	if owner == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "owner is the zero address")
	}
	o.owner = owner
	return ctx.Emit("OwnershipTransferred", common.Address{}, owner)
}

func (o *Ownable) Owner() common.Address {
	return o.owner
}

// OnlyOwner fails with NotOwner unless the caller is the owner.
func (o *Ownable) OnlyOwner(ctx *ovm.Context) error {
	if ctx.Caller() != o.owner {
		return types.NewExecError(types.KindNotOwner, "caller %s is not the owner", ctx.Caller().Hex())
	}
	return nil
}

// IsOwner reports whether addr is the owner.
func (o *Ownable) IsOwner(addr common.Address) bool {
	return addr == o.owner
}

func (o *Ownable) TransferOwnership(ctx *ovm.Context, newOwner common.Address) error {
	if err := o.OnlyOwner(ctx); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "new owner is the zero address")
	}
	prev := o.owner
	ctx.AppendJournal(ownerChange{o: o, self: ctx.Self(), prev: prev})
	o.owner = newOwner
	logrus.WithFields(logrus.Fields{
		"contract": ctx.Self().Hex(),
		"from":     prev.Hex(),
		"to":       newOwner.Hex(),
	}).Debug("ownership transferred")
	return ctx.Emit("OwnershipTransferred", prev, newOwner)
}

// Run serves the Ownable methods. handled is false for any other method.
func (o *Ownable) Run(ctx *ovm.Context, method *abi.Method, args []interface{}) (out []interface{}, handled bool, err error) {
	switch method.Name {
	case "owner":
		return []interface{}{o.owner}, true, nil
	case "transferOwnership":
		return nil, true, o.TransferOwnership(ctx, args[0].(common.Address))
	}
	return nil, false, nil
}

type ownerChange struct {
	o    *Ownable
	self common.Address
	prev common.Address
}

func (ch ownerChange) Revert(*state.StateDB) {
	ch.o.owner = ch.prev
}

func (ch ownerChange) Dirtied() *common.Address {
	return &ch.self
}

func (o *Ownable) AppendMsg(b []byte) []byte {
	return math.AppendAddress(b, o.owner)
}

func (o *Ownable) ReadMsg(b []byte) ([]byte, error) {
	var err error
	o.owner, b, err = math.ReadAddressBytes(b)
	return b, err
}

const Msgsize = math.AddressSize
