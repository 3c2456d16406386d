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
package ownable_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/contract/ownable"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownedKind = "test.owned"

var ownedABI = utilfuncs.Must(abi.JSON(strings.NewReader(`[
{"type":"constructor","inputs":[{"name":"owner","type":"address"}],"stateMutability":"nonpayable"},
{"type":"function","name":"guarded","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"handOverThenFail","inputs":[{"name":"newOwner","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
` + ownable.ABIFragment + `
]`)))

type owned struct {
	ownable.Ownable
}

func (o *owned) Kind() string { return ownedKind }

func (o *owned) Encode() ([]byte, error) {
	return o.AppendMsg(make([]byte, 0, ownable.Msgsize)), nil
}

func (o *owned) Run(ctx *ovm.Context, method *abi.Method, args []interface{}) ([]interface{}, error) {
	if out, handled, err := o.Ownable.Run(ctx, method, args); handled {
		return out, err
	}
	switch method.Name {
	case "guarded":
		return nil, o.OnlyOwner(ctx)
	case "handOverThenFail":
		if err := o.TransferOwnership(ctx, args[0].(common.Address)); err != nil {
			return nil, err
		}
		return nil, types.NewExecError(types.KindInvalidArgument, "fail after hand over")
	}
	return nil, types.ErrUnknownMethod
}

func init() {
	ovm.Register(&ovm.ContractType{
		Kind: ownedKind,
		ABI:  ownedABI,
		Construct: func(ctx *ovm.Context, args []interface{}) (ovm.Contract, error) {
			o := &owned{}
			if err := o.Init(ctx, args[0].(common.Address)); err != nil {
				return nil, err
			}
			return o, nil
		},
		Decode: func(data []byte) (ovm.Contract, error) {
			o := &owned{}
			if _, err := o.ReadMsg(data); err != nil {
				return nil, err
			}
			return o, nil
		},
	})
}

var (
	alice = common.HexToAddress("0x3000000000000000000000000000000000000001")
	bob   = common.HexToAddress("0x3000000000000000000000000000000000000002")
)

func setup(t *testing.T) (ogdb.Database, *ovm.OVM, common.Address) {
	db := ogdb.NewMemDatabase()
	sd, err := state.NewStateDB(db)
	require.NoError(t, err)
	vm := ovm.NewOVM(sd)
	receipt, err := vm.Deploy(alice, ownedKind, nil, alice)
	require.NoError(t, err)
	require.NoError(t, receipt.Err())
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, ownedABI.Events["OwnershipTransferred"].ID, receipt.Logs[0].Topics[0])
	return db, vm, receipt.ContractAddress
}

func owner(t *testing.T, vm *ovm.OVM, addr common.Address) common.Address {
	out, err := vm.Query(bob, addr, "owner")
	require.NoError(t, err)
	return out[0].(common.Address)
}

func invoke(t *testing.T, vm *ovm.OVM, from, to common.Address, method string, args ...interface{}) error {
	receipt, err := vm.Invoke(from, to, nil, method, args...)
	require.NoError(t, err)
	return receipt.Err()
}

func TestZeroInitialOwner(t *testing.T) {
	sd, err := state.NewStateDB(ogdb.NewMemDatabase())
	require.NoError(t, err)
	receipt, err := ovm.NewOVM(sd).Deploy(alice, ownedKind, nil, common.Address{})
	require.NoError(t, err)
	assert.True(t, errors.Is(receipt.Err(), types.ErrZeroAddress))
}

func TestOnlyOwner(t *testing.T) {
	_, vm, addr := setup(t)
	assert.Equal(t, alice, owner(t, vm, addr))
	assert.NoError(t, invoke(t, vm, alice, addr, "guarded"))
	assert.True(t, errors.Is(invoke(t, vm, bob, addr, "guarded"), types.ErrNotOwner))
}

func TestTransferOwnership(t *testing.T) {
	db, vm, addr := setup(t)

	assert.True(t, errors.Is(invoke(t, vm, bob, addr, "transferOwnership", bob), types.ErrNotOwner))
	assert.True(t, errors.Is(invoke(t, vm, alice, addr, "transferOwnership", common.Address{}), types.ErrZeroAddress))

	receipt, err := vm.Invoke(alice, addr, nil, "transferOwnership", bob)
	require.NoError(t, err)
	require.NoError(t, receipt.Err())
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, common.BytesToHash(alice.Bytes()), receipt.Logs[0].Topics[1])
	assert.Equal(t, common.BytesToHash(bob.Bytes()), receipt.Logs[0].Topics[2])

	assert.Equal(t, bob, owner(t, vm, addr))
	assert.True(t, errors.Is(invoke(t, vm, alice, addr, "guarded"), types.ErrNotOwner))
	assert.NoError(t, invoke(t, vm, bob, addr, "guarded"))

	sd, err := state.NewStateDB(db)
	require.NoError(t, err)
	assert.Equal(t, bob, owner(t, ovm.NewOVM(sd), addr))
}

func TestOwnershipChangeRevertsWithCall(t *testing.T) {
	_, vm, addr := setup(t)
	err := invoke(t, vm, alice, addr, "handOverThenFail", bob)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	assert.Equal(t, alice, owner(t, vm, addr))
}
