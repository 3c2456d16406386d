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
	"math/big"
	"testing"

	"github.com/annchain/badium/contract/token"
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) *core.TxProcessor {
	db := ogdb.NewMemDatabase()
	sd, err := state.NewStateDB(db)
	require.NoError(t, err)
	acc, err := core.NewAccessor(db, 16)
	require.NoError(t, err)
	_, err = core.SetupGenesis(sd, acc, core.DefaultGenesis())
	require.NoError(t, err)
	return core.NewTxProcessor(ovm.NewOVM(sd), acc)
}

func TestProcessorStoresAndNotifies(t *testing.T) {
	p := newTestProcessor(t)
	c := make(chan *types.Receipt, 4)
	p.RegisterOnNewReceipt(c, "test")

	to := common.HexToAddress("0x1200000000000000000000000000000000000012")
	receipt, err := p.Transfer(core.DevAccount, to, uint256.NewInt(7))
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	assert.Equal(t, receipt, <-c)

	stored, err := p.Accessor().ReadReceipt(receipt.TxHash)
	require.NoError(t, err)
	assert.Equal(t, receipt.TxHash, stored.TxHash)
	assert.Equal(t, uint256.NewInt(7), p.VM().StateDB().GetBalance(to))

	p.UnregisterOnNewReceipt("test")
	_, err = p.Transfer(core.DevAccount, to, uint256.NewInt(1))
	require.NoError(t, err)
	assert.Len(t, c, 0)
}

func TestProcessorDeployAndInvoke(t *testing.T) {
	p := newTestProcessor(t)
	receipt, err := p.Deploy(core.DevAccount, token.Kind, nil, "Badium", "BAD", uint8(18), big.NewInt(0), common.Address{})
	require.NoError(t, err)
	require.True(t, receipt.Succeeded(), receipt.ErrMsg)
	ledger := receipt.ContractAddress

	holder := common.HexToAddress("0x1300000000000000000000000000000000000013")
	receipt, err = p.Invoke(core.DevAccount, ledger, nil, "mint", holder, big.NewInt(100))
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())

	// the owner is not a registered receiver
	receipt, err = p.Invoke(holder, ledger, nil, "transfer", core.DevAccount, big.NewInt(10))
	require.NoError(t, err)
	assert.ErrorIs(t, receipt.Err(), types.ErrRecipientNotEligible)

	_, err = p.Invoke(core.DevAccount, ledger, nil, "noSuchMethod")
	assert.ErrorIs(t, err, types.ErrUnknownMethod)

	status := p.Status()
	assert.Equal(t, uint64(3), status.Processed)
	assert.Equal(t, uint64(1), status.Failed)
	assert.Equal(t, uint64(3), status.Receipts)
}
