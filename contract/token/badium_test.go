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
package token_test

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/annchain/badium/contract/token"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer = common.HexToAddress("0x1000000000000000000000000000000000000001")
	account1 = common.HexToAddress("0x1000000000000000000000000000000000000002")
	account2 = common.HexToAddress("0x1000000000000000000000000000000000000003")
	account3 = common.HexToAddress("0x1000000000000000000000000000000000000004")
)

type env struct {
	t     *testing.T
	db    ogdb.Database
	vm    *ovm.OVM
	token common.Address
}

func newEnv(t *testing.T) *env {
	db := ogdb.NewMemDatabase()
	sd, err := state.NewStateDB(db)
	require.NoError(t, err)
	return &env{t: t, db: db, vm: ovm.NewOVM(sd)}
}

// newSupplyEnv mirrors the five argument deployment: 1000 whole tokens with 18
// decimals minted to account1, which owns the ledger.
func newSupplyEnv(t *testing.T) *env {
	e := newEnv(t)
	receipt, err := token.DeployWithSupply(e.vm, deployer, "Badium", "BAD", 18, wei(1000, 18), account1)
	require.NoError(t, err)
	require.NoError(t, receipt.Err())
	e.token = receipt.ContractAddress
	return e
}

func newMinimalEnv(t *testing.T) *env {
	e := newEnv(t)
	receipt, err := token.Deploy(e.vm, deployer, "Badium", "BAD", 6)
	require.NoError(t, err)
	require.NoError(t, receipt.Err())
	e.token = receipt.ContractAddress
	return e
}

func wei(whole uint64, decimals uint8) *uint256.Int {
	v := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	return v.Mul(v, uint256.NewInt(whole))
}

func (e *env) exec(from common.Address, method string, args ...interface{}) *types.Receipt {
	receipt, err := e.vm.Invoke(from, e.token, nil, method, args...)
	require.NoError(e.t, err)
	return receipt
}

func (e *env) call(from common.Address, method string, args ...interface{}) error {
	return e.exec(from, method, args...).Err()
}

func (e *env) query(method string, args ...interface{}) interface{} {
	out, err := e.vm.Query(account3, e.token, method, args...)
	require.NoError(e.t, err)
	return out[0]
}

func (e *env) balance(addr common.Address) *big.Int {
	return e.query("balanceOf", addr).(*big.Int)
}

func (e *env) supply() *big.Int {
	return e.query("totalSupply").(*big.Int)
}

func (e *env) ledger() *token.Badium {
	return e.vm.StateDB().GetObject(e.token).(*token.Badium)
}

// sumOfBalances adds up every live balance of the ledger.
func (e *env) sumOfBalances() *big.Int {
	sum := new(big.Int)
	e.ledger().Holders(func(_ common.Address, balance *uint256.Int) {
		sum.Add(sum, balance.ToBig())
	})
	return sum
}

func b(x int64) *big.Int { return big.NewInt(x) }

func TestDeployWithSupply(t *testing.T) {
	e := newSupplyEnv(t)
	assert.Equal(t, "Badium", e.query("name"))
	assert.Equal(t, "BAD", e.query("symbol"))
	assert.Equal(t, uint8(18), e.query("decimals"))
	assert.Equal(t, wei(1000, 18).ToBig(), e.supply())
	assert.Equal(t, wei(1000, 18).ToBig(), e.balance(account1))
	assert.Equal(t, 0, e.balance(deployer).Sign())
	assert.Equal(t, account1, e.query("owner"))
}

func TestDeployMinimal(t *testing.T) {
	e := newMinimalEnv(t)
	assert.Equal(t, deployer, e.query("owner"))
	assert.Equal(t, 0, e.supply().Sign())

	require.NoError(t, e.call(deployer, "mint", account1, b(500)))
	assert.Equal(t, b(500), e.supply())
	assert.Equal(t, b(500), e.balance(account1))
}

func TestDeployRejectsTooManyDecimals(t *testing.T) {
	e := newEnv(t)
	receipt, err := token.Deploy(e.vm, deployer, "Badium", "BAD", 78)
	require.NoError(t, err)
	assert.True(t, errors.Is(receipt.Err(), types.ErrInvalidArgument))

	receipt, err = token.Deploy(e.vm, deployer, "Badium", "BAD", 77)
	require.NoError(t, err)
	assert.NoError(t, receipt.Err())
}

func TestDeployEvents(t *testing.T) {
	e := newEnv(t)
	receipt, err := token.DeployWithSupply(e.vm, deployer, "Badium", "BAD", 0, uint256.NewInt(10), account1)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 2)
	assert.Equal(t, token.ABI.Events["OwnershipTransferred"].ID, receipt.Logs[0].Topics[0])
	assert.Equal(t, token.ABI.Events["Transfer"].ID, receipt.Logs[1].Topics[0])
	assert.Equal(t, common.Hash{}, receipt.Logs[1].Topics[1])
	assert.Equal(t, common.BytesToHash(account1.Bytes()), receipt.Logs[1].Topics[2])
}

func TestTransferToEligibleReceiver(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "mint", account2, b(100)))
	require.NoError(t, e.call(account1, "addReceiver", account3))

	before := e.supply()
	receipt := e.exec(account2, "transfer", account3, b(40))
	require.NoError(t, receipt.Err())
	assert.Equal(t, b(60), e.balance(account2))
	assert.Equal(t, b(40), e.balance(account3))
	assert.Equal(t, before, e.supply())

	require.Len(t, receipt.Logs, 1)
	values, err := token.ABI.Events["Transfer"].Inputs.NonIndexed().Unpack(receipt.Logs[0].Data)
	require.NoError(t, err)
	assert.Equal(t, b(40), values[0])
}

func TestTransferRequiresEligibility(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "mint", account2, b(100)))

	err := e.call(account2, "transfer", account3, b(10))
	assert.True(t, errors.Is(err, types.ErrRecipientNotEligible))
	assert.Equal(t, b(100), e.balance(account2))
	assert.Equal(t, 0, e.balance(account3).Sign())
}

func TestTransferRequiresFunds(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "mint", account2, b(100)))
	require.NoError(t, e.call(account1, "addReceiver", account3))

	err := e.call(account2, "transfer", account3, b(101))
	assert.True(t, errors.Is(err, types.ErrInsufficientBalance))
	assert.Equal(t, b(100), e.balance(account2))

	// balance is checked before eligibility
	require.NoError(t, e.call(account1, "removeReceiver", account3))
	err = e.call(account2, "transfer", account3, b(101))
	assert.True(t, errors.Is(err, types.ErrInsufficientBalance))
}

func TestOwnerTransferBypassesEligibility(t *testing.T) {
	e := newSupplyEnv(t)
	amount := wei(10, 18).ToBig()
	require.NoError(t, e.call(account1, "transfer", account2, amount))
	assert.Equal(t, amount, e.balance(account2))
}

func TestTransferToZeroAddress(t *testing.T) {
	e := newSupplyEnv(t)
	err := e.call(account1, "transfer", common.Address{}, b(1))
	assert.True(t, errors.Is(err, types.ErrZeroAddress))
}

func TestApproveOverwrites(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account2, "approve", account3, b(50)))
	require.NoError(t, e.call(account2, "approve", account3, b(20)))
	assert.Equal(t, b(20), e.query("allowance", account2, account3))

	err := e.call(account2, "approve", common.Address{}, b(1))
	assert.True(t, errors.Is(err, types.ErrZeroAddress))
}

func TestTransferFromByNonOwner(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "mint", account2, b(100)))
	require.NoError(t, e.call(account1, "addReceiver", deployer))
	require.NoError(t, e.call(account2, "approve", account3, b(30)))

	err := e.call(account3, "transferFrom", account2, deployer, b(31))
	assert.True(t, errors.Is(err, types.ErrInsufficientAllowance))

	require.NoError(t, e.call(account3, "transferFrom", account2, deployer, b(12)))
	assert.Equal(t, b(18), e.query("allowance", account2, account3))
	assert.Equal(t, b(88), e.balance(account2))
	assert.Equal(t, b(12), e.balance(deployer))

	// recipient must be eligible for delegated transfers too
	err = e.call(account3, "transferFrom", account2, account3, b(1))
	assert.True(t, errors.Is(err, types.ErrRecipientNotEligible))
	assert.Equal(t, b(18), e.query("allowance", account2, account3))

	// allowance above balance
	require.NoError(t, e.call(account2, "approve", account3, b(1000)))
	err = e.call(account3, "transferFrom", account2, deployer, b(89))
	assert.True(t, errors.Is(err, types.ErrInsufficientBalance))
	assert.Equal(t, b(1000), e.query("allowance", account2, account3))
}

func TestTransferFromByOwner(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "mint", account2, b(100)))
	require.NoError(t, e.call(account2, "approve", account1, b(5)))

	// no allowance needed, recipient not eligible, allowance untouched
	require.NoError(t, e.call(account1, "transferFrom", account2, account3, b(70)))
	assert.Equal(t, b(30), e.balance(account2))
	assert.Equal(t, b(70), e.balance(account3))
	assert.Equal(t, b(5), e.query("allowance", account2, account1))

	err := e.call(account1, "transferFrom", account2, account3, b(31))
	assert.True(t, errors.Is(err, types.ErrInsufficientBalance))
}

func TestTransferFromWithApprovedDeployer(t *testing.T) {
	// the deployer is not the owner of a ledger deployed with an initial owner
	e := newSupplyEnv(t)
	amount := wei(100, 18).ToBig()
	require.NoError(t, e.call(account1, "approve", deployer, amount))
	require.NoError(t, e.call(account1, "addReceiver", account2))
	require.NoError(t, e.call(deployer, "transferFrom", account1, account2, amount))
	assert.Equal(t, 0, e.query("allowance", account1, deployer).(*big.Int).Sign())
	assert.Equal(t, amount, e.balance(account2))
}

func TestMint(t *testing.T) {
	e := newSupplyEnv(t)
	err := e.call(account2, "mint", account2, b(1))
	assert.True(t, errors.Is(err, types.ErrNotOwner))

	before := e.supply()
	require.NoError(t, e.call(account1, "mint", account3, b(7)))
	assert.Equal(t, new(big.Int).Add(before, b(7)), e.supply())
	assert.Equal(t, b(7), e.balance(account3))

	max := new(uint256.Int).SetAllOne().ToBig()
	err = e.call(account1, "mint", account3, max)
	assert.True(t, errors.Is(err, types.ErrArithmeticOverflow))
	assert.Equal(t, b(7), e.balance(account3))

	err = e.call(account1, "mint", common.Address{}, b(1))
	assert.True(t, errors.Is(err, types.ErrZeroAddress))
}

func TestBurnAll(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "mint", account2, b(100)))

	err := e.call(account2, "burnAll")
	assert.True(t, errors.Is(err, types.ErrNotOwner))

	receipt := e.exec(account1, "burnAll")
	require.NoError(t, receipt.Err())
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, token.ABI.Events["SupplyReset"].ID, receipt.Logs[0].Topics[0])
	assert.Equal(t, 0, e.supply().Sign())
	assert.Equal(t, 0, e.balance(account1).Sign())
	assert.Equal(t, 0, e.balance(account2).Sign())

	// a second burnAll is a no-op
	receipt = e.exec(account1, "burnAll")
	require.NoError(t, receipt.Err())
	assert.Empty(t, receipt.Logs)
	assert.Equal(t, 0, e.supply().Sign())
	assert.Equal(t, 0, e.balance(account2).Sign())

	// old balances do not come back
	require.NoError(t, e.call(account1, "mint", account2, b(3)))
	assert.Equal(t, b(3), e.balance(account2))
	assert.Equal(t, 0, e.balance(account1).Sign())
	assert.Equal(t, b(3), e.supply())
	assert.Zero(t, e.supply().Cmp(e.sumOfBalances()))

	err = e.call(account2, "transfer", account1, b(4))
	assert.True(t, errors.Is(err, types.ErrInsufficientBalance))
}

func TestReceiverList(t *testing.T) {
	e := newSupplyEnv(t)
	err := e.call(account2, "addReceiver", account2)
	assert.True(t, errors.Is(err, types.ErrNotOwner))

	receipt := e.exec(account1, "addReceiver", account2)
	require.NoError(t, receipt.Err())
	assert.Len(t, receipt.Logs, 1)
	receipt = e.exec(account1, "addReceiver", account2)
	require.NoError(t, receipt.Err())
	assert.Empty(t, receipt.Logs)
	assert.Equal(t, b(1), e.query("nbReceivers"))
	assert.Equal(t, true, e.query("canReceive", account2))

	require.NoError(t, e.call(account1, "addReceiver", account3))
	assert.Equal(t, b(2), e.query("nbReceivers"))

	// removing the first slot moves the last receiver into it
	require.NoError(t, e.call(account1, "removeReceiver", account2))
	require.NoError(t, e.call(account1, "removeReceiver", account2))
	assert.Equal(t, b(1), e.query("nbReceivers"))
	assert.Equal(t, false, e.query("canReceive", account2))
	assert.Equal(t, account3, e.query("getReceiverAtIndex", b(0)))

	_, err = e.vm.Query(account2, e.token, "getReceiverAtIndex", b(1))
	assert.True(t, errors.Is(err, types.ErrIndexOutOfBounds))
	_, err = e.vm.Query(account2, e.token, "getReceiverAtIndex", new(big.Int).Lsh(b(1), 100))
	assert.True(t, errors.Is(err, types.ErrIndexOutOfBounds))
}

func TestTransferOwnership(t *testing.T) {
	e := newSupplyEnv(t)
	err := e.call(account2, "transferOwnership", account2)
	assert.True(t, errors.Is(err, types.ErrNotOwner))
	err = e.call(account1, "transferOwnership", common.Address{})
	assert.True(t, errors.Is(err, types.ErrZeroAddress))

	require.NoError(t, e.call(account1, "transferOwnership", account2))
	assert.Equal(t, account2, e.query("owner"))
	assert.True(t, errors.Is(e.call(account1, "mint", account1, b(1)), types.ErrNotOwner))
	assert.NoError(t, e.call(account2, "mint", account1, b(1)))
}

func TestStatePersists(t *testing.T) {
	e := newSupplyEnv(t)
	require.NoError(t, e.call(account1, "addReceiver", account2))
	require.NoError(t, e.call(account1, "addReceiver", account3))
	require.NoError(t, e.call(account1, "transfer", account2, b(9)))
	require.NoError(t, e.call(account2, "approve", account3, b(4)))
	require.NoError(t, e.call(account1, "burnAll"))
	require.NoError(t, e.call(account1, "mint", account3, b(2)))

	sd, err := state.NewStateDB(e.db)
	require.NoError(t, err)
	reloaded := &env{t: t, db: e.db, vm: ovm.NewOVM(sd), token: e.token}
	assert.Equal(t, b(2), reloaded.supply())
	assert.Equal(t, 0, reloaded.balance(account2).Sign())
	assert.Equal(t, b(2), reloaded.balance(account3))
	assert.Equal(t, b(4), reloaded.query("allowance", account2, account3))
	assert.Equal(t, account2, reloaded.query("getReceiverAtIndex", b(0)))
	assert.Equal(t, account3, reloaded.query("getReceiverAtIndex", b(1)))
	assert.Equal(t, account1, reloaded.query("owner"))
	assert.Equal(t, e.ledger().Epoch(), reloaded.ledger().Epoch())

	a, err := e.ledger().Encode()
	require.NoError(t, err)
	c, err := reloaded.ledger().Encode()
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

// TestSupplyConservation drives random operations and checks that supply
// always equals the sum of balances and that failed calls change nothing.
func TestSupplyConservation(t *testing.T) {
	e := newMinimalEnv(t)
	accounts := []common.Address{deployer, account1, account2, account3}
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		from := accounts[rnd.Intn(len(accounts))]
		to := accounts[rnd.Intn(len(accounts))]
		other := accounts[rnd.Intn(len(accounts))]
		amount := b(rnd.Int63n(200))

		encodedBefore, err := e.ledger().Encode()
		require.NoError(t, err)

		var receipt *types.Receipt
		switch rnd.Intn(8) {
		case 0, 1:
			receipt = e.exec(deployer, "mint", to, amount)
		case 2, 3:
			receipt = e.exec(from, "transfer", to, amount)
		case 4:
			receipt = e.exec(from, "approve", other, amount)
		case 5:
			receipt = e.exec(other, "transferFrom", from, to, amount)
		case 6:
			if rnd.Intn(2) == 0 {
				receipt = e.exec(deployer, "addReceiver", to)
			} else {
				receipt = e.exec(deployer, "removeReceiver", to)
			}
		case 7:
			if rnd.Intn(10) == 0 {
				receipt = e.exec(from, "burnAll")
			} else {
				receipt = e.exec(from, "transfer", to, amount)
			}
		}

		assert.Zero(t, e.supply().Cmp(e.sumOfBalances()), "step %d", i)
		if !receipt.Succeeded() {
			encodedAfter, err := e.ledger().Encode()
			require.NoError(t, err)
			assert.Equal(t, encodedBefore, encodedAfter, "failed call changed state at step %d", i)
		}
	}
}
