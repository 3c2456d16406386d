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

// Package token implements Badium, a fungible token ledger whose direct
// transfers are restricted to an owner managed list of eligible receivers.
package token

import (
	"math/big"

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/contract/ownable"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// balanceEntry is only valid while epoch equals the ledger epoch. burnAll
// bumps the ledger epoch, which zeroes every balance at once.
type balanceEntry struct {
	amount *uint256.Int
	epoch  uint64
}

type Badium struct {
	ownable.Ownable

	name     string
	symbol   string
	decimals uint8

	totalSupply *uint256.Int
	epoch       uint64
	balances    map[common.Address]balanceEntry
	allowances  map[common.Address]map[common.Address]*uint256.Int
	receivers   *AddressSet
}

func newBadium() *Badium {
	return &Badium{
		totalSupply: new(uint256.Int),
		balances:    make(map[common.Address]balanceEntry),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		receivers:   NewAddressSet(),
	}
}

// construct accepts (name, symbol, decimals, initialSupply, initialOwner). A
// zero initialOwner makes the deployer the owner.
func construct(ctx *ovm.Context, args []interface{}) (ovm.Contract, error) {
	decimals := args[2].(uint8)
	if decimals > math.MaxDecimals {
		return nil, types.NewExecError(types.KindInvalidArgument, "decimals %d above %d", decimals, math.MaxDecimals)
	}
	supply, err := ovm.BigToUint256(args[3].(*big.Int))
	if err != nil {
		return nil, err
	}
	owner := args[4].(common.Address)
	if owner == (common.Address{}) {
		owner = ctx.Caller()
	}

	b := newBadium()
	b.name = args[0].(string)
	b.symbol = args[1].(string)
	b.decimals = decimals
	if err := b.Ownable.Init(ctx, owner); err != nil {
		return nil, err
	}
	if !supply.IsZero() {
		if err := b.mint(ctx, owner, supply); err != nil {
			return nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"name":     b.name,
		"symbol":   b.symbol,
		"decimals": decimals,
		"supply":   supply.Dec(),
		"owner":    owner.Hex(),
	}).Debug("badium constructed")
	return b, nil
}

func (b *Badium) Kind() string { return Kind }

func (b *Badium) Name() string { return b.name }

func (b *Badium) Symbol() string { return b.symbol }

func (b *Badium) Decimals() uint8 { return b.decimals }

func (b *Badium) TotalSupply() *uint256.Int { return math.Copy(b.totalSupply) }

func (b *Badium) Epoch() uint64 { return b.epoch }

// BalanceOf reads zero for accounts last written before the latest burnAll.
func (b *Badium) BalanceOf(account common.Address) *uint256.Int {
	entry, ok := b.balances[account]
	if !ok || entry.epoch != b.epoch {
		return new(uint256.Int)
	}
	return math.Copy(entry.amount)
}

func (b *Badium) Allowance(owner, spender common.Address) *uint256.Int {
	return math.Copy(b.allowances[owner][spender])
}

func (b *Badium) CanReceive(account common.Address) bool {
	return b.receivers.Contains(account)
}

func (b *Badium) Receivers() *AddressSet {
	return b.receivers
}

// Holders calls f for every account with a live balance.
func (b *Badium) Holders(f func(account common.Address, balance *uint256.Int)) {
	for account, entry := range b.balances {
		if entry.epoch == b.epoch && !entry.amount.IsZero() {
			f(account, math.Copy(entry.amount))
		}
	}
}

func (b *Badium) setBalance(ctx *ovm.Context, account common.Address, amount *uint256.Int) {
	prev, existed := b.balances[account]
	ctx.AppendJournal(balanceChange{b: b, self: ctx.Self(), account: account, prev: prev, existed: existed})
	if amount.IsZero() {
		delete(b.balances, account)
		return
	}
	b.balances[account] = balanceEntry{amount: amount, epoch: b.epoch}
}

func (b *Badium) putAllowance(owner, spender common.Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		if m, ok := b.allowances[owner]; ok {
			delete(m, spender)
			if len(m) == 0 {
				delete(b.allowances, owner)
			}
		}
		return
	}
	m, ok := b.allowances[owner]
	if !ok {
		m = make(map[common.Address]*uint256.Int)
		b.allowances[owner] = m
	}
	m[spender] = amount
}

func (b *Badium) setAllowance(ctx *ovm.Context, owner, spender common.Address, amount *uint256.Int) {
	ctx.AppendJournal(allowanceChange{b: b, self: ctx.Self(), owner: owner, spender: spender, prev: b.allowances[owner][spender]})
	b.putAllowance(owner, spender, amount)
}

// move debits from and credits to. totalSupply is unchanged.
func (b *Badium) move(ctx *ovm.Context, from, to common.Address, amount *uint256.Int) error {
	fromBalance, err := math.SafeSub(b.BalanceOf(from), amount)
	if err != nil {
		return types.NewExecError(types.KindInsufficientBalance, "transfer amount exceeds balance")
	}
	b.setBalance(ctx, from, fromBalance)
	toBalance, err := math.SafeAdd(b.BalanceOf(to), amount)
	if err != nil {
		return err
	}
	b.setBalance(ctx, to, toBalance)
	return ctx.Emit("Transfer", from, to, amount.ToBig())
}

func (b *Badium) checkEligible(to common.Address) error {
	if !b.receivers.Contains(to) {
		return types.NewExecError(types.KindRecipientNotEligible, "%s is not an eligible receiver", to.Hex())
	}
	return nil
}

// Transfer moves amount from the caller to to. Unless the caller is the
// owner, to must be an eligible receiver.
func (b *Badium) Transfer(ctx *ovm.Context, to common.Address, amount *uint256.Int) error {
	sender := ctx.Caller()
	if to == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "transfer to the zero address")
	}
	if b.BalanceOf(sender).Lt(amount) {
		return types.NewExecError(types.KindInsufficientBalance, "transfer amount exceeds balance")
	}
	if !b.IsOwner(sender) {
		if err := b.checkEligible(to); err != nil {
			return err
		}
	}
	return b.move(ctx, sender, to, amount)
}

func (b *Badium) Approve(ctx *ovm.Context, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "approve to the zero address")
	}
	b.setAllowance(ctx, ctx.Caller(), spender, math.Copy(amount))
	return ctx.Emit("Approval", ctx.Caller(), spender, amount.ToBig())
}

// TransferFrom moves amount from from to to on behalf of the caller. The owner
// bypasses both the allowance and the receiver eligibility; anybody else
// consumes exactly amount of allowance.
func (b *Badium) TransferFrom(ctx *ovm.Context, from, to common.Address, amount *uint256.Int) error {
	spender := ctx.Caller()
	if from == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "transfer from the zero address")
	}
	if to == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "transfer to the zero address")
	}
	if b.IsOwner(spender) {
		return b.move(ctx, from, to, amount)
	}

	allowance := b.Allowance(from, spender)
	if allowance.Lt(amount) {
		return types.NewExecError(types.KindInsufficientAllowance, "insufficient allowance")
	}
	if b.BalanceOf(from).Lt(amount) {
		return types.NewExecError(types.KindInsufficientBalance, "transfer amount exceeds balance")
	}
	if err := b.checkEligible(to); err != nil {
		return err
	}
	remaining, err := math.SafeSub(allowance, amount)
	if err != nil {
		return err
	}
	b.setAllowance(ctx, from, spender, remaining)
	if err := ctx.Emit("Approval", from, spender, remaining.ToBig()); err != nil {
		return err
	}
	return b.move(ctx, from, to, amount)
}

func (b *Badium) Mint(ctx *ovm.Context, to common.Address, amount *uint256.Int) error {
	if err := b.OnlyOwner(ctx); err != nil {
		return err
	}
	return b.mint(ctx, to, amount)
}

func (b *Badium) mint(ctx *ovm.Context, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "mint to the zero address")
	}
	supply, err := math.SafeAdd(b.totalSupply, amount)
	if err != nil {
		return err
	}
	balance, err := math.SafeAdd(b.BalanceOf(to), amount)
	if err != nil {
		return err
	}
	ctx.AppendJournal(supplyChange{b: b, self: ctx.Self(), prevTotal: b.totalSupply, prevEpoch: b.epoch})
	b.totalSupply = supply
	b.setBalance(ctx, to, balance)
	return ctx.Emit("Transfer", common.Address{}, to, amount.ToBig())
}

// BurnAll zeroes the supply and every balance by moving to a new epoch. A
// ledger that is already empty is left untouched.
func (b *Badium) BurnAll(ctx *ovm.Context) error {
	if err := b.OnlyOwner(ctx); err != nil {
		return err
	}
	if b.totalSupply.IsZero() {
		return nil
	}
	burned := b.totalSupply
	ctx.AppendJournal(supplyChange{b: b, self: ctx.Self(), prevTotal: b.totalSupply, prevEpoch: b.epoch})
	b.totalSupply = new(uint256.Int)
	b.epoch++
	logrus.WithFields(logrus.Fields{
		"contract": ctx.Self().Hex(),
		"epoch":    b.epoch,
		"burned":   burned.Dec(),
	}).Debug("supply reset")
	return ctx.Emit("SupplyReset", b.epoch, burned.ToBig())
}

func (b *Badium) AddReceiver(ctx *ovm.Context, account common.Address) error {
	if err := b.OnlyOwner(ctx); err != nil {
		return err
	}
	if !b.receivers.Add(account) {
		return nil
	}
	ctx.AppendJournal(receiverAddChange{b: b, self: ctx.Self(), account: account})
	return ctx.Emit("ReceiverAdded", account)
}

func (b *Badium) RemoveReceiver(ctx *ovm.Context, account common.Address) error {
	if err := b.OnlyOwner(ctx); err != nil {
		return err
	}
	slot := b.receivers.Remove(account)
	if slot < 0 {
		return nil
	}
	ctx.AppendJournal(receiverRemoveChange{b: b, self: ctx.Self(), account: account, slot: slot})
	return ctx.Emit("ReceiverRemoved", account)
}

func (b *Badium) Run(ctx *ovm.Context, method *abi.Method, args []interface{}) ([]interface{}, error) {
	if out, handled, err := b.Ownable.Run(ctx, method, args); handled {
		return out, err
	}
	switch method.Name {
	case "name":
		return []interface{}{b.name}, nil
	case "symbol":
		return []interface{}{b.symbol}, nil
	case "decimals":
		return []interface{}{b.decimals}, nil
	case "totalSupply":
		return []interface{}{b.totalSupply.ToBig()}, nil
	case "balanceOf":
		return []interface{}{b.BalanceOf(args[0].(common.Address)).ToBig()}, nil
	case "allowance":
		return []interface{}{b.Allowance(args[0].(common.Address), args[1].(common.Address)).ToBig()}, nil
	case "canReceive":
		return []interface{}{b.CanReceive(args[0].(common.Address))}, nil
	case "nbReceivers":
		return []interface{}{big.NewInt(int64(b.receivers.Len()))}, nil
	case "getReceiverAtIndex":
		i := args[0].(*big.Int)
		if !i.IsUint64() {
			return nil, types.NewExecError(types.KindIndexOutOfBounds, "index %s, %d receivers", i, b.receivers.Len())
		}
		addr, err := b.receivers.At(i.Uint64())
		if err != nil {
			return nil, err
		}
		return []interface{}{addr}, nil
	case "burnAll":
		return nil, b.BurnAll(ctx)
	case "addReceiver":
		return nil, b.AddReceiver(ctx, args[0].(common.Address))
	case "removeReceiver":
		return nil, b.RemoveReceiver(ctx, args[0].(common.Address))
	}

	// remaining methods take a uint256 amount as their last argument
	if len(args) == 0 {
		return nil, types.NewExecError(types.KindUnknownMethod, "badium has no method %s", method.Name)
	}
	amount, err := ovm.BigToUint256(args[len(args)-1].(*big.Int))
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "transfer":
		return []interface{}{true}, b.Transfer(ctx, args[0].(common.Address), amount)
	case "approve":
		return []interface{}{true}, b.Approve(ctx, args[0].(common.Address), amount)
	case "transferFrom":
		return []interface{}{true}, b.TransferFrom(ctx, args[0].(common.Address), args[1].(common.Address), amount)
	case "mint":
		return nil, b.Mint(ctx, args[0].(common.Address), amount)
	}
	return nil, types.NewExecError(types.KindUnknownMethod, "badium has no method %s", method.Name)
}
