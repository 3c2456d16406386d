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

// Package market sells Badium units held by the contract for native currency
// at an owner controlled price.
package market

import (
	"math/big"

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/contract/ownable"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

type Market struct {
	ownable.Ownable

	// tokenPrice is in smallest currency units per whole token.
	tokenPrice    *uint256.Int
	tokenContract common.Address

	// entered is set while buy or withdraw runs. Not persisted.
	entered bool
}

// construct accepts (tokenPrice, tokenContract). A zero tokenContract leaves
// the market unconfigured until configure is called.
func construct(ctx *ovm.Context, args []interface{}) (ovm.Contract, error) {
	price, err := ovm.BigToUint256(args[0].(*big.Int))
	if err != nil {
		return nil, err
	}
	m := &Market{
		tokenPrice:    price,
		tokenContract: args[1].(common.Address),
	}
	if err := m.Ownable.Init(ctx, ctx.Caller()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Market) Kind() string { return Kind }

func (m *Market) TokenPrice() *uint256.Int { return math.Copy(m.tokenPrice) }

func (m *Market) TokenContract() common.Address { return m.tokenContract }

func (m *Market) Configured() bool {
	return m.tokenContract != (common.Address{})
}

func (m *Market) requireConfigured() error {
	if !m.Configured() {
		return types.NewExecError(types.KindNotConfigured, "market has no token contract")
	}
	return nil
}

func (m *Market) enter() error {
	if m.entered {
		return types.NewExecError(types.KindReentrantCall, "market is busy")
	}
	m.entered = true
	return nil
}

func (m *Market) exit() {
	m.entered = false
}

// ComputePrice returns tokenPrice * amount / 10^decimals, truncated. The
// product is computed on 512 bits.
func (m *Market) ComputePrice(ctx *ovm.Context, amount *uint256.Int) (*uint256.Int, error) {
	if err := m.requireConfigured(); err != nil {
		return nil, err
	}
	out, err := ctx.StaticCall(m.tokenContract, "decimals")
	if err != nil {
		return nil, err
	}
	decimals := out[0].(uint8)
	unit, err := math.Pow10(decimals)
	if err != nil {
		return nil, err
	}
	return math.MulDiv(m.tokenPrice, amount, unit)
}

// Buy sends amount token units from the market to the caller in exchange for
// the attached payment. Overpayment is kept.
func (m *Market) Buy(ctx *ovm.Context, amount *uint256.Int) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	price, err := m.ComputePrice(ctx, amount)
	if err != nil {
		return err
	}
	paid := ctx.Value()
	if paid.Lt(price) {
		return types.NewExecError(types.KindInsufficientPayment, "paid %s, price is %s", paid.Dec(), price.Dec())
	}
	buyer := ctx.Caller()
	if _, err := ctx.Call(m.tokenContract, nil, "transfer", buyer, amount.ToBig()); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"buyer":  buyer.Hex(),
		"amount": amount.Dec(),
		"price":  price.Dec(),
		"paid":   paid.Dec(),
	}).Debug("tokens purchased")
	return ctx.Emit("TokensPurchased", buyer, amount.ToBig(), price.ToBig(), paid.ToBig())
}

func (m *Market) SetTokenPrice(ctx *ovm.Context, price *uint256.Int) error {
	if err := m.OnlyOwner(ctx); err != nil {
		return err
	}
	old := m.tokenPrice
	ctx.AppendJournal(configChange{m: m, self: ctx.Self(), price: old, token: m.tokenContract})
	m.tokenPrice = math.Copy(price)
	return ctx.Emit("TokenPriceChanged", old.ToBig(), price.ToBig())
}

// Configure sets price and token of a market constructed without them.
func (m *Market) Configure(ctx *ovm.Context, price *uint256.Int, tokenContract common.Address) error {
	if err := m.OnlyOwner(ctx); err != nil {
		return err
	}
	if m.Configured() {
		return types.NewExecError(types.KindAlreadyConfigured, "token contract is %s", m.tokenContract.Hex())
	}
	if tokenContract == (common.Address{}) {
		return types.NewExecError(types.KindZeroAddress, "token contract is the zero address")
	}
	old := m.tokenPrice
	ctx.AppendJournal(configChange{m: m, self: ctx.Self(), price: old, token: m.tokenContract})
	m.tokenPrice = math.Copy(price)
	m.tokenContract = tokenContract
	return ctx.Emit("TokenPriceChanged", math.Copy(old).ToBig(), price.ToBig())
}

// Withdraw sends the whole currency balance of the market to the owner. The
// market balance is debited before the owner is credited.
func (m *Market) Withdraw(ctx *ovm.Context) error {
	if err := m.OnlyOwner(ctx); err != nil {
		return err
	}
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	balance := ctx.Balance(ctx.Self())
	if balance.IsZero() {
		return types.NewExecError(types.KindNoFundsToWithdraw, "no funds to withdraw")
	}
	owner := m.Owner()
	if err := ctx.Emit("Withdrawn", owner, balance.ToBig()); err != nil {
		return err
	}
	return ctx.Transfer(owner, balance)
}

func (m *Market) Run(ctx *ovm.Context, method *abi.Method, args []interface{}) ([]interface{}, error) {
	if out, handled, err := m.Ownable.Run(ctx, method, args); handled {
		return out, err
	}
	switch method.Name {
	case "tokenPrice":
		return []interface{}{m.TokenPrice().ToBig()}, nil
	case "tokenContract":
		return []interface{}{m.tokenContract}, nil
	case "withdraw":
		return nil, m.Withdraw(ctx)
	}

	if len(args) == 0 {
		return nil, types.NewExecError(types.KindUnknownMethod, "market has no method %s", method.Name)
	}
	value, err := ovm.BigToUint256(args[0].(*big.Int))
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "computePrice":
		price, err := m.ComputePrice(ctx, value)
		if err != nil {
			return nil, err
		}
		return []interface{}{price.ToBig()}, nil
	case "buy":
		return nil, m.Buy(ctx, value)
	case "setTokenPrice":
		return nil, m.SetTokenPrice(ctx, value)
	case "configure":
		return nil, m.Configure(ctx, value, args[1].(common.Address))
	}
	return nil, types.NewExecError(types.KindUnknownMethod, "market has no method %s", method.Name)
}

type configChange struct {
	m     *Market
	self  common.Address
	price *uint256.Int
	token common.Address
}

func (ch configChange) Revert(*state.StateDB) {
	ch.m.tokenPrice = ch.price
	ch.m.tokenContract = ch.token
}

func (ch configChange) Dirtied() *common.Address {
	return &ch.self
}
