// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package ovm

import (
	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Context is what a running contract sees of the world: who called it, with
// how much currency, and the means to call other contracts and emit events.
type Context struct {
	ovm      *OVM
	caller   common.Address
	origin   common.Address
	self     common.Address
	value    *uint256.Int
	abi      *abi.ABI
	depth    int
	readOnly bool
}

func (c *Context) Caller() common.Address { return c.caller }

// Origin is the account that signed off the top-level call.
func (c *Context) Origin() common.Address { return c.origin }

func (c *Context) Self() common.Address { return c.self }

// Value is the currency attached to the current call.
func (c *Context) Value() *uint256.Int { return math.Copy(c.value) }

func (c *Context) Depth() int { return c.depth }

func (c *Context) ReadOnly() bool { return c.readOnly }

// Balance returns the native balance of addr.
func (c *Context) Balance(addr common.Address) *uint256.Int {
	return c.ovm.state.GetBalance(addr)
}

// AppendJournal records a revertible change of the running contract's state.
func (c *Context) AppendJournal(entry state.JournalEntry) {
	c.ovm.state.AppendJournal(entry)
}

// Call invokes method on the contract at to, packing args with the callee's
// ABI and unpacking its outputs. The callee sees the running contract as its
// caller.
func (c *Context) Call(to common.Address, value *uint256.Int, method string, args ...interface{}) ([]interface{}, error) {
	if c.readOnly && value != nil && !value.IsZero() {
		return nil, types.NewExecError(types.KindWriteProtection, "value transfer in static context")
	}
	return c.ovm.invoke(c, to, value, method, c.readOnly, args)
}

// StaticCall is Call without currency and without any state modification.
func (c *Context) StaticCall(to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	return c.ovm.invoke(c, to, nil, method, true, args)
}

// Transfer sends native currency from the running contract to addr. A
// contract recipient gets its Receive hook invoked.
func (c *Context) Transfer(to common.Address, amount *uint256.Int) error {
	if c.readOnly {
		return types.NewExecError(types.KindWriteProtection, "transfer in static context")
	}
	_, err := c.ovm.call(c.self, c.origin, to, amount, nil, c.depth+1, false)
	return err
}

// Emit appends a log for the named event of the running contract. Indexed
// arguments become topics, the others are ABI encoded into the data.
func (c *Context) Emit(name string, args ...interface{}) error {
	if c.readOnly {
		return types.NewExecError(types.KindWriteProtection, "event %s in static context", name)
	}
	event, ok := c.abi.Events[name]
	if !ok {
		return types.NewExecError(types.KindInvalidArgument, "unknown event %s", name)
	}
	if len(args) != len(event.Inputs) {
		return types.NewExecError(types.KindInvalidArgument, "event %s takes %d arguments, got %d", name, len(event.Inputs), len(args))
	}
	topics := []common.Hash{event.ID}
	var data []interface{}
	for i, input := range event.Inputs {
		if !input.Indexed {
			data = append(data, args[i])
			continue
		}
		t, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			return types.NewExecError(types.KindInvalidArgument, "event %s topic %s: %v", name, input.Name, err)
		}
		topics = append(topics, t[0][0])
	}
	packed, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return types.NewExecError(types.KindInvalidArgument, "event %s: %v", name, err)
	}
	c.ovm.state.AddLog(&types.Log{
		Address: c.self,
		Topics:  topics,
		Data:    packed,
	})
	return nil
}

// CanTransfer checks whether there are enough funds in the address' account to make a transfer.
func CanTransfer(db *state.StateDB, addr common.Address, amount *uint256.Int) bool {
	return !db.GetBalance(addr).Lt(amount)
}

// Transfer subtracts amount from sender and adds amount to recipient using the given Db
func Transfer(db *state.StateDB, sender, recipient common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if err := db.SubBalance(sender, amount); err != nil {
		return err
	}
	return db.AddBalance(recipient, amount)
}
