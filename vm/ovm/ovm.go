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
	"sync"

	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CallCreateDepth is the maximum depth of nested calls.
const CallCreateDepth = 1024

// OVM executes messages against a StateDB. Top-level operations are
// serialized: one message runs to completion, and is committed or rolled
// back, before the next starts.
type OVM struct {
	state *state.StateDB
	mu    sync.Mutex
}

func NewOVM(sd *state.StateDB) *OVM {
	return &OVM{state: sd}
}

func (o *OVM) StateDB() *state.StateDB {
	return o.state
}

// Execute runs msg as one atomic call and commits the result. The sender nonce
// advances even when the call fails; every other change of a failed call is
// rolled back. The returned error reports storage failures only, call
// failures are carried by the receipt.
func (o *OVM) Execute(msg *types.Message) (*types.Receipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	nonce := o.state.GetNonce(msg.From)
	txHash := msg.Hash(nonce)
	// undone entirely, nonce included, when the commit fails
	txSnapshot := o.state.Snapshot()
	o.state.SetNonce(msg.From, nonce+1)
	o.state.SetTxContext(txHash)

	receipt := &types.Receipt{
		TxHash: txHash,
		Nonce:  nonce,
		From:   msg.From,
		Value:  msg.GetValue().Dec(),
		Logs:   []*types.Log{},
	}

	snapshot := o.state.Snapshot()
	var (
		ret []byte
		err error
	)
	if msg.IsDeployment() {
		var addr common.Address
		addr, err = o.create(msg.From, nonce, msg.Kind, msg.GetValue(), msg.Data)
		receipt.ContractAddress = addr
		ret = addr.Bytes()
	} else {
		receipt.To = *msg.To
		ret, err = o.call(msg.From, msg.From, *msg.To, msg.GetValue(), msg.Data, 0, false)
	}

	if err != nil {
		o.state.RevertToSnapshot(snapshot)
		receipt.SetErr(err)
		receipt.ContractAddress = common.Address{}
		logrus.WithFields(logrus.Fields{
			"tx":   txHash.Hex(),
			"from": msg.From.Hex(),
			"kind": types.KindOf(err).String(),
		}).WithError(err).Debug("call failed")
	} else {
		receipt.Status = types.ReceiptStatusSuccess
		receipt.ReturnData = ret
		receipt.Logs = o.state.Logs()
	}

	if cerr := o.state.Commit(); cerr != nil {
		o.state.RevertToSnapshot(txSnapshot)
		logrus.WithError(cerr).WithField("tx", txHash.Hex()).Error("commit failed, call reverted")
		return nil, errors.Wrap(cerr, "commit state")
	}
	return receipt, nil
}

// StaticCall runs a view method at to and discards every state change.
func (o *OVM) StaticCall(from, to common.Address, input []byte) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := o.state.Snapshot()
	defer o.state.RevertToSnapshot(snapshot)
	return o.call(from, from, to, nil, input, 0, true)
}

// Query packs method and args with the ABI of the contract at to, runs it as
// a static call and returns the unpacked outputs.
func (o *OVM) Query(from, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	m, input, err := o.pack(to, method, args)
	if err != nil {
		return nil, err
	}
	ret, err := o.StaticCall(from, to, input)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Unpack(ret)
}

// Invoke packs method and args with the ABI of the contract at to and
// executes it as a top-level call from from.
func (o *OVM) Invoke(from, to common.Address, value *uint256.Int, method string, args ...interface{}) (*types.Receipt, error) {
	input, err := o.PackCall(to, method, args...)
	if err != nil {
		return nil, err
	}
	return o.Execute(&types.Message{From: from, To: &to, Value: value, Data: input})
}

// PackCall returns the calldata of method on the contract at to.
func (o *OVM) PackCall(to common.Address, method string, args ...interface{}) ([]byte, error) {
	_, input, err := o.pack(to, method, args)
	return input, err
}

// Deploy packs the constructor args of kind and executes the deployment.
func (o *OVM) Deploy(from common.Address, kind string, value *uint256.Int, args ...interface{}) (*types.Receipt, error) {
	input, err := PackDeployment(kind, args...)
	if err != nil {
		return nil, err
	}
	return o.Execute(&types.Message{From: from, Value: value, Data: input, Kind: kind})
}

// PackDeployment returns the constructor input of a contract of kind.
func PackDeployment(kind string, args ...interface{}) ([]byte, error) {
	ct, ok := LookupType(kind)
	if !ok {
		return nil, types.NewExecError(types.KindUnknownContract, "no contract kind %q", kind)
	}
	input, err := ct.ABI.Pack("", args...)
	if err != nil {
		return nil, types.NewExecError(types.KindInvalidArgument, "constructor of %s: %v", kind, err)
	}
	return input, nil
}

// ContractABI returns the ABI of the contract deployed at addr.
func (o *OVM) ContractABI(addr common.Address) (*ContractType, error) {
	obj := o.state.GetObject(addr)
	if obj == nil {
		return nil, types.NewExecError(types.KindUnknownContract, "no contract at %s", addr.Hex())
	}
	ct, ok := LookupType(obj.Kind())
	if !ok {
		return nil, types.NewExecError(types.KindUnknownContract, "unregistered contract kind %q", obj.Kind())
	}
	return ct, nil
}

func (o *OVM) pack(to common.Address, method string, args []interface{}) (*abi.Method, []byte, error) {
	ct, err := o.ContractABI(to)
	if err != nil {
		return nil, nil, err
	}
	m, ok := ct.ABI.Methods[method]
	if !ok {
		return nil, nil, types.NewExecError(types.KindUnknownMethod, "%s has no method %s", ct.Kind, method)
	}
	input, err := ct.ABI.Pack(method, args...)
	if err != nil {
		return nil, nil, types.NewExecError(types.KindInvalidArgument, "%s.%s: %v", ct.Kind, method, err)
	}
	return &m, input, nil
}

// invoke serves Context.Call and Context.StaticCall.
func (o *OVM) invoke(caller *Context, to common.Address, value *uint256.Int, method string, readOnly bool, args []interface{}) ([]interface{}, error) {
	m, input, err := o.pack(to, method, args)
	if err != nil {
		return nil, err
	}
	ret, err := o.call(caller.self, caller.origin, to, value, input, caller.depth+1, readOnly)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Unpack(ret)
}

// call executes input against the contract at addr in its own snapshot. An
// empty input is a plain currency transfer.
func (o *OVM) call(caller, origin, addr common.Address, value *uint256.Int, input []byte, depth int, readOnly bool) (ret []byte, err error) {
	// Fail if we're trying to execute above the call depth limit
	if depth > CallCreateDepth {
		return nil, types.ErrCallDepthExceeded
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if readOnly && !value.IsZero() {
		return nil, types.NewExecError(types.KindWriteProtection, "value transfer in static context")
	}
	// Fail if we're trying to transfer more than the available Balance
	if !CanTransfer(o.state, caller, value) {
		return nil, types.NewExecError(types.KindInsufficientFunds, "%s cannot send %s", caller.Hex(), value.Dec())
	}

	snapshot := o.state.Snapshot()
	ret, err = o.run(caller, origin, addr, value, input, depth, readOnly)
	if err != nil {
		o.state.RevertToSnapshot(snapshot)
	}
	return ret, err
}

func (o *OVM) run(caller, origin, addr common.Address, value *uint256.Int, input []byte, depth int, readOnly bool) ([]byte, error) {
	obj := o.state.GetObject(addr)
	if obj == nil {
		if len(input) > 0 {
			return nil, types.NewExecError(types.KindUnknownContract, "no contract at %s", addr.Hex())
		}
		return nil, Transfer(o.state, caller, addr, value)
	}
	contract, ok := obj.(Contract)
	if !ok {
		return nil, types.NewExecError(types.KindUnknownContract, "object at %s is not executable", addr.Hex())
	}
	ct, ok := LookupType(obj.Kind())
	if !ok {
		return nil, types.NewExecError(types.KindUnknownContract, "unregistered contract kind %q", obj.Kind())
	}
	ctx := &Context{
		ovm:      o,
		caller:   caller,
		origin:   origin,
		self:     addr,
		value:    value,
		abi:      &ct.ABI,
		depth:    depth,
		readOnly: readOnly,
	}

	if len(input) == 0 {
		receiver, ok := contract.(Receiver)
		if !ok {
			return nil, types.NewExecError(types.KindNonPayable, "%s does not accept currency", ct.Kind)
		}
		if err := Transfer(o.state, caller, addr, value); err != nil {
			return nil, err
		}
		return nil, receiver.Receive(ctx)
	}

	if len(input) < 4 {
		return nil, types.NewExecError(types.KindUnknownMethod, "input too short")
	}
	method, err := ct.ABI.MethodById(input[:4])
	if err != nil {
		return nil, types.NewExecError(types.KindUnknownMethod, "%s: selector %x", ct.Kind, input[:4])
	}
	if !value.IsZero() && !method.IsPayable() {
		return nil, types.NewExecError(types.KindNonPayable, "%s.%s is not payable", ct.Kind, method.Name)
	}
	if readOnly && !method.IsConstant() {
		return nil, types.NewExecError(types.KindWriteProtection, "%s.%s modifies state", ct.Kind, method.Name)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, types.NewExecError(types.KindInvalidArgument, "%s.%s: %v", ct.Kind, method.Name, err)
	}
	if err := Transfer(o.state, caller, addr, value); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"contract": ct.Kind,
		"method":   method.Name,
		"caller":   caller.Hex(),
		"depth":    depth,
	}).Trace("run contract")
	out, err := contract.Run(ctx, method, args)
	if err != nil {
		return nil, err
	}
	ret, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack outputs of %s.%s", ct.Kind, method.Name)
	}
	return ret, nil
}

// create deploys a contract of kind at the address derived from the creator
// and its nonce.
func (o *OVM) create(caller common.Address, nonce uint64, kind string, value *uint256.Int, input []byte) (common.Address, error) {
	address := crypto.CreateAddress(caller, nonce)
	ct, ok := LookupType(kind)
	if !ok {
		return address, types.NewExecError(types.KindUnknownContract, "no contract kind %q", kind)
	}
	if o.state.GetObject(address) != nil {
		return address, types.NewExecError(types.KindInvalidArgument, "contract address collision at %s", address.Hex())
	}
	if !value.IsZero() && !ct.ABI.Constructor.IsPayable() {
		return address, types.NewExecError(types.KindNonPayable, "constructor of %s is not payable", kind)
	}
	if !CanTransfer(o.state, caller, value) {
		return address, types.NewExecError(types.KindInsufficientFunds, "%s cannot send %s", caller.Hex(), value.Dec())
	}
	args, err := ct.ABI.Constructor.Inputs.Unpack(input)
	if err != nil {
		return address, types.NewExecError(types.KindInvalidArgument, "constructor of %s: %v", kind, err)
	}
	if err := Transfer(o.state, caller, address, value); err != nil {
		return address, err
	}
	ctx := &Context{
		ovm:    o,
		caller: caller,
		origin: caller,
		self:   address,
		value:  value,
		abi:    &ct.ABI,
	}
	contract, err := ct.Construct(ctx, args)
	if err != nil {
		return address, err
	}
	if err := o.state.CreateObject(address, contract); err != nil {
		return address, err
	}
	logrus.WithFields(logrus.Fields{
		"kind":    kind,
		"address": address.Hex(),
		"creator": caller.Hex(),
	}).Debug("contract created")
	return address, nil
}
