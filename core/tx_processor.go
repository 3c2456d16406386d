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
package core

import (
	"sync"

	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// receiptLog gets one line per processed message.
var receiptLog = logrus.StandardLogger()

// SetReceiptLogger routes the per message lines to l. Call it before any
// message is processed.
func SetReceiptLogger(l *logrus.Logger) {
	receiptLog = l
}

// TxProcessor executes messages on the OVM, stores their receipts and
// forwards every receipt to the registered channels.
type TxProcessor struct {
	vm       *ovm.OVM
	accessor *Accessor

	mu           sync.RWMutex
	onNewReceipt map[string]chan *types.Receipt

	processed atomic.Uint64
	failed    atomic.Uint64
}

func NewTxProcessor(vm *ovm.OVM, accessor *Accessor) *TxProcessor {
	return &TxProcessor{
		vm:           vm,
		accessor:     accessor,
		onNewReceipt: make(map[string]chan *types.Receipt),
	}
}

func (p *TxProcessor) Name() string {
	return "TxProcessor"
}

func (p *TxProcessor) VM() *ovm.OVM {
	return p.vm
}

func (p *TxProcessor) Accessor() *Accessor {
	return p.accessor
}

// RegisterOnNewReceipt subscribes c to new receipts. Sends never block: a
// receipt is dropped for a subscriber whose channel is full.
func (p *TxProcessor) RegisterOnNewReceipt(c chan *types.Receipt, chanName string) {
	logrus.Tracef("RegisterOnNewReceipt with chan: %s", chanName)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNewReceipt[chanName] = c
}

func (p *TxProcessor) UnregisterOnNewReceipt(chanName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.onNewReceipt, chanName)
}

// Process executes msg, stores the receipt and notifies subscribers. Call
// failures are reported by the receipt, the error is set for storage
// failures only.
func (p *TxProcessor) Process(msg *types.Message) (*types.Receipt, error) {
	receipt, err := p.vm.Execute(msg)
	if err != nil {
		logrus.WithError(err).Error("execute message")
		return nil, err
	}
	if err := p.accessor.WriteReceipt(receipt); err != nil {
		logrus.WithError(err).WithField("tx", receipt.TxHash.Hex()).Error("store receipt")
		return nil, err
	}
	p.processed.Inc()
	if !receipt.Succeeded() {
		p.failed.Inc()
	}
	receiptLog.WithFields(logrus.Fields{
		"tx":     receipt.TxHash.Hex(),
		"from":   receipt.From.Hex(),
		"status": receipt.Status.String(),
	}).Debug("message processed")
	p.notify(receipt)
	return receipt, nil
}

// Deploy deploys a contract of kind with constructor args.
func (p *TxProcessor) Deploy(from common.Address, kind string, value *uint256.Int, args ...interface{}) (*types.Receipt, error) {
	input, err := ovm.PackDeployment(kind, args...)
	if err != nil {
		return nil, err
	}
	return p.Process(&types.Message{From: from, Value: value, Data: input, Kind: kind})
}

// Invoke calls method on the contract at to.
func (p *TxProcessor) Invoke(from, to common.Address, value *uint256.Int, method string, args ...interface{}) (*types.Receipt, error) {
	input, err := p.vm.PackCall(to, method, args...)
	if err != nil {
		return nil, err
	}
	return p.Process(&types.Message{From: from, To: &to, Value: value, Data: input})
}

// Transfer sends native currency with no calldata.
func (p *TxProcessor) Transfer(from, to common.Address, value *uint256.Int) (*types.Receipt, error) {
	return p.Process(&types.Message{From: from, To: &to, Value: value})
}

func (p *TxProcessor) notify(receipt *types.Receipt) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, c := range p.onNewReceipt {
		select {
		case c <- receipt:
		default:
			logrus.WithField("chan", name).Warn("receipt subscriber is full, receipt dropped")
		}
	}
}

// ProcessorStatus counts the messages processed since start.
type ProcessorStatus struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Receipts  uint64 `json:"receipts"`
}

func (p *TxProcessor) Status() ProcessorStatus {
	return ProcessorStatus{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Receipts:  p.accessor.ReceiptCount(),
	}
}
