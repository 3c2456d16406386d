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
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ReceiptStatus uint8

const (
	ReceiptStatusFailed ReceiptStatus = iota
	ReceiptStatusSuccess
)

func (s ReceiptStatus) String() string {
	if s == ReceiptStatusSuccess {
		return "success"
	}
	return "failed"
}

// Log is an event emitted by a contract. Topics[0] is the event signature
// hash, the remaining topics are the indexed arguments.
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
	TxHash  common.Hash    `json:"tx_hash"`
	Index   uint           `json:"index"`
}

// Receipt records the outcome of one top-level call.
type Receipt struct {
	TxHash          common.Hash    `json:"tx_hash"`
	Nonce           uint64         `json:"nonce"`
	From            common.Address `json:"from"`
	To              common.Address `json:"to"`
	ContractAddress common.Address `json:"contract_address"`
	Value           string         `json:"value"`
	Status          ReceiptStatus  `json:"status"`
	ReturnData      hexutil.Bytes  `json:"return_data"`
	ErrKind         string         `json:"err_kind,omitempty"`
	ErrMsg          string         `json:"err_msg,omitempty"`
	Logs            []*Log         `json:"logs"`
}

func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccess
}

// Err rebuilds the failure carried by a failed receipt.
func (r *Receipt) Err() error {
	if r.Succeeded() {
		return nil
	}
	return &ExecError{Kind: ParseErrorKind(r.ErrKind), Msg: r.ErrMsg}
}

// SetErr marks the receipt failed with err's kind and message.
func (r *Receipt) SetErr(err error) {
	r.Status = ReceiptStatusFailed
	kind := KindOf(err)
	r.ErrKind = kind.String()
	if e, ok := err.(*ExecError); ok {
		r.ErrMsg = e.Msg
	} else {
		r.ErrMsg = err.Error()
	}
}
