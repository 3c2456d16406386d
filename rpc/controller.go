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
package rpc

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/annchain/badium/common/goroutine"
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

const maxLatestReceipts = 100

// ClientCounter reports the clients of a push server.
type ClientCounter interface {
	Connections() int
}

type RpcController struct {
	Processor *core.TxProcessor
	Websocket ClientCounter
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// statusOf maps a failed query to a http status.
func statusOf(err error) int {
	switch types.KindOf(err) {
	case types.KindUnknownContract:
		return http.StatusNotFound
	case types.KindUnknown:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

type NodeStatus struct {
	Processor core.ProcessorStatus `json:"processor"`
	Kinds     []string             `json:"contract_kinds"`
	Requests  uint64               `json:"requests"`
	Routines  int32                `json:"goroutines"`
	Clients   int                  `json:"websocket_clients"`
}

//Status node status
func (r *RpcController) Status(c *gin.Context) {
	cors(c)
	status := NodeStatus{
		Processor: r.Processor.Status(),
		Kinds:     ovm.Kinds(),
		Requests:  RequestCount(),
		Routines:  goroutine.GetGoRoutineNum(),
	}
	if r.Websocket != nil {
		status.Clients = r.Websocket.Connections()
	}
	Response(c, http.StatusOK, nil, status)
}

func (r *RpcController) QueryNonce(c *gin.Context) {
	addr, err := parseAddress(c.Query("address"))
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("address format err: %v", err), nil)
		return
	}
	cors(c)
	Response(c, http.StatusOK, nil, gin.H{
		"address": addr.Hex(),
		"nonce":   r.Processor.VM().StateDB().GetNonce(addr),
	})
}

func (r *RpcController) QueryBalance(c *gin.Context) {
	addr, err := parseAddress(c.Query("address"))
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("address format err: %v", err), nil)
		return
	}
	cors(c)
	Response(c, http.StatusOK, nil, gin.H{
		"address": addr.Hex(),
		"balance": r.Processor.VM().StateDB().GetBalance(addr).Dec(),
	})
}

func (r *RpcController) QueryReceipt(c *gin.Context) {
	hashBytes, err := hexutil.Decode(c.Query("hash"))
	if err != nil || len(hashBytes) != common.HashLength {
		Response(c, http.StatusBadRequest, fmt.Errorf("hash not hex"), nil)
		return
	}
	receipt, err := r.Processor.Accessor().ReadReceipt(common.BytesToHash(hashBytes))
	if err != nil {
		Response(c, http.StatusInternalServerError, err, nil)
		return
	}
	if receipt == nil {
		Response(c, http.StatusNotFound, fmt.Errorf("can't find receipt"), nil)
		return
	}
	cors(c)
	Response(c, http.StatusOK, nil, receipt)
}

func (r *RpcController) LatestReceipts(c *gin.Context) {
	n := 10
	if s := c.Query("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			Response(c, http.StatusBadRequest, fmt.Errorf("n format err: %q", s), nil)
			return
		}
		n = v
	}
	if n > maxLatestReceipts {
		n = maxLatestReceipts
	}
	receipts, err := r.Processor.Accessor().LatestReceipts(n)
	if err != nil {
		Response(c, http.StatusInternalServerError, err, nil)
		return
	}
	cors(c)
	Response(c, http.StatusOK, nil, receipts)
}

type QueryRequest struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

// Query runs a view method and returns its decoded outputs.
func (r *RpcController) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	var from common.Address
	if req.From != "" {
		addr, err := parseAddress(req.From)
		if err != nil {
			Response(c, http.StatusBadRequest, fmt.Errorf("from address format error: %v", err), nil)
			return
		}
		from = addr
	}
	to, err := parseAddress(req.To)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("to address format error: %v", err), nil)
		return
	}
	vm := r.Processor.VM()
	args, err := r.methodArgs(to, req.Method, req.Args)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	out, err := vm.Query(from, to, req.Method, args...)
	if err != nil {
		Response(c, statusOf(err), fmt.Errorf("query contract error: %v", err), nil)
		return
	}
	cors(c)
	Response(c, http.StatusOK, nil, ovm.FormatValues(out))
}

func (r *RpcController) methodArgs(to common.Address, method string, raw []string) ([]interface{}, error) {
	ct, err := r.Processor.VM().ContractABI(to)
	if err != nil {
		return nil, err
	}
	m, ok := ct.ABI.Methods[method]
	if !ok {
		return nil, types.NewExecError(types.KindUnknownMethod, "%s has no method %s", ct.Kind, method)
	}
	return ovm.ParseArgs(m.Inputs, raw)
}

type ArgumentDesc struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

type MethodDesc struct {
	Name       string         `json:"name"`
	Signature  string         `json:"signature"`
	Selector   string         `json:"selector"`
	Mutability string         `json:"state_mutability"`
	Inputs     []ArgumentDesc `json:"inputs"`
	Outputs    []ArgumentDesc `json:"outputs"`
}

type EventDesc struct {
	Name      string         `json:"name"`
	Signature string         `json:"signature"`
	Topic     string         `json:"topic"`
	Inputs    []ArgumentDesc `json:"inputs"`
}

type ContractABIResponse struct {
	Address     string         `json:"address"`
	Kind        string         `json:"kind"`
	Constructor []ArgumentDesc `json:"constructor"`
	Methods     []MethodDesc   `json:"methods"`
	Events      []EventDesc    `json:"events"`
}

func describeArguments(args abi.Arguments) []ArgumentDesc {
	out := make([]ArgumentDesc, 0, len(args))
	for _, a := range args {
		out = append(out, ArgumentDesc{Name: a.Name, Type: a.Type.String(), Indexed: a.Indexed})
	}
	return out
}

// ContractABI describes the methods and events of the contract at address.
func (r *RpcController) ContractABI(c *gin.Context) {
	addr, err := parseAddress(c.Query("address"))
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("address format err: %v", err), nil)
		return
	}
	ct, err := r.Processor.VM().ContractABI(addr)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	resp := ContractABIResponse{
		Address:     addr.Hex(),
		Kind:        ct.Kind,
		Constructor: describeArguments(ct.ABI.Constructor.Inputs),
	}
	for _, m := range ct.ABI.Methods {
		resp.Methods = append(resp.Methods, MethodDesc{
			Name:       m.Name,
			Signature:  m.Sig,
			Selector:   hexutil.Encode(m.ID),
			Mutability: m.StateMutability,
			Inputs:     describeArguments(m.Inputs),
			Outputs:    describeArguments(m.Outputs),
		})
	}
	for _, e := range ct.ABI.Events {
		resp.Events = append(resp.Events, EventDesc{
			Name:      e.Name,
			Signature: e.Sig,
			Topic:     e.ID.Hex(),
			Inputs:    describeArguments(e.Inputs),
		})
	}
	sort.Slice(resp.Methods, func(i, j int) bool { return resp.Methods[i].Name < resp.Methods[j].Name })
	sort.Slice(resp.Events, func(i, j int) bool { return resp.Events[i].Name < resp.Events[j].Name })
	cors(c)
	Response(c, http.StatusOK, nil, resp)
}

func Response(c *gin.Context, status int, err error, data interface{}) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"err":  msg,
		"data": data,
	})
}
