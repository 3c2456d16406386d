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

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

//NewTxRequest for RPC request. Data is hex calldata. An empty To with a
//Kind deploys a contract.
type NewTxRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
	Kind  string `json:"kind"`
}

//DeployRequest deploys a contract of Kind with string encoded constructor
//args.
type DeployRequest struct {
	From  string   `json:"from"`
	Kind  string   `json:"kind"`
	Value string   `json:"value"`
	Args  []string `json:"args"`
}

//CallRequest calls Method on To with string encoded args.
type CallRequest struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Value  string   `json:"value"`
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

func parseValue(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return math.FromDecimal(s)
}

func (r *RpcController) NewTransaction(c *gin.Context) {
	var txReq NewTxRequest
	if err := c.ShouldBindJSON(&txReq); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	from, err := parseAddress(txReq.From)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("from address format error: %v", err), nil)
		return
	}
	msg := &types.Message{From: from, Kind: txReq.Kind}
	if txReq.To != "" {
		to, err := parseAddress(txReq.To)
		if err != nil {
			Response(c, http.StatusBadRequest, fmt.Errorf("to address format error: %v", err), nil)
			return
		}
		msg.To = &to
	} else if txReq.Kind == "" {
		Response(c, http.StatusBadRequest, fmt.Errorf("either to or kind is required"), nil)
		return
	}
	if msg.Value, err = parseValue(txReq.Value); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("value format error: %v", err), nil)
		return
	}
	if txReq.Data != "" {
		if msg.Data, err = hexutil.Decode(txReq.Data); err != nil {
			Response(c, http.StatusBadRequest, fmt.Errorf("data not hex"), nil)
			return
		}
	}
	r.process(c, msg)
}

func (r *RpcController) Deploy(c *gin.Context) {
	var req DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("from address format error: %v", err), nil)
		return
	}
	value, err := parseValue(req.Value)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("value format error: %v", err), nil)
		return
	}
	ct, ok := ovm.LookupType(req.Kind)
	if !ok {
		Response(c, http.StatusBadRequest, fmt.Errorf("unknown contract kind %q", req.Kind), nil)
		return
	}
	args, err := ovm.ParseArgs(ct.ABI.Constructor.Inputs, req.Args)
	if err != nil {
		Response(c, http.StatusBadRequest, err, nil)
		return
	}
	input, err := ovm.PackDeployment(req.Kind, args...)
	if err != nil {
		Response(c, http.StatusBadRequest, err, nil)
		return
	}
	r.process(c, &types.Message{From: from, Value: value, Data: input, Kind: req.Kind})
}

func (r *RpcController) Call(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("request format error: %v", err), nil)
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("from address format error: %v", err), nil)
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("to address format error: %v", err), nil)
		return
	}
	value, err := parseValue(req.Value)
	if err != nil {
		Response(c, http.StatusBadRequest, fmt.Errorf("value format error: %v", err), nil)
		return
	}
	args, err := r.methodArgs(to, req.Method, req.Args)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	input, err := r.Processor.VM().PackCall(to, req.Method, args...)
	if err != nil {
		Response(c, statusOf(err), err, nil)
		return
	}
	r.process(c, &types.Message{From: from, To: &to, Value: value, Data: input})
}

// process executes msg and answers with its receipt. A failed call is still
// a 200 with the failure in the receipt.
func (r *RpcController) process(c *gin.Context, msg *types.Message) {
	receipt, err := r.Processor.Process(msg)
	if err != nil {
		Response(c, http.StatusInternalServerError, err, nil)
		return
	}
	logrus.WithFields(logrus.Fields{
		"tx":     receipt.TxHash.Hex(),
		"status": receipt.Status.String(),
	}).Debug("tx processed")
	cors(c)
	Response(c, http.StatusOK, nil, receipt)
}

