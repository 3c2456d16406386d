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
package rpc_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/annchain/badium/contract/market"
	"github.com/annchain/badium/contract/token"
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/rpc"
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const other = "0x1400000000000000000000000000000000000014"

type envelope struct {
	Err  string          `json:"err"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	db := ogdb.NewMemDatabase()
	sd, err := state.NewStateDB(db)
	require.NoError(t, err)
	acc, err := core.NewAccessor(db, 16)
	require.NoError(t, err)
	_, err = core.SetupGenesis(sd, acc, core.DefaultGenesis())
	require.NoError(t, err)
	c := &rpc.RpcController{Processor: core.NewTxProcessor(ovm.NewOVM(sd), acc)}
	return &testServer{t: t, router: c.NewRouter()}
}

func (s *testServer) do(method, path string, body interface{}) (int, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	if w.Header().Get("Content-Type") != "text/html" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) receipt(method, path string, body interface{}) *types.Receipt {
	code, env := s.do(method, path, body)
	require.Equal(s.t, http.StatusOK, code, env.Err)
	var r types.Receipt
	require.NoError(s.t, json.Unmarshal(env.Data, &r))
	return &r
}

func (s *testServer) deployToken() string {
	r := s.receipt(http.MethodPost, "/deploy", rpc.DeployRequest{
		From: core.DevAccount.Hex(),
		Kind: token.Kind,
		Args: []string{"Badium", "BAD", "18", "1000", "0x0000000000000000000000000000000000000000"},
	})
	require.True(s.t, r.Succeeded(), r.ErrMsg)
	return r.ContractAddress.Hex()
}

func TestPingAndStatus(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(rpc.RequestIdHeader))

	code, env := s.do(http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, code)
	var status rpc.NodeStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Contains(t, status.Kinds, token.Kind)
	assert.Contains(t, status.Kinds, "market")
}

func TestQueryBalanceAndNonce(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodGet, "/query_balance?address="+core.DevAccount.Hex(), nil)
	require.Equal(t, http.StatusOK, code)
	var balance struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &balance))
	assert.Equal(t, core.DefaultGenesis().Alloc[core.DevAccount].Dec(), balance.Balance)

	code, env = s.do(http.MethodGet, "/query_nonce?address=nothex", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, env.Err)
}

func TestNewTransactionTransfer(t *testing.T) {
	s := newTestServer(t)
	r := s.receipt(http.MethodPost, "/new_transaction", rpc.NewTxRequest{
		From:  core.DevAccount.Hex(),
		To:    other,
		Value: "12345",
	})
	assert.True(t, r.Succeeded())
	assert.Equal(t, uint64(0), r.Nonce)

	code, env := s.do(http.MethodGet, "/query_balance?address="+other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"12345"`)

	code, env = s.do(http.MethodGet, "/query_nonce?address="+core.DevAccount.Hex(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"nonce":1`)

	code, _ = s.do(http.MethodPost, "/new_transaction", rpc.NewTxRequest{From: core.DevAccount.Hex()})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDeployCallQuery(t *testing.T) {
	s := newTestServer(t)
	ledger := s.deployToken()

	code, env := s.do(http.MethodPost, "/query", rpc.QueryRequest{To: ledger, Method: "totalSupply"})
	require.Equal(t, http.StatusOK, code, env.Err)
	assert.JSONEq(t, `["1000"]`, string(env.Data))

	r := s.receipt(http.MethodPost, "/call", rpc.CallRequest{
		From:   core.DevAccount.Hex(),
		To:     ledger,
		Method: "transfer",
		Args:   []string{other, "5"},
	})
	assert.True(t, r.Succeeded())
	require.Len(t, r.Logs, 1)

	// not a registered receiver, reported in the receipt
	r = s.receipt(http.MethodPost, "/call", rpc.CallRequest{
		From:   other,
		To:     ledger,
		Method: "transfer",
		Args:   []string{core.DevAccount.Hex(), "1"},
	})
	assert.False(t, r.Succeeded())
	assert.Equal(t, "RecipientNotEligible", r.ErrKind)

	code, env = s.do(http.MethodGet, "/query_receipt?hash="+r.TxHash.Hex(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "RecipientNotEligible")

	code, _ = s.do(http.MethodPost, "/call", rpc.CallRequest{From: other, To: ledger, Method: "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/query", rpc.QueryRequest{To: other, Method: "totalSupply"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodPost, "/call", rpc.CallRequest{From: other, To: ledger, Method: "transfer", Args: []string{other}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueryReceiptNotFound(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(http.MethodGet, "/query_receipt?hash=0x"+string(bytes.Repeat([]byte("ab"), 32)), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/query_receipt?hash=zz", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLatestReceiptsAndABI(t *testing.T) {
	s := newTestServer(t)
	ledger := s.deployToken()

	code, env := s.do(http.MethodGet, "/latest_receipts?n=5", nil)
	require.Equal(t, http.StatusOK, code)
	var receipts []*types.Receipt
	require.NoError(t, json.Unmarshal(env.Data, &receipts))
	require.Len(t, receipts, 1)

	code, env = s.do(http.MethodGet, "/contract_abi?address="+ledger, nil)
	require.Equal(t, http.StatusOK, code)
	var desc rpc.ContractABIResponse
	require.NoError(t, json.Unmarshal(env.Data, &desc))
	assert.Equal(t, token.Kind, desc.Kind)
	assert.Len(t, desc.Constructor, 5)
	var names []string
	for _, m := range desc.Methods {
		names = append(names, m.Name)
		if m.Name == "transfer" {
			assert.Equal(t, "0xa9059cbb", m.Selector)
		}
	}
	assert.Contains(t, names, "burnAll")
	assert.Contains(t, names, "transferOwnership")
}
