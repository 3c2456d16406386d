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
package node

import (
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/annchain/badium/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testConfig(dbName, dataDir string) *Config {
	return &Config{
		DBName:           dbName,
		DataDir:          dataDir,
		RpcEnabled:       true,
		RpcPort:          "0",
		WebsocketEnabled: true,
		WebsocketPort:    "0",
		Genesis:          core.DefaultGenesis(),
	}
}

func TestNodeStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n, err := NewNode(testConfig("memory", ""))
	require.NoError(t, err)
	require.NoError(t, n.Start())

	_, port, err := net.SplitHostPort(n.Rpc.Addr())
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://127.0.0.1:" + port + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	to := common.HexToAddress("0x1600000000000000000000000000000000000016")
	receipt, err := n.Processor.Transfer(core.DevAccount, to, uint256.NewInt(3))
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())

	n.Stop()
}

func TestGenesisAppliedOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	c := testConfig("leveldb", dir)
	c.RpcEnabled = false
	c.WebsocketEnabled = false

	n, err := NewNode(c)
	require.NoError(t, err)
	to := common.HexToAddress("0x1700000000000000000000000000000000000017")
	_, err = n.Processor.Transfer(core.DevAccount, to, uint256.NewInt(10))
	require.NoError(t, err)
	n.Stop()

	n, err = NewNode(c)
	require.NoError(t, err)
	defer n.Stop()
	sd := n.Processor.VM().StateDB()
	assert.Equal(t, uint256.NewInt(10), sd.GetBalance(to))
	expected := new(uint256.Int).Sub(c.Genesis.Alloc[core.DevAccount], uint256.NewInt(10))
	assert.Equal(t, expected, sd.GetBalance(core.DevAccount))
	assert.Equal(t, uint64(1), n.Processor.Accessor().ReceiptCount())
}

func TestConfigFromViper(t *testing.T) {
	viper.Set("genesis.alloc", map[string]interface{}{
		"0x1800000000000000000000000000000000000018": "500",
	})
	defer viper.Set("genesis.alloc", nil)

	c, err := ConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, "leveldb", c.DBName)
	assert.Equal(t, "8000", c.RpcPort)
	assert.Equal(t, uint256.NewInt(500), c.Genesis.Alloc[common.HexToAddress("0x1800000000000000000000000000000000000018")])
}
