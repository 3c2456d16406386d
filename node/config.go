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
	"github.com/annchain/badium/common/files"
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/ogdb"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config selects the storage and servers of a node.
type Config struct {
	DBName    string
	DataDir   string
	DBCache   int
	DBHandles int

	ReceiptCacheSize int

	RpcEnabled       bool
	RpcPort          string
	WebsocketEnabled bool
	WebsocketPort    string

	Genesis *core.Genesis
}

func init() {
	viper.SetDefault("db.name", "leveldb")
	viper.SetDefault("db.cache", 16)
	viper.SetDefault("db.handles", 16)
	viper.SetDefault("receipts.cache_size", core.DefaultReceiptCacheSize)
	viper.SetDefault("rpc.enabled", true)
	viper.SetDefault("rpc.port", "8000")
	viper.SetDefault("websocket.enabled", true)
	viper.SetDefault("websocket.port", "8002")
}

// ConfigFromViper reads the node settings. genesis.alloc maps hex addresses
// to decimal amounts; without it the default genesis is used.
func ConfigFromViper() (*Config, error) {
	c := &Config{
		DBName:           viper.GetString("db.name"),
		DataDir:          files.FixPrefixPath(viper.GetString("dir.root"), viper.GetString("dir.data")),
		DBCache:          viper.GetInt("db.cache"),
		DBHandles:        viper.GetInt("db.handles"),
		ReceiptCacheSize: viper.GetInt("receipts.cache_size"),
		RpcEnabled:       viper.GetBool("rpc.enabled"),
		RpcPort:          viper.GetString("rpc.port"),
		WebsocketEnabled: viper.GetBool("websocket.enabled"),
		WebsocketPort:    viper.GetString("websocket.port"),
	}
	alloc := viper.GetStringMapString("genesis.alloc")
	if len(alloc) == 0 {
		c.Genesis = core.DefaultGenesis()
		return c, nil
	}
	g, err := core.ParseGenesisAlloc(alloc)
	if err != nil {
		return nil, err
	}
	c.Genesis = g
	return c, nil
}

// CreateDB opens the database named by c.DBName. Anything other than
// leveldb is an in-memory store.
func CreateDB(c *Config) (ogdb.Database, error) {
	switch c.DBName {
	case "leveldb":
		if err := files.MkDirIfNotExists(c.DataDir); err != nil {
			return nil, errors.Wrapf(err, "create data dir %s", c.DataDir)
		}
		return ogdb.NewLevelDB(c.DataDir, c.DBCache, c.DBHandles)
	default:
		return ogdb.NewMemDatabase(), nil
	}
}
