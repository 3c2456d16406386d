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
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/rpc"
	"github.com/annchain/badium/vm/ovm"
	"github.com/annchain/badium/wserver"
	"github.com/sirupsen/logrus"

	// contract kinds served by the node
	_ "github.com/annchain/badium/contract/market"
	_ "github.com/annchain/badium/contract/token"
)

// Component is a long running service of the node.
type Component interface {
	Start() error
	Stop()
	Name() string
}

// Node is the basic entrypoint for all modules to start.
type Node struct {
	Components []Component

	DB        ogdb.Database
	Processor *core.TxProcessor
	Rpc       *rpc.RpcServer
	Websocket *wserver.Server

	started []Component
}

// NewNode opens the database, applies the genesis on first start and wires
// the servers enabled in c.
func NewNode(c *Config) (*Node, error) {
	db, err := CreateDB(c)
	if err != nil {
		return nil, err
	}
	n, err := newNode(c, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

func newNode(c *Config, db ogdb.Database) (*Node, error) {
	sd, err := state.NewStateDB(db)
	if err != nil {
		return nil, err
	}
	accessor, err := core.NewAccessor(db, c.ReceiptCacheSize)
	if err != nil {
		return nil, err
	}
	applied, err := core.SetupGenesis(sd, accessor, c.Genesis)
	if err != nil {
		return nil, err
	}
	if applied {
		logrus.WithField("accounts", len(c.Genesis.Alloc)).Info("genesis applied")
	}

	n := &Node{
		DB:        db,
		Processor: core.NewTxProcessor(ovm.NewOVM(sd), accessor),
	}
	// Order matters: the websocket server must listen before the rpc server
	// produces receipts.
	if c.WebsocketEnabled {
		n.Websocket = wserver.NewServer(":"+c.WebsocketPort, n.Processor.VM())
		n.Processor.RegisterOnNewReceipt(n.Websocket.NewReceiptChan, n.Websocket.Name())
		n.Components = append(n.Components, n.Websocket)
	}
	if c.RpcEnabled {
		controller := &rpc.RpcController{Processor: n.Processor}
		if n.Websocket != nil {
			controller.Websocket = n.Websocket
		}
		n.Rpc = rpc.NewRpcServer(c.RpcPort, controller)
		n.Components = append(n.Components, n.Rpc)
	}
	return n, nil
}

func (n *Node) Start() error {
	logrus.WithField("host", getHostname()).Info("Node Starting")
	for _, component := range n.Components {
		logrus.Infof("Starting %s", component.Name())
		if err := component.Start(); err != nil {
			logrus.WithError(err).Errorf("Failed to start %s", component.Name())
			n.Stop()
			return err
		}
		n.started = append(n.started, component)
		logrus.Infof("Started: %s", component.Name())
	}
	logrus.Info("Node Started")
	return nil
}

// Stop stops the started components in reverse order and closes the
// database.
func (n *Node) Stop() {
	for i := len(n.started) - 1; i >= 0; i-- {
		comp := n.started[i]
		logrus.Infof("Stopping %s", comp.Name())
		comp.Stop()
		logrus.Infof("Stopped: %s", comp.Name())
	}
	n.started = nil
	if n.Websocket != nil {
		n.Processor.UnregisterOnNewReceipt(n.Websocket.Name())
	}
	n.DB.Close()
	logrus.Info("Node Stopped")
}
