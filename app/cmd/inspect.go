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
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/node"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [address]",
	Short: "Dump accounts and contracts of the local ledger",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		readConfig()
		initLogger()

		var target *common.Address
		if len(args) == 1 {
			if !common.IsHexAddress(args[0]) {
				utilfuncs.PanicIfError(fmt.Errorf("invalid address %q", args[0]), "inspect")
			}
			addr := common.HexToAddress(args[0])
			target = &addr
		}

		c, err := node.ConfigFromViper()
		utilfuncs.PanicIfError(err, "node config")
		c.RpcEnabled = false
		c.WebsocketEnabled = false
		n, err := node.NewNode(c)
		utilfuncs.PanicIfError(err, "init node")
		defer n.Stop()

		inspectLedger(os.Stdout, n.Processor.VM().StateDB(), target)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// inspectLedger writes every account and contract, or only those at target.
func inspectLedger(w io.Writer, sd *state.StateDB, target *common.Address) {
	match := func(addr common.Address) bool {
		return target == nil || *target == addr
	}
	fmt.Fprintln(w, "accounts:")
	sd.ForEachAccount(func(addr common.Address, balance *uint256.Int, nonce uint64) bool {
		if match(addr) {
			fmt.Fprintf(w, "  %s balance=%s nonce=%d\n", addr.Hex(), balance.Dec(), nonce)
		}
		return true
	})
	fmt.Fprintln(w, "contracts:")
	sd.ForEachObject(func(addr common.Address, obj state.Object) bool {
		if match(addr) {
			fmt.Fprintf(w, "  %s kind=%s\n", addr.Hex(), obj.Kind())
			dumper.Fdump(w, obj)
		}
		return true
	})
}
