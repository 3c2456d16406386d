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
	"os"
	"os/signal"
	"syscall"

	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/node"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a node",
	Long:  `Start a node serving the ledger over http and websocket`,
	Run: func(cmd *cobra.Command, args []string) {
		// init logs and other facilities before the node starts
		readConfig()
		initLogger()
		ensureFolder()

		pid := os.Getpid()
		log.WithField("with id ", pid).Info("Node Starting")
		c, err := node.ConfigFromViper()
		utilfuncs.PanicIfError(err, "node config")
		n, err := node.NewNode(c)
		utilfuncs.PanicIfError(err, "init node")
		writeConfig()
		utilfuncs.PanicIfError(n.Start(), "start node")

		// prevent sudden stop. Do your clean up here
		var gracefulStop = make(chan os.Signal, 1)

		signal.Notify(gracefulStop, syscall.SIGTERM)
		signal.Notify(gracefulStop, syscall.SIGINT)

		sig := <-gracefulStop
		log.Warnf("caught sig: %+v", sig)
		log.Warn("Exiting... Please do no kill me")
		n.Stop()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
