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

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/contract/market"
	"github.com/annchain/badium/contract/token"
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/node"
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DeployOptions describes the token and market created by the deploy command.
// Supplies are whole tokens, TokenPrice is native units per whole token.
type DeployOptions struct {
	From          common.Address
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply uint64
	TokenPrice    *uint256.Int
	MarketSupply  uint64
}

type DeployResult struct {
	Token  common.Address
	Market common.Address
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the Badium token and its Market",
	Long:  `Deploy the Badium token with its initial supply and a Market selling it, on the local ledger`,
	Run: func(cmd *cobra.Command, args []string) {
		readConfig()
		initLogger()
		ensureFolder()

		opts, err := deployOptionsFromViper()
		utilfuncs.PanicIfError(err, "deploy options")

		c, err := node.ConfigFromViper()
		utilfuncs.PanicIfError(err, "node config")
		c.RpcEnabled = false
		c.WebsocketEnabled = false
		n, err := node.NewNode(c)
		utilfuncs.PanicIfError(err, "init node")
		defer n.Stop()

		res, err := deployBadium(n.Processor, opts)
		utilfuncs.PanicIfError(err, "deploy")
		fmt.Println("Badium deployed to:", res.Token.Hex())
		fmt.Println("Market deployed to:", res.Market.Hex())
	},
}

func init() {
	viper.SetDefault("deploy.name", "Badium")
	viper.SetDefault("deploy.symbol", "BAD")
	viper.SetDefault("deploy.decimals", 18)
	viper.SetDefault("deploy.initial_supply", 10000000)
	viper.SetDefault("deploy.token_price", "10000000000000000")
	viper.SetDefault("deploy.market_supply", 0)
	viper.SetDefault("deploy.from", core.DevAccount.Hex())

	deployCmd.Flags().String("from", core.DevAccount.Hex(), "Deployer and owner of both contracts")
	deployCmd.Flags().Uint64("market_supply", 0, "Whole tokens moved to the Market after deployment")
	_ = viper.BindPFlag("deploy.from", deployCmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("deploy.market_supply", deployCmd.Flags().Lookup("market_supply"))

	rootCmd.AddCommand(deployCmd)
}

func deployOptionsFromViper() (DeployOptions, error) {
	opts := DeployOptions{
		Name:          viper.GetString("deploy.name"),
		Symbol:        viper.GetString("deploy.symbol"),
		InitialSupply: viper.GetUint64("deploy.initial_supply"),
		MarketSupply:  viper.GetUint64("deploy.market_supply"),
	}
	decimals := viper.GetUint("deploy.decimals")
	if decimals > math.MaxDecimals {
		return opts, fmt.Errorf("decimals %d out of range", decimals)
	}
	opts.Decimals = uint8(decimals)

	from := viper.GetString("deploy.from")
	if !common.IsHexAddress(from) {
		return opts, fmt.Errorf("invalid deployer address %q", from)
	}
	opts.From = common.HexToAddress(from)

	price, err := uint256.FromDecimal(viper.GetString("deploy.token_price"))
	if err != nil {
		return opts, errors.Wrap(err, "parse deploy.token_price")
	}
	opts.TokenPrice = price
	return opts, nil
}

// deployBadium deploys the token with its whole supply owned by the deployer,
// a Market configured to sell it, and optionally stocks the Market.
func deployBadium(p *core.TxProcessor, opts DeployOptions) (*DeployResult, error) {
	supply, err := math.Units(opts.InitialSupply, opts.Decimals)
	if err != nil {
		return nil, err
	}
	receipt, err := p.Deploy(opts.From, token.Kind, nil,
		opts.Name, opts.Symbol, opts.Decimals, supply.ToBig(), opts.From)
	if err = receiptErr(receipt, err); err != nil {
		return nil, errors.Wrap(err, "deploy token")
	}
	res := &DeployResult{Token: receipt.ContractAddress}
	log.WithField("address", res.Token.Hex()).Info("token deployed")

	receipt, err = p.Deploy(opts.From, market.Kind, nil, opts.TokenPrice.ToBig(), res.Token)
	if err = receiptErr(receipt, err); err != nil {
		return nil, errors.Wrap(err, "deploy market")
	}
	res.Market = receipt.ContractAddress
	log.WithField("address", res.Market.Hex()).Info("market deployed")

	if opts.MarketSupply > 0 {
		stock, err := math.Units(opts.MarketSupply, opts.Decimals)
		if err != nil {
			return nil, err
		}
		receipt, err = p.Invoke(opts.From, res.Token, nil, "transfer", res.Market, stock.ToBig())
		if err = receiptErr(receipt, err); err != nil {
			return nil, errors.Wrap(err, "stock market")
		}
		log.WithField("amount", stock.Dec()).Info("market stocked")
	}
	return res, nil
}

func receiptErr(receipt *types.Receipt, err error) error {
	if err != nil {
		return err
	}
	return receipt.Err()
}
