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
package market

import (
	"strings"

	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/contract/ownable"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Kind is the registered contract kind of the Market.
const Kind = "market"

const ABIJson = `[
{"type":"constructor","inputs":[{"name":"tokenPrice","type":"uint256"},{"name":"tokenContract","type":"address"}],"stateMutability":"nonpayable"},
{"type":"function","name":"tokenPrice","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
{"type":"function","name":"tokenContract","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
{"type":"function","name":"computePrice","inputs":[{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
{"type":"function","name":"buy","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"payable"},
{"type":"function","name":"setTokenPrice","inputs":[{"name":"newPrice","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"withdraw","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"configure","inputs":[{"name":"tokenPrice","type":"uint256"},{"name":"tokenContract","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"event","name":"TokensPurchased","anonymous":false,"inputs":[{"name":"buyer","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"price","type":"uint256","indexed":false},{"name":"paid","type":"uint256","indexed":false}]},
{"type":"event","name":"TokenPriceChanged","anonymous":false,"inputs":[{"name":"oldPrice","type":"uint256","indexed":false},{"name":"newPrice","type":"uint256","indexed":false}]},
{"type":"event","name":"Withdrawn","anonymous":false,"inputs":[{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
` + ownable.ABIFragment + `
]`

var ABI = utilfuncs.Must(abi.JSON(strings.NewReader(ABIJson)))

func init() {
	ovm.Register(&ovm.ContractType{
		Kind:      Kind,
		ABI:       ABI,
		Construct: construct,
		Decode: func(data []byte) (ovm.Contract, error) {
			m := &Market{}
			if _, err := m.UnmarshalMsg(data); err != nil {
				return nil, err
			}
			return m, nil
		},
	})
}
