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
package token

import (
	"strings"

	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/contract/ownable"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Kind is the registered contract kind of the Badium ledger.
const Kind = "badium"

const ABIJson = `[
{"type":"constructor","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"decimals","type":"uint8"},{"name":"initialSupply","type":"uint256"},{"name":"initialOwner","type":"address"}],"stateMutability":"nonpayable"},
{"type":"function","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
{"type":"function","name":"symbol","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
{"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"},
{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
{"type":"function","name":"allowance","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
{"type":"function","name":"transferFrom","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"burnAll","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"addReceiver","inputs":[{"name":"account","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"removeReceiver","inputs":[{"name":"account","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"canReceive","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
{"type":"function","name":"nbReceivers","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
{"type":"function","name":"getReceiverAtIndex","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
{"type":"event","name":"ReceiverAdded","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":true}]},
{"type":"event","name":"ReceiverRemoved","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":true}]},
{"type":"event","name":"SupplyReset","anonymous":false,"inputs":[{"name":"epoch","type":"uint64","indexed":false},{"name":"burned","type":"uint256","indexed":false}]},
` + ownable.ABIFragment + `
]`

var ABI = utilfuncs.Must(abi.JSON(strings.NewReader(ABIJson)))

func init() {
	ovm.Register(&ovm.ContractType{
		Kind:      Kind,
		ABI:       ABI,
		Construct: construct,
		Decode: func(data []byte) (ovm.Contract, error) {
			b := newBadium()
			if _, err := b.UnmarshalMsg(data); err != nil {
				return nil, err
			}
			return b, nil
		},
	})
}
