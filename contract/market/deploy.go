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
	"math/big"

	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Deploy creates a market owned by from selling units of tokenContract.
func Deploy(vm *ovm.OVM, from common.Address, price *uint256.Int, tokenContract common.Address) (*types.Receipt, error) {
	return vm.Deploy(from, Kind, nil, price.ToBig(), tokenContract)
}

// DeployUnconfigured creates a market that refuses sales until configured.
func DeployUnconfigured(vm *ovm.OVM, from common.Address) (*types.Receipt, error) {
	return vm.Deploy(from, Kind, nil, new(big.Int), common.Address{})
}
