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
	"math/big"

	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Deploy creates a ledger owned by from with an empty supply.
func Deploy(vm *ovm.OVM, from common.Address, name, symbol string, decimals uint8) (*types.Receipt, error) {
	return vm.Deploy(from, Kind, nil, name, symbol, decimals, new(big.Int), common.Address{})
}

// DeployWithSupply creates a ledger owned by owner, holding the whole
// initial supply.
func DeployWithSupply(vm *ovm.OVM, from common.Address, name, symbol string, decimals uint8, supply *uint256.Int, owner common.Address) (*types.Receipt, error) {
	return vm.Deploy(from, Kind, nil, name, symbol, decimals, supply.ToBig(), owner)
}
