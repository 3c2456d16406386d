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
	"github.com/annchain/badium/core/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type (
	balanceChange struct {
		b       *Badium
		self    common.Address
		account common.Address
		prev    balanceEntry
		existed bool
	}
	allowanceChange struct {
		b       *Badium
		self    common.Address
		owner   common.Address
		spender common.Address
		prev    *uint256.Int
	}
	supplyChange struct {
		b         *Badium
		self      common.Address
		prevTotal *uint256.Int
		prevEpoch uint64
	}
	receiverAddChange struct {
		b       *Badium
		self    common.Address
		account common.Address
	}
	receiverRemoveChange struct {
		b       *Badium
		self    common.Address
		account common.Address
		slot    int
	}
)

func (ch balanceChange) Revert(*state.StateDB) {
	if ch.existed {
		ch.b.balances[ch.account] = ch.prev
	} else {
		delete(ch.b.balances, ch.account)
	}
}

func (ch balanceChange) Dirtied() *common.Address { return &ch.self }

func (ch allowanceChange) Revert(*state.StateDB) {
	ch.b.putAllowance(ch.owner, ch.spender, ch.prev)
}

func (ch allowanceChange) Dirtied() *common.Address { return &ch.self }

func (ch supplyChange) Revert(*state.StateDB) {
	ch.b.totalSupply = ch.prevTotal
	ch.b.epoch = ch.prevEpoch
}

func (ch supplyChange) Dirtied() *common.Address { return &ch.self }

func (ch receiverAddChange) Revert(*state.StateDB) {
	ch.b.receivers.Remove(ch.account)
}

func (ch receiverAddChange) Dirtied() *common.Address { return &ch.self }

func (ch receiverRemoveChange) Revert(*state.StateDB) {
	ch.b.receivers.restore(ch.account, ch.slot)
}

func (ch receiverRemoveChange) Dirtied() *common.Address { return &ch.self }
