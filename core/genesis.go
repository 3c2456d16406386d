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
package core

import (
	"sort"

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/core/state"
	"github.com/annchain/badium/ogdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var genesisKey = []byte("genesis")

// DevAccount is funded by DefaultGenesis.
var DevAccount = common.HexToAddress("0x643d534e15a315173a3c18cd13c9f95c7484a9bc")

// Genesis is the native currency allocation written on first start.
type Genesis struct {
	Alloc map[common.Address]*uint256.Int
}

// DefaultGenesis funds DevAccount with one million whole units of 18
// decimals.
func DefaultGenesis() *Genesis {
	return &Genesis{Alloc: map[common.Address]*uint256.Int{
		DevAccount: utilfuncs.Must(math.Units(1000000, 18)),
	}}
}

// ParseGenesisAlloc builds a Genesis from hex addresses mapped to decimal
// amounts.
func ParseGenesisAlloc(alloc map[string]string) (*Genesis, error) {
	g := &Genesis{Alloc: make(map[common.Address]*uint256.Int, len(alloc))}
	for addr, amount := range alloc {
		if !common.IsHexAddress(addr) {
			return nil, errors.Errorf("genesis: invalid address %q", addr)
		}
		v, err := math.FromDecimal(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis: amount of %s", addr)
		}
		g.Alloc[common.HexToAddress(addr)] = v
	}
	return g, nil
}

func (g *Genesis) addresses() []common.Address {
	addrs := make([]common.Address, 0, len(g.Alloc))
	for addr := range g.Alloc {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	return addrs
}

// ReadGenesis returns the allocation applied to the database, or nil if the
// database has never been initialized.
func (da *Accessor) ReadGenesis() (*Genesis, error) {
	data, err := da.db.Get(genesisKey)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	if len(data) == 0 {
		return nil, nil
	}
	var alloc map[string]string
	if err := cbor.Unmarshal(data, &alloc); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return ParseGenesisAlloc(alloc)
}

func encodeGenesis(g *Genesis) ([]byte, error) {
	alloc := make(map[string]string, len(g.Alloc))
	for addr, amount := range g.Alloc {
		alloc[addr.Hex()] = amount.Dec()
	}
	data, err := cbor.Marshal(alloc)
	if err != nil {
		return nil, errors.Wrap(err, "encode genesis")
	}
	return data, nil
}

// SetupGenesis credits the allocation of g unless the database already
// holds a genesis. The credited state and the genesis marker are written in
// one batch. It reports whether g was applied.
func SetupGenesis(sd *state.StateDB, da *Accessor, g *Genesis) (bool, error) {
	stored, err := da.ReadGenesis()
	if err != nil {
		return false, err
	}
	if stored != nil {
		logrus.WithField("accounts", len(stored.Alloc)).Debug("genesis already applied")
		return false, nil
	}
	data, err := encodeGenesis(g)
	if err != nil {
		return false, err
	}

	snapshot := sd.Snapshot()
	for _, addr := range g.addresses() {
		if err := sd.AddBalance(addr, g.Alloc[addr]); err != nil {
			sd.RevertToSnapshot(snapshot)
			return false, errors.Wrapf(err, "genesis: credit %s", addr.Hex())
		}
	}
	err = sd.CommitWith(func(batch ogdb.Putter) error {
		return batch.Put(genesisKey, data)
	})
	if err != nil {
		sd.RevertToSnapshot(snapshot)
		return false, errors.Wrap(err, "genesis: commit state")
	}
	for _, addr := range g.addresses() {
		logrus.WithFields(logrus.Fields{
			"address": addr.Hex(),
			"amount":  g.Alloc[addr].Dec(),
		}).Info("genesis allocation")
	}
	return true, nil
}
