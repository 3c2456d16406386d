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
package state

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/annchain/badium/common/math"
	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	accountPrefix = []byte("a")
	objectPrefix  = []byte("c")
)

func accountKey(addr common.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

func objectKey(addr common.Address) []byte {
	return append(append([]byte{}, objectPrefix...), addr.Bytes()...)
}

// StateDB stores native accounts and contract objects. Every change goes
// through the journal so that a call can be rolled back to any snapshot.
// Committed changes are written to the underlying database in one batch.
//
// The whole state is loaded into memory when the StateDB is opened.
type StateDB struct {
	db ogdb.Database

	// journal records every action which will change statedb's data
	// since the last commit.
	journal     *journal
	snapshotSet []shot
	snapshotID  int

	accounts map[common.Address]*StateObject
	objects  map[common.Address]Object
	dirtyset map[common.Address]struct{}

	txHash common.Hash
	logs   []*types.Log

	mu sync.RWMutex
}

func NewStateDB(db ogdb.Database) (*StateDB, error) {
	sd := &StateDB{
		db:       db,
		journal:  newJournal(),
		accounts: make(map[common.Address]*StateObject),
		objects:  make(map[common.Address]Object),
		dirtyset: make(map[common.Address]struct{}),
	}
	if err := sd.load(); err != nil {
		return nil, err
	}
	return sd, nil
}

func (sd *StateDB) load() error {
	it := sd.db.NewIteratorWithPrefix(accountPrefix)
	for it.Next() {
		addr := common.BytesToAddress(it.Key()[len(accountPrefix):])
		stobj := NewStateObject(addr, sd)
		if err := stobj.Decode(it.Value()); err != nil {
			it.Release()
			return errors.Wrapf(err, "decode account %s", addr.Hex())
		}
		sd.accounts[addr] = stobj
	}
	it.Release()
	if err := it.Error(); err != nil {
		return errors.Wrap(err, "iterate accounts")
	}

	it = sd.db.NewIteratorWithPrefix(objectPrefix)
	for it.Next() {
		addr := common.BytesToAddress(it.Key()[len(objectPrefix):])
		obj, err := decodeObject(it.Value())
		if err != nil {
			it.Release()
			return errors.Wrapf(err, "decode contract %s", addr.Hex())
		}
		sd.objects[addr] = obj
	}
	it.Release()
	if err := it.Error(); err != nil {
		return errors.Wrap(err, "iterate contracts")
	}
	log.WithFields(log.Fields{
		"accounts":  len(sd.accounts),
		"contracts": len(sd.objects),
	}).Debug("state loaded")
	return nil
}

func (sd *StateDB) Database() ogdb.Database {
	return sd.db
}

// Exist reports whether addr holds an account or a contract.
func (sd *StateDB) Exist(addr common.Address) bool {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	_, isAccount := sd.accounts[addr]
	_, isObject := sd.objects[addr]
	return isAccount || isObject
}

// GetBalance returns a copy of the native balance of addr.
func (sd *StateDB) GetBalance(addr common.Address) *uint256.Int {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	if stobj := sd.accounts[addr]; stobj != nil {
		return math.Copy(stobj.GetBalance())
	}
	return math.Zero()
}

func (sd *StateDB) GetNonce(addr common.Address) uint64 {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	if stobj := sd.accounts[addr]; stobj != nil {
		return stobj.GetNonce()
	}
	return 0
}

func (sd *StateDB) getOrCreateAccount(addr common.Address) *StateObject {
	if stobj := sd.accounts[addr]; stobj != nil {
		return stobj
	}
	stobj := NewStateObject(addr, sd)
	sd.journal.append(&createAccountChange{account: &addr})
	sd.accounts[addr] = stobj
	return stobj
}

// AddBalance credits addr. The sum must fit in 256 bits.
func (sd *StateDB) AddBalance(addr common.Address, increment *uint256.Int) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	if increment == nil || increment.IsZero() {
		return nil
	}
	stobj := sd.getOrCreateAccount(addr)
	balance, err := math.SafeAdd(stobj.GetBalance(), increment)
	if err != nil {
		return err
	}
	stobj.SetBalance(balance)
	return nil
}

// SubBalance debits addr, failing with InsufficientFunds when the balance is
// too low.
func (sd *StateDB) SubBalance(addr common.Address, decrement *uint256.Int) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	if decrement == nil || decrement.IsZero() {
		return nil
	}
	stobj := sd.accounts[addr]
	if stobj == nil || stobj.GetBalance().Lt(decrement) {
		have := math.Zero()
		if stobj != nil {
			have = stobj.GetBalance()
		}
		return types.NewExecError(types.KindInsufficientFunds, "%s has %s, needs %s", addr.Hex(), have.Dec(), decrement.Dec())
	}
	stobj.SetBalance(new(uint256.Int).Sub(stobj.GetBalance(), decrement))
	return nil
}

// SetBalance overwrites the balance of addr. Used for genesis allocation.
func (sd *StateDB) SetBalance(addr common.Address, balance *uint256.Int) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.getOrCreateAccount(addr).SetBalance(math.Copy(balance))
}

func (sd *StateDB) SetNonce(addr common.Address, nonce uint64) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.getOrCreateAccount(addr).SetNonce(nonce)
}

// GetObject returns the contract deployed at addr, or nil.
func (sd *StateDB) GetObject(addr common.Address) Object {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	return sd.objects[addr]
}

// CreateObject installs a contract at addr. The address must be unused by any
// other contract.
func (sd *StateDB) CreateObject(addr common.Address, obj Object) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	if _, ok := sd.objects[addr]; ok {
		return fmt.Errorf("contract already exists at %s", addr.Hex())
	}
	sd.journal.append(&createObjectChange{account: &addr})
	sd.objects[addr] = obj
	return nil
}

// AppendJournal records a contract state change so it can be reverted. An
// entry dirtying an address marks the contract there for the next Commit.
func (sd *StateDB) AppendJournal(entry JournalEntry) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.journal.append(entry)
}

// SetTxContext starts a new log collection for txHash.
func (sd *StateDB) SetTxContext(txHash common.Hash) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.txHash = txHash
	sd.logs = nil
}

func (sd *StateDB) AddLog(l *types.Log) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.journal.append(&addLogChange{txhash: sd.txHash})
	l.TxHash = sd.txHash
	l.Index = uint(len(sd.logs))
	sd.logs = append(sd.logs, l)
}

// Logs returns the logs emitted since the last SetTxContext that have not been
// reverted.
func (sd *StateDB) Logs() []*types.Log {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	logs := make([]*types.Log, len(sd.logs))
	copy(logs, sd.logs)
	return logs
}

// ForEachAccount visits accounts in address order until f returns false.
func (sd *StateDB) ForEachAccount(f func(addr common.Address, balance *uint256.Int, nonce uint64) bool) {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	for _, addr := range sortedAddresses(sd.accounts) {
		stobj := sd.accounts[addr]
		if !f(addr, math.Copy(stobj.GetBalance()), stobj.GetNonce()) {
			return
		}
	}
}

// ForEachObject visits contracts in address order until f returns false.
func (sd *StateDB) ForEachObject(f func(addr common.Address, obj Object) bool) {
	sd.mu.RLock()
	defer sd.mu.RUnlock()

	for _, addr := range sortedAddresses(sd.objects) {
		if !f(addr, sd.objects[addr]) {
			return
		}
	}
}

func sortedAddresses[V any](m map[common.Address]V) []common.Address {
	addrs := make([]common.Address, 0, len(m))
	for addr := range m {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

func (sd *StateDB) Commit() error {
	return sd.CommitWith(nil)
}

// CommitWith commits the state and lets extra put more records into the same
// batch, so both reach the database or neither does. On failure the journal
// is kept and the caller decides what to revert.
func (sd *StateDB) CommitWith(extra func(batch ogdb.Putter) error) error {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	return sd.commit(extra)
}

// commit writes every address dirtied since the last commit. Addresses whose
// account or contract no longer exists (a reverted creation) are deleted.
func (sd *StateDB) commit(extra func(batch ogdb.Putter) error) error {
	for addr := range sd.journal.dirties {
		sd.dirtyset[addr] = struct{}{}
	}
	batch := sd.db.NewBatch()
	for addr := range sd.dirtyset {
		if stobj, ok := sd.accounts[addr]; ok {
			data, err := stobj.Encode()
			if err != nil {
				return errors.Wrapf(err, "encode account %s", addr.Hex())
			}
			log.Tracef("statedb commit, account: %x, data: %x", addr.Bytes(), data)
			if err := batch.Put(accountKey(addr), data); err != nil {
				return err
			}
		} else if err := batch.Delete(accountKey(addr)); err != nil {
			return err
		}

		if obj, ok := sd.objects[addr]; ok {
			data, err := encodeObject(obj)
			if err != nil {
				return err
			}
			log.Tracef("statedb commit, contract: %x, kind: %s", addr.Bytes(), obj.Kind())
			if err := batch.Put(objectKey(addr), data); err != nil {
				return err
			}
		} else if err := batch.Delete(objectKey(addr)); err != nil {
			return err
		}
	}
	if extra != nil {
		if err := extra(batch); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write state batch")
	}
	sd.dirtyset = make(map[common.Address]struct{})
	sd.clearJournal()
	return nil
}

func (sd *StateDB) Snapshot() int {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	id := sd.snapshotID
	sd.snapshotID++
	sd.snapshotSet = append(sd.snapshotSet, shot{shotid: id, journalIndex: sd.journal.length()})
	return id
}

// RevertToSnapshot undoes every change made after the snapshot was taken.
// Snapshots taken after it become invalid.
func (sd *StateDB) RevertToSnapshot(snapshotid int) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	index := 0
	s := shot{shotid: -1}
	for i, shotInMem := range sd.snapshotSet {
		if shotInMem.shotid == snapshotid {
			index = i
			s = shotInMem
			break
		}
	}
	if s.shotid == -1 {
		panic(fmt.Sprintf("can't find valid snapshot, id: %d", snapshotid))
	}
	sd.journal.revert(sd, s.journalIndex)
	sd.snapshotSet = sd.snapshotSet[:index]
}

func (sd *StateDB) clearJournal() {
	sd.journal = newJournal()
	sd.snapshotID = 0
	sd.snapshotSet = sd.snapshotSet[:0]
}

type shot struct {
	shotid       int
	journalIndex int
}
