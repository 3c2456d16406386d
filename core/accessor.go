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
	"encoding/binary"
	"sync"

	"github.com/annchain/badium/ogdb"
	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var (
	prefixReceiptKey      = []byte("r")
	prefixReceiptIndexKey = []byte("ri")
	receiptCountKey       = []byte("receiptcount")
)

const DefaultReceiptCacheSize = 1024

func receiptKey(hash common.Hash) []byte {
	return append(append([]byte{}, prefixReceiptKey...), hash.Bytes()...)
}

func receiptIndexKey(seq uint64) []byte {
	key := make([]byte, len(prefixReceiptIndexKey)+8)
	copy(key, prefixReceiptIndexKey)
	binary.BigEndian.PutUint64(key[len(prefixReceiptIndexKey):], seq)
	return key
}

// Accessor reads and writes receipts. Every written receipt also gets a
// sequence number so that the latest ones can be listed.
type Accessor struct {
	db    ogdb.Database
	cache *lru.Cache

	mu    sync.Mutex
	count uint64
}

func NewAccessor(db ogdb.Database, cacheSize int) (*Accessor, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultReceiptCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create receipt cache")
	}
	da := &Accessor{db: db, cache: cache}
	data, err := db.Get(receiptCountKey)
	if err != nil {
		return nil, errors.Wrap(err, "read receipt count")
	}
	if len(data) == 8 {
		da.count = binary.BigEndian.Uint64(data)
	}
	return da, nil
}

// WriteReceipt stores r under its tx hash.
func (da *Accessor) WriteReceipt(r *types.Receipt) error {
	data, err := cbor.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "encode receipt %s", r.TxHash.Hex())
	}
	da.mu.Lock()
	defer da.mu.Unlock()

	var count [8]byte
	binary.BigEndian.PutUint64(count[:], da.count+1)
	batch := da.db.NewBatch()
	if err := batch.Put(receiptKey(r.TxHash), data); err != nil {
		return err
	}
	if err := batch.Put(receiptIndexKey(da.count), r.TxHash.Bytes()); err != nil {
		return err
	}
	if err := batch.Put(receiptCountKey, count[:]); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrapf(err, "write receipt %s", r.TxHash.Hex())
	}
	da.count++
	da.cache.Add(r.TxHash, r)
	return nil
}

// ReadReceipt returns the receipt of hash, or nil if there is none.
func (da *Accessor) ReadReceipt(hash common.Hash) (*types.Receipt, error) {
	if v, ok := da.cache.Get(hash); ok {
		return v.(*types.Receipt), nil
	}
	data, err := da.db.Get(receiptKey(hash))
	if err != nil {
		return nil, errors.Wrapf(err, "read receipt %s", hash.Hex())
	}
	if len(data) == 0 {
		return nil, nil
	}
	var r types.Receipt
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "decode receipt %s", hash.Hex())
	}
	da.cache.Add(hash, &r)
	return &r, nil
}

// ReceiptCount is the number of receipts written so far.
func (da *Accessor) ReceiptCount() uint64 {
	da.mu.Lock()
	defer da.mu.Unlock()
	return da.count
}

// LatestReceipts returns up to n receipts, newest first.
func (da *Accessor) LatestReceipts(n int) ([]*types.Receipt, error) {
	da.mu.Lock()
	count := da.count
	da.mu.Unlock()

	var out []*types.Receipt
	for seq := count; seq > 0 && len(out) < n; seq-- {
		hash, err := da.db.Get(receiptIndexKey(seq - 1))
		if err != nil {
			return nil, errors.Wrapf(err, "read receipt index %d", seq-1)
		}
		if len(hash) == 0 {
			return nil, errors.Errorf("receipt index %d missing", seq-1)
		}
		r, err := da.ReadReceipt(common.BytesToHash(hash))
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, errors.Errorf("receipt %x indexed at %d missing", hash, seq-1)
		}
		out = append(out, r)
	}
	return out, nil
}
