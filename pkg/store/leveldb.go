// Copyright 2024 The slimchain-go Authors
// This file is part of the slimchain-go library.
//
// The slimchain-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slimchain-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slimchain-go library. If not, see <http://www.gnu.org/licenses/>.

package store

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelDBEngine is the default column backend (§3 domain stack), grounded
// on storage/database/leveldb_database.go's getLDBOptions/NewLDBDatabase:
// a bloom filter tuned for point lookups by content hash, and a
// cache/write-buffer split derived from the column's cache budget.
type levelDBEngine struct {
	db *leveldb.DB
}

func newLevelDBEngine(dir string, cacheMB, numHandles int) (Engine, error) {
	opts := &opt.Options{
		OpenFilesCacheCapacity: numHandles,
		BlockCacheCapacity:     cacheMB / 2 * opt.MiB,
		WriteBuffer:            cacheMB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(dir, opts)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, err
	}
	return &levelDBEngine{db: db}, nil
}

func (e *levelDBEngine) Put(key, value []byte) error { return e.db.Put(key, value, nil) }
func (e *levelDBEngine) Get(key []byte) ([]byte, error) {
	v, err := e.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return v, err
}
func (e *levelDBEngine) Has(key []byte) (bool, error)   { return e.db.Has(key, nil) }
func (e *levelDBEngine) Delete(key []byte) error        { return e.db.Delete(key, nil) }
func (e *levelDBEngine) Close() error                   { return e.db.Close() }

func (e *levelDBEngine) NewIteratorWithPrefix(prefix []byte) Iterator {
	return &ldbIterator{it: e.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

func (e *levelDBEngine) NewBatch() Batch {
	return &ldbBatch{db: e.db, batch: new(leveldb.Batch)}
}

type ldbIterator struct{ it iterator.Iterator }

func (i *ldbIterator) Next() bool     { return i.it.Next() }
func (i *ldbIterator) Key() []byte    { return i.it.Key() }
func (i *ldbIterator) Value() []byte  { return i.it.Value() }
func (i *ldbIterator) Release()       { i.it.Release() }

type ldbBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	size  int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	b.size += len(key) + len(value)
	return nil
}

func (b *ldbBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	b.size += len(key)
	return nil
}

func (b *ldbBatch) Write() error { return b.db.Write(b.batch, nil) }
func (b *ldbBatch) Reset()       { b.batch.Reset(); b.size = 0 }
func (b *ldbBatch) ValueSize() int { return b.size }
