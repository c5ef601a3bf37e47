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
	"os"
	"time"

	"github.com/dgraph-io/badger"
)

// badgerEngine is the alternate column backend (§3 domain stack),
// grounded on storage/database/badger_database.go: same directory used
// for both the LSM and the value log, with a periodic size-triggered
// value-log GC the way NewBadgerDB's background goroutine does it.
type badgerEngine struct {
	db       *badger.DB
	gcTicker *time.Ticker
	stop     chan struct{}
}

const badgerGCThreshold = int64(1 << 30)
const badgerGCInterval = time.Minute

func newBadgerEngine(dir string) (Engine, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	e := &badgerEngine{db: db, gcTicker: time.NewTicker(badgerGCInterval), stop: make(chan struct{})}
	go e.runValueLogGC()
	return e, nil
}

func (e *badgerEngine) runValueLogGC() {
	_, lastSize := e.db.Size()
	for {
		select {
		case <-e.gcTicker.C:
			_, curSize := e.db.Size()
			if curSize-lastSize < badgerGCThreshold {
				continue
			}
			if err := e.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				logger.Warn("badger value log gc failed", "err", err)
			}
			_, lastSize = e.db.Size()
		case <-e.stop:
			return
		}
	}
}

func (e *badgerEngine) Put(key, value []byte) error {
	return e.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (e *badgerEngine) Get(key []byte) ([]byte, error) {
	var out []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (e *badgerEngine) Has(key []byte) (bool, error) {
	_, err := e.Get(key)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (e *badgerEngine) Delete(key []byte) error {
	return e.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

func (e *badgerEngine) Close() error {
	close(e.stop)
	e.gcTicker.Stop()
	return e.db.Close()
}

func (e *badgerEngine) NewIteratorWithPrefix(prefix []byte) Iterator {
	txn := e.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Seek(prefix)
	return &badgerIterator{txn: txn, it: it, prefix: prefix, started: false}
}

type badgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	started bool
	key     []byte
	value   []byte
}

func (i *badgerIterator) Next() bool {
	if !i.started {
		i.started = true
	} else {
		i.it.Next()
	}
	if !i.it.ValidForPrefix(i.prefix) {
		return false
	}
	item := i.it.Item()
	i.key = item.KeyCopy(nil)
	v, err := item.ValueCopy(nil)
	if err != nil {
		return false
	}
	i.value = v
	return true
}

func (i *badgerIterator) Key() []byte   { return i.key }
func (i *badgerIterator) Value() []byte { return i.value }
func (i *badgerIterator) Release() {
	i.it.Close()
	i.txn.Discard()
}

func (e *badgerEngine) NewBatch() Batch {
	return &badgerBatch{db: e.db, wb: e.db.NewWriteBatch()}
}

type badgerBatch struct {
	db   *badger.DB
	wb   *badger.WriteBatch
	size int
}

func (b *badgerBatch) Put(key, value []byte) error {
	b.size += len(key) + len(value)
	return b.wb.Set(key, value, 0)
}

func (b *badgerBatch) Delete(key []byte) error {
	b.size += len(key)
	return b.wb.Delete(key)
}

func (b *badgerBatch) Write() error { return b.wb.Flush() }
func (b *badgerBatch) Reset() {
	b.wb.Cancel()
	b.wb = b.db.NewWriteBatch()
	b.size = 0
}
func (b *badgerBatch) ValueSize() int { return b.size }
