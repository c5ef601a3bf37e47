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

// Package store implements the durable column-family store (§6): one
// sub-database per column (meta, block, tx, state, log), each opened as
// its own subdirectory the way the teacher's storage/database package
// opens one LevelDB instance per DBEntryType under a shared data
// directory, with the per-column cache/handle budget derived from a
// percentage split of a shared total rather than one fixed size per
// column.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/slimchain-go/slimchain/internal/log"
)

var logger = log.NewModuleLogger("store")

// Column names one of the five sub-databases a Store manages.
type Column int

const (
	ColumnMeta Column = iota
	ColumnBlock
	ColumnTx
	ColumnState
	ColumnLog
	numColumns
)

func (c Column) String() string {
	switch c {
	case ColumnMeta:
		return "meta"
	case ColumnBlock:
		return "block"
	case ColumnTx:
		return "tx"
	case ColumnState:
		return "state"
	case ColumnLog:
		return "log"
	default:
		return "unknown"
	}
}

// columnDirs and columnRatio mirror the teacher's dbDirs/dbConfigRatio
// pair: one subdirectory name and one percentage-of-total cache/handle
// share per column. The state column gets the lion's share since trie
// nodes dominate node working-set size.
var columnDirs = [numColumns]string{"meta", "block", "tx", "state", "log"}
var columnRatio = [numColumns]int{5, 15, 15, 55, 10}

func init() {
	sum := 0
	for _, r := range columnRatio {
		sum += r
	}
	if sum != 100 {
		logger.Crit("store: column cache ratios do not sum to 100", "sum", sum)
	}
}

// Engine is the KV operations a column backend must support, the same
// shape the teacher's levelDB/badgerDB types both already implement
// (Put/Get/Has/Delete/NewIterator/Close), generalized to hide which of
// the two concrete engines backs a given column.
type Engine interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	NewIteratorWithPrefix(prefix []byte) Iterator
	NewBatch() Batch
	Close() error
}

// Iterator walks a range of keys in order, the subset of
// goleveldb/iterator.Iterator and badger's iterator this package needs.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Batch buffers writes for one atomic commit, grounded on the teacher's
// database.Batch (storage/database/interface.go): the write-ahead unit
// that makes "a committed block implies all of its referenced state
// nodes are present" (§6) possible.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Write() error
	Reset()
	ValueSize() int
}

// Backend selects which engine opens each column.
type Backend string

const (
	LevelDB Backend = "leveldb"
	Badger  Backend = "badger"
)

// Config is the subset of §6's storage config this package consumes:
// a data directory, which engine to use, and a total cache budget (MiB)
// split across columns by columnRatio, mirroring the teacher's DBConfig
// (storage/database/db_manager.go) cacheSize/numHandles-by-ratio scheme.
type Config struct {
	Dir         string
	Backend     Backend
	CacheSizeMB int
	NumHandles  int
}

// Store is the durable column-family store: one Engine per Column, plus
// the hot-node cache layered over the state column (nodestore.go).
type Store struct {
	cfg     Config
	engines [numColumns]Engine
	nodeCache
}

// Open opens (creating if absent) every column's sub-database under
// cfg.Dir, named and sized the way the teacher's database manager lays
// out per-entry-type directories and cache/handle shares.
func Open(cfg Config) (*Store, error) {
	if cfg.Backend == "" {
		cfg.Backend = LevelDB
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("store: creating data dir %s: %w", cfg.Dir, err)
	}
	s := &Store{cfg: cfg}
	for c := Column(0); c < numColumns; c++ {
		dir := filepath.Join(cfg.Dir, columnDirs[c])
		cacheMB := cfg.CacheSizeMB * columnRatio[c] / 100
		handles := cfg.NumHandles * columnRatio[c] / 100
		if cacheMB < 1 {
			cacheMB = 1
		}
		if handles < 16 {
			handles = 16
		}
		eng, err := openEngine(cfg.Backend, dir, cacheMB, handles)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("store: opening column %s: %w", columnDirs[c], err)
		}
		s.engines[c] = eng
		logger.Info("opened column", "column", columnDirs[c], "backend", cfg.Backend, "cache_mb", cacheMB, "handles", handles)
	}
	s.nodeCache = newNodeCache(4096)
	return s, nil
}

func openEngine(backend Backend, dir string, cacheMB, numHandles int) (Engine, error) {
	switch backend {
	case Badger:
		return newBadgerEngine(dir)
	case LevelDB, "":
		return newLevelDBEngine(dir, cacheMB, numHandles)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}

// Close releases every opened column engine, tolerating partially
// opened stores (Open calls Close on its own failure path).
func (s *Store) Close() {
	for _, e := range s.engines {
		if e != nil {
			_ = e.Close()
		}
	}
}

func (s *Store) engine(c Column) Engine { return s.engines[c] }
