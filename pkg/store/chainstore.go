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

// This file implements the block/tx/meta/log columns (§6): block[height]
// = block blob, tx[digest] = signed-tx blob, meta["height"] = latest
// committed height, and a log column recording one entry (the block
// digest) per committed block. This package only writes the log column;
// nothing in this repository reads it back.
package store

import (
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
)

var metaHeightKey = []byte("height")

// PutBlock persists b under its height, then txs, then advances
// meta["height"], then appends a log-column entry. Each column is written
// separately, not in one atomic batch, so a failure part-way leaves the
// earlier columns written. Because the block is written before
// meta["height"] advances, the latest height in meta always names a block
// present in the block column.
func (s *Store) PutBlock(b *chain.Block, txs []*chain.SignedTx) error {
	blockBlob, err := encodeBlock(b)
	if err != nil {
		return err
	}

	batch := s.engine(ColumnBlock).NewBatch()
	if err := batch.Put(heightKey(b.Height()), compress(blockBlob)); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	txBatch := s.engine(ColumnTx).NewBatch()
	for _, tx := range txs {
		digest := tx.Raw.ToDigest()
		if err := txBatch.Put(digest.Bytes(), compress(encodeSignedTx(tx))); err != nil {
			return err
		}
	}
	if err := txBatch.Write(); err != nil {
		return err
	}

	metaBatch := s.engine(ColumnMeta).NewBatch()
	var h [8]byte
	putUint64(h[:], uint64(b.Height()))
	if err := metaBatch.Put(metaHeightKey, h[:]); err != nil {
		return err
	}
	if err := metaBatch.Write(); err != nil {
		return err
	}

	return s.engine(ColumnLog).Put(heightKey(b.Height()), b.ToDigest().Bytes())
}

// GetBlock reads back the block committed at height h, ErrNotFound if
// no block has reached that height yet.
func (s *Store) GetBlock(h common.BlockHeight) (*chain.Block, error) {
	raw, err := s.engine(ColumnBlock).Get(heightKey(h))
	if err != nil {
		return nil, err
	}
	plain, err := decompress(raw)
	if err != nil {
		return nil, err
	}
	return decodeBlock(plain)
}

// GetTx reads back a signed transaction by its raw-tx digest.
func (s *Store) GetTx(digest common.H256) (*chain.SignedTx, error) {
	raw, err := s.engine(ColumnTx).Get(digest.Bytes())
	if err != nil {
		return nil, err
	}
	plain, err := decompress(raw)
	if err != nil {
		return nil, err
	}
	return decodeSignedTx(plain)
}

// LatestHeight reads meta["height"], ErrNotFound before the genesis block
// has been committed.
func (s *Store) LatestHeight() (common.BlockHeight, error) {
	raw, err := s.engine(ColumnMeta).Get(metaHeightKey)
	if err != nil {
		return 0, err
	}
	return common.BlockHeight(getUint64(raw)), nil
}

// PutMeta/GetMeta expose the meta column's general-purpose name/value
// slot for config snapshots or other small named blobs (§6), beyond the
// reserved "height" key.
func (s *Store) PutMeta(name string, value []byte) error {
	return s.engine(ColumnMeta).Put([]byte(name), value)
}

func (s *Store) GetMeta(name string) ([]byte, error) {
	return s.engine(ColumnMeta).Get([]byte(name))
}

// ReplayBlocks walks the block column in height order from 0 through the
// latest committed height, calling fn on each block; it returns nil
// without calling fn before any block is committed. No startup path in
// this repository calls it: cmd/slimnode builds its Snapshot from genesis.
func (s *Store) ReplayBlocks(fn func(*chain.Block) error) error {
	latest, err := s.LatestHeight()
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	for h := common.BlockHeight(0); h <= latest; h = h.Next() {
		b, err := s.GetBlock(h)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		if h == latest {
			break
		}
	}
	return nil
}
