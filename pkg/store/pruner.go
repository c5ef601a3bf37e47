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

// This file implements accessmap.Pruner against the state column.
//
// PruneAccount removes every persisted node under accAddr's state-trie
// keyspace: once the access map's reverse index for an account goes
// empty, §4's pruning-safety invariant only needs the account's OWN
// nodes gone, since stillTrackedAccounts never touch a different
// account's keyspace (the state column is already partitioned by
// address prefix, so this is a bounded prefix range-delete).
//
// PruneAccountStateKey is intentionally a no-op. A single evicted state
// key does not map to a specific, safely-removable set of trie nodes:
// branch/extension nodes on the path to that key are very likely shared
// with sibling keys the access map still tracks (stillTrackedKeys), and
// this store keeps no reference count to tell a now-orphaned node apart
// from a shared one. Reclaiming that space would need either subtree
// reference counting or a mark-and-sweep pass over every live root still
// held in a Snapshot's RecentBlocks window — both out of scope here.
// Leaving the node in place only costs disk space, never correctness:
// pruning safety requires that nothing live ever loses reachability, not
// that everything dead is reclaimed promptly.
package store

import "github.com/slimchain-go/slimchain/pkg/common"

func (s *Store) PruneAccount(addr common.Address, stillTrackedAccounts []common.Address) error {
	prefix := make([]byte, 1+20)
	prefix[0] = stateNodePrefix
	copy(prefix[1:], addr[:])

	it := s.engine(ColumnState).NewIteratorWithPrefix(prefix)
	defer it.Release()

	var keys [][]byte
	for it.Next() {
		k := make([]byte, len(it.Key()))
		copy(k, it.Key())
		keys = append(keys, k)
	}

	for _, k := range keys {
		if err := s.engine(ColumnState).Delete(k); err != nil {
			return err
		}
		s.nodeCache.raw.Del(k)
		s.nodeCache.cache.Remove(nodeCacheKey{acc: addr, hash: common.BytesToH256(k[1+20:])})
	}
	logger.Debug("pruned account state nodes", "addr", addr, "count", len(keys))
	return nil
}

func (s *Store) PruneAccountStateKey(addr common.Address, key common.StateKey, stillTrackedKeys []common.StateKey) error {
	return nil
}
