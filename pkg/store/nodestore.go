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

// This file implements pkg/chain.NodeStore on top of the state column,
// with a two-tier hot-node cache in front of the durable engine (the
// "trie-node cache" of the §3 domain stack); it lives here since it is
// this package's Engine that actually takes the read-amplification hit. The
// first tier is an LRU of decoded nodes; the second is a fastcache of
// the still-compressed bytes read from the engine, which holds a much
// larger working set per byte of RAM than decoded Go values do and
// saves the disk read (though not the decompress+decode) on a miss.
package store

import (
	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

type nodeCacheKey struct {
	acc  common.Address
	hash common.H256
}

// nodeCache layers an LRU of decoded nodes keyed by (account, hash) over
// a fastcache of raw compressed bytes keyed the same way; the main trie
// uses the zero Address as its account slot.
type nodeCache struct {
	cache *lru.Cache
	raw   *fastcache.Cache
}

func newNodeCache(size int) nodeCache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return nodeCache{cache: c, raw: fastcache.New(size * 4096)}
}

const accountNodePrefix = 'A'
const stateNodePrefix = 'S'

func accountNodeKey(hash common.H256) []byte {
	key := make([]byte, 1+32)
	key[0] = accountNodePrefix
	copy(key[1:], hash.Bytes())
	return key
}

func stateNodeKey(addr common.Address, hash common.H256) []byte {
	key := make([]byte, 1+20+32)
	key[0] = stateNodePrefix
	copy(key[1:21], addr[:])
	copy(key[21:], hash.Bytes())
	return key
}

// AccountTrieNode implements state.TxStateView / pkg/chain.NodeStore: a
// zero hash is "no data" per §4.A and never touches the engine.
func (s *Store) AccountTrieNode(hash common.H256) (trie.Node[common.AccountData], error) {
	if hash.IsZero() {
		return nil, nil
	}
	if v, ok := s.nodeCache.cache.Get(nodeCacheKey{hash: hash}); ok {
		return v.(trie.Node[common.AccountData]), nil
	}
	storeKey := accountNodeKey(hash)
	raw, ok := s.nodeCache.raw.HasGet(nil, storeKey)
	if !ok {
		var err error
		raw, err = s.engine(ColumnState).Get(storeKey)
		if err == ErrNotFound {
			return nil, trie.ErrNodeNotFound{Hash: hash}
		}
		if err != nil {
			return nil, err
		}
		s.nodeCache.raw.Set(storeKey, raw)
	}
	plain, err := decompress(raw)
	if err != nil {
		return nil, err
	}
	node, err := decodeAccountNode(plain)
	if err != nil {
		return nil, err
	}
	s.nodeCache.cache.Add(nodeCacheKey{hash: hash}, node)
	return node, nil
}

func (s *Store) StateTrieNode(accAddr common.Address, hash common.H256) (trie.Node[common.StateValue], error) {
	if hash.IsZero() {
		return nil, nil
	}
	ck := nodeCacheKey{acc: accAddr, hash: hash}
	if v, ok := s.nodeCache.cache.Get(ck); ok {
		return v.(trie.Node[common.StateValue]), nil
	}
	storeKey := stateNodeKey(accAddr, hash)
	raw, ok := s.nodeCache.raw.HasGet(nil, storeKey)
	if !ok {
		var err error
		raw, err = s.engine(ColumnState).Get(storeKey)
		if err == ErrNotFound {
			return nil, trie.ErrNodeNotFound{Hash: hash}
		}
		if err != nil {
			return nil, err
		}
		s.nodeCache.raw.Set(storeKey, raw)
	}
	plain, err := decompress(raw)
	if err != nil {
		return nil, err
	}
	node, err := decodeStateNode(plain)
	if err != nil {
		return nil, err
	}
	s.nodeCache.cache.Add(ck, node)
	return node, nil
}

func (s *Store) PutAccountTrieNode(hash common.H256, node trie.Node[common.AccountData]) error {
	plain, err := encodeAccountNode(node)
	if err != nil {
		return err
	}
	compressed := compress(plain)
	storeKey := accountNodeKey(hash)
	if err := s.engine(ColumnState).Put(storeKey, compressed); err != nil {
		return err
	}
	s.nodeCache.raw.Set(storeKey, compressed)
	s.nodeCache.cache.Add(nodeCacheKey{hash: hash}, node)
	return nil
}

func (s *Store) PutStateTrieNode(accAddr common.Address, hash common.H256, node trie.Node[common.StateValue]) error {
	plain, err := encodeStateNode(node)
	if err != nil {
		return err
	}
	compressed := compress(plain)
	storeKey := stateNodeKey(accAddr, hash)
	if err := s.engine(ColumnState).Put(storeKey, compressed); err != nil {
		return err
	}
	s.nodeCache.raw.Set(storeKey, compressed)
	s.nodeCache.cache.Add(nodeCacheKey{acc: accAddr, hash: hash}, node)
	return nil
}
