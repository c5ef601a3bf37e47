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

package common

import lru "github.com/hashicorp/golang-lru"

// NodeCache is a thread-safe, bounded cache of trie nodes keyed by their
// content hash. It sits in front of a NodeLoader so repeated reads of a hot
// branch/extension node don't round-trip the durable store.
type NodeCache struct {
	cache *lru.Cache
}

// NewNodeCache builds a NodeCache holding up to size entries. Eviction is
// plain LRU, same choice the teacher makes for its trie node cache.
func NewNodeCache(size int) (*NodeCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &NodeCache{cache: c}, nil
}

func (c *NodeCache) Get(key H256) (value interface{}, ok bool) {
	return c.cache.Get(key)
}

func (c *NodeCache) Add(key H256, value interface{}) {
	c.cache.Add(key, value)
}

func (c *NodeCache) Remove(key H256) {
	c.cache.Remove(key)
}

func (c *NodeCache) Purge() {
	c.cache.Purge()
}

func (c *NodeCache) Len() int {
	return c.cache.Len()
}
