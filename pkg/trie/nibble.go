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

// Package trie implements the two-level authenticated Merkle-Patricia trie:
// nibble keys and node hashing (§4.A of the design), the storage trie write
// context (§4.B), and it is the base the partial trie/proof/diff package
// builds on (§4.C).
package trie

import (
	"github.com/slimchain-go/slimchain/pkg/common"
)

// Nibbles is a key expanded to one 4-bit value (0..15) per slot, the radix
// used at every branch node. Unpacked rather than bit-packed: simpler Go,
// and nibble sequences here are short (64 nibbles for a 32-byte key) so the
// 2x memory cost never matters.
type Nibbles []byte

// KeyToNibbles splits a byte key into its nibble sequence, high nibble
// first, matching the source's big-endian nibble order.
func KeyToNibbles(key []byte) Nibbles {
	out := make(Nibbles, 0, len(key)*2)
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

func (n Nibbles) Clone() Nibbles {
	c := make(Nibbles, len(n))
	copy(c, n)
	return c
}

func (n Nibbles) Equal(o Nibbles) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}

// SplitFirst returns the first nibble and the remainder, or ok=false if n is
// empty (used by branch-node traversal to pick a child index).
func (n Nibbles) SplitFirst() (first byte, rest Nibbles, ok bool) {
	if len(n) == 0 {
		return 0, nil, false
	}
	return n[0], n[1:], true
}

// StripPrefix removes p from the front of n, mirroring the source's
// Nibbles::strip_prefix: used by extension-node traversal.
func (n Nibbles) StripPrefix(p Nibbles) (rest Nibbles, ok bool) {
	if len(p) > len(n) || !n[:len(p)].Equal(p) {
		return nil, false
	}
	return n[len(p):], true
}

// CommonPrefixLen returns how many leading nibbles n and o share.
func (n Nibbles) CommonPrefixLen(o Nibbles) int {
	l := len(n)
	if len(o) < l {
		l = len(o)
	}
	i := 0
	for i < l && n[i] == o[i] {
		i++
	}
	return i
}

// ToDigest hashes the nibble sequence canonically: a length prefix guards
// against two different-length sequences that happen to share a byte
// encoding from colliding.
func (n Nibbles) ToDigest() common.H256 {
	buf := make([]byte, 0, len(n)+8)
	var lenBytes [8]byte
	ln := uint64(len(n))
	for i := 0; i < 8; i++ {
		lenBytes[i] = byte(ln >> (8 * i))
	}
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, n...)
	return common.Hash256(buf)
}
