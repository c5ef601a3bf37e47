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

// Package partial implements the in-memory sparse trie view (§4.C): the
// same three node kinds as pkg/trie, plus a Hash placeholder standing in
// for a subtree whose contents have been pruned away or never fetched.
// Proof and Diff are both built out of this same SubTree type.
package partial

import (
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// SubTree is one of {Hash, Leaf, Extension, Branch}. Every subtree has an
// observable RootHash matching the full trie it abstracts (§3).
type SubTree[V trie.Value] interface {
	RootHash() common.H256
	isSubTree()
}

// HashSubTree is an opaque placeholder: "a subtree with this root hash
// exists, but its contents are not known here." A zero hash is special:
// it unambiguously means "this subtree is empty," so it never needs
// supplementing even though it's represented the same way.
type HashSubTree[V trie.Value] struct {
	H common.H256
}

func (h *HashSubTree[V]) RootHash() common.H256 { return h.H }
func (h *HashSubTree[V]) isSubTree()            {}

type LeafSubTree[V trie.Value] struct {
	Nibbles trie.Nibbles
	Value   V
}

func (l *LeafSubTree[V]) RootHash() common.H256 { return trie.LeafNodeHash(l.Nibbles, l.Value.ToDigest()) }
func (l *LeafSubTree[V]) isSubTree()            {}

type ExtensionSubTree[V trie.Value] struct {
	Nibbles trie.Nibbles
	Child   SubTree[V]
}

func (e *ExtensionSubTree[V]) RootHash() common.H256 {
	return trie.ExtensionNodeHash(e.Nibbles, e.Child.RootHash())
}
func (e *ExtensionSubTree[V]) isSubTree() {}

// BranchSubTree always carries exactly 16 children; an untouched slot is a
// HashSubTree with a zero hash (provably-empty), not a nil pointer.
type BranchSubTree[V trie.Value] struct {
	Children [16]SubTree[V]
}

func (b *BranchSubTree[V]) RootHash() common.H256 {
	var hashes [16]common.H256
	for i, c := range b.Children {
		hashes[i] = c.RootHash()
	}
	return trie.BranchNodeHash(hashes)
}
func (b *BranchSubTree[V]) isSubTree() {}

// NewEmptyBranch returns a branch literal with all 16 children set to the
// zero-hash placeholder, the canonical representation of "nothing here yet."
func NewEmptyBranch[V trie.Value]() *BranchSubTree[V] {
	b := &BranchSubTree[V]{}
	for i := range b.Children {
		b.Children[i] = &HashSubTree[V]{H: common.ZeroH256}
	}
	return b
}

// CanBePruned reports whether this subtree is already maximally abstracted
// — either a Hash placeholder, or an empty (zero-hash) subtree of any kind
// — i.e. pruning it loses no information we don't already lack.
func CanBePruned[V trie.Value](s SubTree[V]) bool {
	if s.RootHash().IsZero() {
		return true
	}
	_, isHash := s.(*HashSubTree[V])
	return isHash
}

// ValueHash answers a single key's value digest from this subtree,
// following §4.C's rules exactly:
//   - a Hash placeholder with a nonzero hash can't answer: caller must
//     supplement with more proof;
//   - a Hash placeholder with the zero hash unambiguously means "empty",
//     so it can always answer Some(0) without more data;
//   - a Leaf answers its own value hash if the key matches, else 0;
//   - an Extension recurses after stripping its prefix, else 0;
//   - a Branch recurses on the next nibble; a missing (zero) child is 0.
func ValueHash[V trie.Value](s SubTree[V], key trie.Nibbles) (h common.H256, ok bool) {
	switch n := s.(type) {
	case *HashSubTree[V]:
		if n.H.IsZero() {
			return common.ZeroH256, true
		}
		return common.H256{}, false
	case *LeafSubTree[V]:
		if key.Equal(n.Nibbles) {
			return n.Value.ToDigest(), true
		}
		return common.ZeroH256, true
	case *ExtensionSubTree[V]:
		rest, matched := key.StripPrefix(n.Nibbles)
		if !matched {
			return common.ZeroH256, true
		}
		return ValueHash(n.Child, rest)
	case *BranchSubTree[V]:
		idx, rest, matched := key.SplitFirst()
		if !matched {
			return common.ZeroH256, false
		}
		return ValueHash(n.Children[idx], rest)
	default:
		return common.H256{}, false
	}
}
