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

// Package storage implements the storage trie write context (§4.B): given
// an old root and a NodeLoader for reads, Insert builds up the minimal set
// of new nodes an Apply needs relative to that root, never mutating an
// existing node in place.
package storage

import (
	"fmt"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// Apply is the minimal node set a Writer produced relative to its starting
// root, plus the resulting root hash.
type Apply[V trie.Value] struct {
	Root  common.H256
	Nodes map[common.H256]trie.Node[V]
}

// Writer accumulates trie mutations against a starting root. It never
// mutates an existing node; every insert either creates new node objects or
// (for an unaffected subtree) leaves the old hash untouched.
type Writer[V trie.Value] struct {
	loader trie.NodeLoader[V]
	nodes  map[common.H256]trie.Node[V]
	root   common.H256
}

func NewWriter[V trie.Value](loader trie.NodeLoader[V], oldRoot common.H256) *Writer[V] {
	return &Writer[V]{loader: loader, nodes: make(map[common.H256]trie.Node[V]), root: oldRoot}
}

// Insert writes value at key. A zero-valued value deletes the key (§4.B).
func (w *Writer[V]) Insert(key []byte, value V) error {
	newRoot, err := w.insert(w.root, trie.KeyToNibbles(key), value)
	if err != nil {
		return err
	}
	w.root = newRoot
	return nil
}

// Changes returns the Apply accumulated so far. Safe to call repeatedly;
// the Writer keeps accumulating if Insert is called again afterward.
func (w *Writer[V]) Changes() Apply[V] {
	return Apply[V]{Root: w.root, Nodes: w.nodes}
}

func (w *Writer[V]) loadNode(hash common.H256) (trie.Node[V], error) {
	if hash.IsZero() {
		return nil, nil
	}
	if n, ok := w.nodes[hash]; ok {
		return n, nil
	}
	return w.loader.LoadNode(hash)
}

func (w *Writer[V]) storeLeaf(nibbles trie.Nibbles, value V) (common.H256, error) {
	n := &trie.LeafNode[V]{Nibbles: nibbles.Clone(), Value: value}
	h := n.Hash()
	w.nodes[h] = n
	return h, nil
}

func (w *Writer[V]) storeExtension(nibbles trie.Nibbles, childHash common.H256) (common.H256, error) {
	n := &trie.ExtensionNode[V]{Nibbles: nibbles.Clone(), ChildHash: childHash}
	h := n.Hash()
	w.nodes[h] = n
	return h, nil
}

func (w *Writer[V]) storeBranch(n *trie.BranchNode[V]) (common.H256, error) {
	h := n.Hash()
	w.nodes[h] = n
	return h, nil
}

func concat(a, b trie.Nibbles) trie.Nibbles {
	out := make(trie.Nibbles, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// wrap reattaches childHash behind a prefix, merging with the child instead
// of nesting when the child is itself a Leaf or Extension. This is both the
// normal "rebuild the extension above a changed child" path and the
// "collapse a branch's last remaining child into its sibling with a merged
// extension" edge case (§4.B): both are the same operation, wrap a prefix
// around whatever is left below it.
func (w *Writer[V]) wrap(prefix trie.Nibbles, childHash common.H256) (common.H256, error) {
	if childHash.IsZero() {
		return common.ZeroH256, nil
	}
	if len(prefix) == 0 {
		return childHash, nil
	}
	child, err := w.loadNode(childHash)
	if err != nil {
		return common.ZeroH256, err
	}
	switch c := child.(type) {
	case *trie.LeafNode[V]:
		return w.storeLeaf(concat(prefix, c.Nibbles), c.Value)
	case *trie.ExtensionNode[V]:
		return w.storeExtension(concat(prefix, c.Nibbles), c.ChildHash)
	case *trie.BranchNode[V]:
		return w.storeExtension(prefix, childHash)
	default:
		return common.ZeroH256, fmt.Errorf("trie: unknown node kind at %s", childHash)
	}
}

func (w *Writer[V]) insert(hash common.H256, key trie.Nibbles, value V) (common.H256, error) {
	if hash.IsZero() {
		if value.IsZero() {
			return common.ZeroH256, nil
		}
		return w.storeLeaf(key, value)
	}

	node, err := w.loadNode(hash)
	if err != nil {
		return common.ZeroH256, err
	}

	switch n := node.(type) {
	case *trie.LeafNode[V]:
		if key.Equal(n.Nibbles) {
			if value.IsZero() {
				return common.ZeroH256, nil
			}
			return w.storeLeaf(key, value)
		}
		if value.IsZero() {
			return hash, nil
		}
		return w.splitLeaf(n, key, value)

	case *trie.ExtensionNode[V]:
		rest, ok := key.StripPrefix(n.Nibbles)
		if ok {
			newChildHash, err := w.insert(n.ChildHash, rest, value)
			if err != nil {
				return common.ZeroH256, err
			}
			return w.wrap(n.Nibbles, newChildHash)
		}
		if value.IsZero() {
			return hash, nil
		}
		return w.splitExtension(n, key, value)

	case *trie.BranchNode[V]:
		idx, rest, ok := key.SplitFirst()
		if !ok {
			return common.ZeroH256, fmt.Errorf("trie: key exhausted at branch node")
		}
		newChildHash, err := w.insert(n.Children[idx], rest, value)
		if err != nil {
			return common.ZeroH256, err
		}
		children := n.Children
		children[idx] = newChildHash

		nonZero := 0
		var onlyIdx byte
		for i, c := range children {
			if !c.IsZero() {
				nonZero++
				onlyIdx = byte(i)
			}
		}
		switch nonZero {
		case 0:
			return common.ZeroH256, nil
		case 1:
			return w.wrap(trie.Nibbles{onlyIdx}, children[onlyIdx])
		default:
			return w.storeBranch(&trie.BranchNode[V]{Children: children})
		}

	default:
		return common.ZeroH256, fmt.Errorf("trie: unknown node kind at %s", hash)
	}
}

// splitLeaf handles inserting a non-equal key at an existing leaf: the two
// diverge at their first differing nibble, so the tie-break puts the new
// branch (and, if the divergence point is past the start, the extension
// above it) at that point — "the new extension goes to the first differing
// nibble" (§4.B).
func (w *Writer[V]) splitLeaf(n *trie.LeafNode[V], key trie.Nibbles, value V) (common.H256, error) {
	cp := key.CommonPrefixLen(n.Nibbles)
	leafNib, leafRest, _ := n.Nibbles[cp:].SplitFirst()
	keyNib, keyRest, _ := key[cp:].SplitFirst()

	leafHash, err := w.storeLeaf(leafRest, n.Value)
	if err != nil {
		return common.ZeroH256, err
	}
	keyHash, err := w.storeLeaf(keyRest, value)
	if err != nil {
		return common.ZeroH256, err
	}

	branch := &trie.BranchNode[V]{}
	branch.Children[leafNib] = leafHash
	branch.Children[keyNib] = keyHash
	branchHash, err := w.storeBranch(branch)
	if err != nil {
		return common.ZeroH256, err
	}
	return w.wrap(key[:cp], branchHash)
}

// splitExtension handles inserting a key that diverges from an existing
// extension's prefix before reaching its child.
func (w *Writer[V]) splitExtension(n *trie.ExtensionNode[V], key trie.Nibbles, value V) (common.H256, error) {
	cp := key.CommonPrefixLen(n.Nibbles)
	extNib, extRest, _ := n.Nibbles[cp:].SplitFirst()
	keyNib, keyRest, _ := key[cp:].SplitFirst()

	extSideHash, err := w.wrap(extRest, n.ChildHash)
	if err != nil {
		return common.ZeroH256, err
	}
	leafHash, err := w.storeLeaf(keyRest, value)
	if err != nil {
		return common.ZeroH256, err
	}

	branch := &trie.BranchNode[V]{}
	branch.Children[extNib] = extSideHash
	branch.Children[keyNib] = leafHash
	branchHash, err := w.storeBranch(branch)
	if err != nil {
		return common.ZeroH256, err
	}
	return w.wrap(key[:cp], branchHash)
}
