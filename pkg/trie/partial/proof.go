package partial

import (
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// Proof is a SubTree that answers one or more single-key membership
// queries without holding the full trie: everything off the queried
// path(s) stays a Hash placeholder (§4.C). A nil Root denotes the empty
// trie, root hash zero, answering every key with zero.
type Proof[V trie.Value] struct {
	Root SubTree[V]
}

func (p *Proof[V]) RootHash() common.H256 {
	if p.Root == nil {
		return common.ZeroH256
	}
	return p.Root.RootHash()
}

func (p *Proof[V]) ValueHash(key []byte) (common.H256, bool) {
	if p.Root == nil {
		return common.ZeroH256, true
	}
	return ValueHash[V](p.Root, trie.KeyToNibbles(key))
}

func (p *Proof[V]) CanBePruned() bool {
	if p.Root == nil {
		return true
	}
	return CanBePruned[V](p.Root)
}

// BuildProof materializes a Proof of every key in keys against the trie
// rooted at root, loading only the nodes on those keys' paths; every
// sibling subtree off those paths is left as a Hash placeholder.
func BuildProof[V trie.Value](loader trie.NodeLoader[V], root common.H256, keys [][]byte) (*Proof[V], error) {
	p := &Proof[V]{Root: &HashSubTree[V]{H: root}}
	for _, key := range keys {
		newRoot, err := expand(loader, p.Root, trie.KeyToNibbles(key))
		if err != nil {
			return nil, err
		}
		p.Root = newRoot
	}
	return p, nil
}

// expand walks down toward key, loading and splicing in real node data for
// every Hash placeholder it passes through, and leaves everything off the
// path untouched. This is the Go shape of the original's search_prefix:
// instead of mutating through a raw pointer, it rebuilds the path bottom-up.
func expand[V trie.Value](loader trie.NodeLoader[V], node SubTree[V], key trie.Nibbles) (SubTree[V], error) {
	switch n := node.(type) {
	case *HashSubTree[V]:
		if n.H.IsZero() {
			return n, nil
		}
		loaded, err := loader.LoadNode(n.H)
		if err != nil {
			return nil, err
		}
		return expand(loader, fromTrieNode[V](loaded), key)

	case *LeafSubTree[V]:
		return n, nil

	case *ExtensionSubTree[V]:
		rest, ok := key.StripPrefix(n.Nibbles)
		if !ok {
			return n, nil
		}
		child, err := expand(loader, n.Child, rest)
		if err != nil {
			return nil, err
		}
		return &ExtensionSubTree[V]{Nibbles: n.Nibbles, Child: child}, nil

	case *BranchSubTree[V]:
		idx, rest, ok := key.SplitFirst()
		if !ok {
			return n, nil
		}
		children := n.Children
		child, err := expand(loader, children[idx], rest)
		if err != nil {
			return nil, err
		}
		children[idx] = child
		return &BranchSubTree[V]{Children: children}, nil

	default:
		return node, nil
	}
}

// fromTrieNode converts a concrete, fully-materialized trie node into its
// SubTree form, leaving a Branch's children and an Extension's child as
// Hash placeholders one level down (they get expanded in turn as expand
// recurses into them).
func fromTrieNode[V trie.Value](n trie.Node[V]) SubTree[V] {
	switch t := n.(type) {
	case *trie.LeafNode[V]:
		return &LeafSubTree[V]{Nibbles: t.Nibbles, Value: t.Value}
	case *trie.ExtensionNode[V]:
		return &ExtensionSubTree[V]{Nibbles: t.Nibbles, Child: &HashSubTree[V]{H: t.ChildHash}}
	case *trie.BranchNode[V]:
		b := &BranchSubTree[V]{}
		for i, h := range t.Children {
			b.Children[i] = &HashSubTree[V]{H: h}
		}
		return b
	default:
		return &HashSubTree[V]{H: common.ZeroH256}
	}
}
