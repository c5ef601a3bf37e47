package trie

import "github.com/slimchain-go/slimchain/pkg/common"

// Value is the constraint satisfied by a trie's leaf payload: the main trie
// stores common.AccountData, each account's state trie stores
// common.StateValue. Both know how to digest themselves and report whether
// they are the zero value (a zero-valued write deletes the key, §4.B).
type Value interface {
	common.Digestible
	IsZero() bool
}

// Node is one of Leaf, Extension or Branch, the three canonical node kinds
// from §3. The storage trie holds only these three; the partial trie
// (pkg/trie/partial) adds a fourth Hash-placeholder kind on top.
type Node[V Value] interface {
	Hash() common.H256
	isNode()
}

type LeafNode[V Value] struct {
	Nibbles Nibbles
	Value   V
}

func (l *LeafNode[V]) Hash() common.H256 { return LeafNodeHash(l.Nibbles, l.Value.ToDigest()) }
func (l *LeafNode[V]) isNode()           {}

type ExtensionNode[V Value] struct {
	Nibbles   Nibbles
	ChildHash common.H256
}

func (e *ExtensionNode[V]) Hash() common.H256 { return ExtensionNodeHash(e.Nibbles, e.ChildHash) }
func (e *ExtensionNode[V]) isNode()           {}

type BranchNode[V Value] struct {
	Children [16]common.H256
}

func (b *BranchNode[V]) Hash() common.H256 { return BranchNodeHash(b.Children) }
func (b *BranchNode[V]) isNode()           {}

// NodeLoader is the only dependency the write/read paths have on
// persistence (§4.B). A content-addressed node is either in memory (a
// just-written Apply) or must be fetched from the durable store; either way
// the caller asks for it by hash only.
type NodeLoader[V Value] interface {
	LoadNode(hash common.H256) (Node[V], error)
}

// ErrNodeNotFound is returned by a NodeLoader when a referenced hash is
// absent. A well-formed store never returns this for a hash that is
// actually reachable from a committed root (§6's write-ahead invariant).
type ErrNodeNotFound struct{ Hash common.H256 }

func (e ErrNodeNotFound) Error() string { return "trie: node not found: " + e.Hash.String() }

// MapLoader answers from an in-memory node set, used both to read back
// nodes an Apply just produced and, composed with a durable loader, to
// layer a TxStateUpdate over the persisted store (§4.D).
type MapLoader[V Value] struct {
	Nodes map[common.H256]Node[V]
	Next  NodeLoader[V] // nil allowed: falls through to ErrNodeNotFound
}

func (m MapLoader[V]) LoadNode(hash common.H256) (Node[V], error) {
	if hash.IsZero() {
		return nil, nil
	}
	if n, ok := m.Nodes[hash]; ok {
		return n, nil
	}
	if m.Next != nil {
		return m.Next.LoadNode(hash)
	}
	return nil, ErrNodeNotFound{Hash: hash}
}
