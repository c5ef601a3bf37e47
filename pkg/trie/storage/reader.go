package storage

import (
	"fmt"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// ReadWithoutProof walks the full (non-partial) trie rooted at root and
// returns the value stored at key, following the read path used by
// update_tx_state (§4.E step 1: read_trie_without_proof).
func ReadWithoutProof[V trie.Value](loader trie.NodeLoader[V], root common.H256, key []byte) (value V, found bool, err error) {
	h := root
	rest := trie.KeyToNibbles(key)

	for {
		if h.IsZero() {
			return value, false, nil
		}
		node, err := loader.LoadNode(h)
		if err != nil {
			return value, false, err
		}
		switch n := node.(type) {
		case *trie.LeafNode[V]:
			if rest.Equal(n.Nibbles) {
				return n.Value, true, nil
			}
			return value, false, nil
		case *trie.ExtensionNode[V]:
			stripped, ok := rest.StripPrefix(n.Nibbles)
			if !ok {
				return value, false, nil
			}
			rest = stripped
			h = n.ChildHash
		case *trie.BranchNode[V]:
			idx, stripped, ok := rest.SplitFirst()
			if !ok {
				return value, false, fmt.Errorf("trie: key exhausted at branch node")
			}
			rest = stripped
			h = n.Children[idx]
		default:
			return value, false, fmt.Errorf("trie: unknown node kind at %s", h)
		}
	}
}
