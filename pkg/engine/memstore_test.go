package engine_test

import (
	"sync"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// memStore is a minimal state.TxStateView fake: an empty map-backed store
// is sufficient since every task here starts from a zero state root, and
// storage.ReadWithoutProof short-circuits on a zero root without ever
// consulting the loader.
type memStore struct {
	mu         sync.Mutex
	accNodes   map[common.H256]trie.Node[common.AccountData]
	stateNodes map[common.Address]map[common.H256]trie.Node[common.StateValue]
}

func newMemStore() *memStore {
	return &memStore{
		accNodes:   make(map[common.H256]trie.Node[common.AccountData]),
		stateNodes: make(map[common.Address]map[common.H256]trie.Node[common.StateValue]),
	}
}

func (m *memStore) AccountTrieNode(hash common.H256) (trie.Node[common.AccountData], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accNodes[hash], nil
}

func (m *memStore) StateTrieNode(addr common.Address, hash common.H256) (trie.Node[common.StateValue], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateNodes[addr][hash], nil
}
