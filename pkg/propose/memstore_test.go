package propose_test

import (
	"sync"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// memStore is a minimal in-memory chain.NodeStore: every node is kept in
// a plain map keyed by its hash, account-trie and per-account state-trie
// nodes in separate namespaces. Good enough to exercise the real
// propose/verify write path without a durable backend.
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

func (m *memStore) PutAccountTrieNode(hash common.H256, node trie.Node[common.AccountData]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accNodes[hash] = node
	return nil
}

func (m *memStore) PutStateTrieNode(addr common.Address, hash common.H256, node trie.Node[common.StateValue]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodes, ok := m.stateNodes[addr]
	if !ok {
		nodes = make(map[common.H256]trie.Node[common.StateValue])
		m.stateNodes[addr] = nodes
	}
	nodes[hash] = node
	return nil
}
