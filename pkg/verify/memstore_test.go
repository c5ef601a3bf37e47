package verify_test

import (
	"sync"

	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

// memStore is a minimal chain.NodeStore + verify.BlockStore +
// accessmap.Pruner all in one: an in-memory stand-in for pkg/store.Store
// good enough to drive CommitBlock's real write path end to end.
type memStore struct {
	mu         sync.Mutex
	accNodes   map[common.H256]trie.Node[common.AccountData]
	stateNodes map[common.Address]map[common.H256]trie.Node[common.StateValue]
	blocks     map[common.BlockHeight]*chain.Block
	prunedAcc  []common.Address
	prunedKeys []common.StateKey
}

func newMemStore() *memStore {
	return &memStore{
		accNodes:   make(map[common.H256]trie.Node[common.AccountData]),
		stateNodes: make(map[common.Address]map[common.H256]trie.Node[common.StateValue]),
		blocks:     make(map[common.BlockHeight]*chain.Block),
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

func (m *memStore) PutBlock(b *chain.Block, txs []*chain.SignedTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[b.Height()] = b
	return nil
}

func (m *memStore) PruneAccount(addr common.Address, stillTrackedAccounts []common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prunedAcc = append(m.prunedAcc, addr)
	return nil
}

func (m *memStore) PruneAccountStateKey(addr common.Address, key common.StateKey, stillTrackedKeys []common.StateKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prunedKeys = append(m.prunedKeys, key)
	return nil
}
