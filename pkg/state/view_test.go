package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

type memView struct {
	accNodes   map[common.H256]trie.Node[common.AccountData]
	stateNodes map[common.Address]map[common.H256]trie.Node[common.StateValue]
}

func newMemView() *memView {
	return &memView{
		accNodes:   make(map[common.H256]trie.Node[common.AccountData]),
		stateNodes: make(map[common.Address]map[common.H256]trie.Node[common.StateValue]),
	}
}

func (m *memView) AccountTrieNode(hash common.H256) (trie.Node[common.AccountData], error) {
	return m.accNodes[hash], nil
}

func (m *memView) StateTrieNode(addr common.Address, hash common.H256) (trie.Node[common.StateValue], error) {
	return m.stateNodes[addr][hash], nil
}

func TestReadAccount_ZeroRootReturnsZeroValue(t *testing.T) {
	acc, err := state.ReadAccount(newMemView(), common.H256{}, common.Address{1})
	require.NoError(t, err)
	assert.Equal(t, common.AccountData{}, acc)
}

func TestReadStateValue_ZeroRootReturnsZeroValue(t *testing.T) {
	v, err := state.ReadStateValue(newMemView(), common.H256{}, common.Address{1}, common.StateKey{1})
	require.NoError(t, err)
	assert.Equal(t, common.StateValue{}, v)
}

func TestAccountTrieView_LoadNodeDelegatesToView(t *testing.T) {
	view := newMemView()
	leaf := &trie.LeafNode[common.AccountData]{Value: common.AccountData{Nonce: 1}}
	view.accNodes[common.H256{1}] = leaf

	atv := state.NewAccountTrieView(view)
	got, err := atv.LoadNode(common.H256{1})
	require.NoError(t, err)
	assert.Same(t, leaf, got)
}

func TestStateTrieView_LoadNodeScopedToAccount(t *testing.T) {
	view := newMemView()
	leaf := &trie.LeafNode[common.StateValue]{Value: common.StateValue{1}}
	view.stateNodes[common.Address{9}] = map[common.H256]trie.Node[common.StateValue]{common.H256{1}: leaf}

	stv := state.NewStateTrieView(view, common.Address{9})
	got, err := stv.LoadNode(common.H256{1})
	require.NoError(t, err)
	assert.Same(t, leaf, got)

	otherAcc := state.NewStateTrieView(view, common.Address{8})
	got2, err := otherAcc.LoadNode(common.H256{1})
	require.NoError(t, err)
	assert.Nil(t, got2)
}
