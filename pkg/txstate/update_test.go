package txstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
	"github.com/slimchain-go/slimchain/pkg/trie"
	"github.com/slimchain-go/slimchain/pkg/txstate"
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

func (m *memView) apply(u *txstate.TxStateUpdate) {
	for h, n := range u.AccNodes {
		m.accNodes[h] = n
	}
	for addr, nodes := range u.StateNodes {
		dst, ok := m.stateNodes[addr]
		if !ok {
			dst = make(map[common.H256]trie.Node[common.StateValue])
			m.stateNodes[addr] = dst
		}
		for h, n := range nodes {
			dst[h] = n
		}
	}
}

func TestUpdateTxState_WritesNewAccountFromZeroRoot(t *testing.T) {
	view := newMemView()
	addr := common.Address{1}
	writes := common.NewTxWriteData()
	nonce := common.Nonce(1)
	code := common.Code("hello")
	w := writes.Account(addr)
	w.Nonce = &nonce
	w.Code = &code

	update, err := txstate.UpdateTxState(view, common.H256{}, writes)
	require.NoError(t, err)
	assert.NotEqual(t, common.H256{}, update.Root)
	assert.NotEmpty(t, update.AccNodes)

	view.apply(update)
	acc, err := state.ReadAccount(view, update.Root, addr)
	require.NoError(t, err)
	assert.Equal(t, common.Nonce(1), acc.Nonce)
	assert.Equal(t, common.Code("hello"), acc.Code)
}

func TestUpdateTxState_WritesStateValuesAndUpdatesAccStateRoot(t *testing.T) {
	view := newMemView()
	addr := common.Address{2}
	key := common.StateKey{5}
	val := common.StateValue{9}
	writes := common.NewTxWriteData()
	writes.Account(addr).Values[key] = val

	update, err := txstate.UpdateTxState(view, common.H256{}, writes)
	require.NoError(t, err)
	view.apply(update)

	acc, err := state.ReadAccount(view, update.Root, addr)
	require.NoError(t, err)
	assert.NotEqual(t, common.H256{}, acc.AccStateRoot)

	got, err := state.ReadStateValue(view, acc.AccStateRoot, addr, key)
	require.NoError(t, err)
	assert.Equal(t, val, got)
}

func TestUpdateTxState_ResetValuesStartsStateTrieFromEmpty(t *testing.T) {
	view := newMemView()
	addr := common.Address{3}
	oldKey := common.StateKey{1}
	firstWrites := common.NewTxWriteData()
	firstWrites.Account(addr).Values[oldKey] = common.StateValue{1}
	update1, err := txstate.UpdateTxState(view, common.H256{}, firstWrites)
	require.NoError(t, err)
	view.apply(update1)

	resetWrites := common.NewTxWriteData()
	w := resetWrites.Account(addr)
	w.ResetValues = true
	newKey := common.StateKey{2}
	w.Values[newKey] = common.StateValue{2}

	update2, err := txstate.UpdateTxState(view, update1.Root, resetWrites)
	require.NoError(t, err)
	view.apply(update2)

	acc, err := state.ReadAccount(view, update2.Root, addr)
	require.NoError(t, err)
	_, err = state.ReadStateValue(view, acc.AccStateRoot, addr, oldKey)
	require.NoError(t, err)
	got, err := state.ReadStateValue(view, acc.AccStateRoot, addr, newKey)
	require.NoError(t, err)
	assert.Equal(t, common.StateValue{2}, got)
}

func TestTxStateUpdate_MergeLatterRootWinsAndNodesCombine(t *testing.T) {
	a := txstate.NewTxStateUpdate()
	a.Root = common.H256{1}
	a.AccNodes[common.H256{1}] = &trie.LeafNode[common.AccountData]{}

	b := txstate.NewTxStateUpdate()
	b.Root = common.H256{2}
	b.AccNodes[common.H256{2}] = &trie.LeafNode[common.AccountData]{}

	a.Merge(b)
	assert.Equal(t, common.H256{2}, a.Root)
	assert.Len(t, a.AccNodes, 2)
}

func TestViewWithUpdate_PrefersOverlayNodesOverBase(t *testing.T) {
	base := newMemView()
	baseLeaf := &trie.LeafNode[common.AccountData]{Value: common.AccountData{Nonce: 1}}
	base.accNodes[common.H256{1}] = baseLeaf

	overlay := txstate.NewTxStateUpdate()
	overlayLeaf := &trie.LeafNode[common.AccountData]{Value: common.AccountData{Nonce: 2}}
	overlay.AccNodes[common.H256{1}] = overlayLeaf

	view := txstate.NewViewWithUpdate(base, overlay)
	got, err := view.AccountTrieNode(common.H256{1})
	require.NoError(t, err)
	assert.Same(t, overlayLeaf, got)

	got2, err := view.AccountTrieNode(common.H256{9})
	require.NoError(t, err)
	assert.Nil(t, got2)
}
