package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/store"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{Dir: t.TempDir(), Backend: store.LevelDB, CacheSizeMB: 4, NumHandles: 64})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func testBlock(height common.BlockHeight) *chain.Block {
	h := &chain.RaftHeader{}
	h.SetFields(height, common.H256{}, time.Unix(1000, 0), chain.BlockTxList(nil).ToDigest(), common.H256{})
	return &chain.Block{Header: h, TxList: nil}
}

func TestStore_PutGetBlockRoundTrips(t *testing.T) {
	s := openTestStore(t)
	b := testBlock(0)

	require.NoError(t, s.PutBlock(b, nil))

	got, err := s.GetBlock(0)
	require.NoError(t, err)
	assert.Equal(t, b.Height(), got.Height())
	assert.Equal(t, b.ToDigest(), got.ToDigest())

	height, err := s.LatestHeight()
	require.NoError(t, err)
	assert.Equal(t, common.BlockHeight(0), height)
}

func TestStore_GetBlock_NotFoundBeforeCommit(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetBlock(5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_LatestHeight_NotFoundBeforeGenesis(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LatestHeight()
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_PutMetaGetMeta(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutMeta("epoch", []byte{1, 2, 3}))
	v, err := s.GetMeta("epoch")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, v)
}

func TestStore_ReplayBlocks_WalksInHeightOrder(t *testing.T) {
	s := openTestStore(t)
	for h := common.BlockHeight(0); h <= 2; h = h.Next() {
		require.NoError(t, s.PutBlock(testBlock(h), nil))
	}

	var seen []common.BlockHeight
	err := s.ReplayBlocks(func(b *chain.Block) error {
		seen = append(seen, b.Height())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []common.BlockHeight{0, 1, 2}, seen)
}

func TestStore_AccountTrieNode_ZeroHashIsNoData(t *testing.T) {
	s := openTestStore(t)
	node, err := s.AccountTrieNode(common.H256{})
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestStore_PutGetAccountTrieNode_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	leaf := &trie.LeafNode[common.AccountData]{
		Nibbles: trie.Nibbles{1, 2, 3},
		Value:   common.AccountData{Nonce: 7, Code: []byte("code")},
	}
	hash := common.H256{0x42}

	require.NoError(t, s.PutAccountTrieNode(hash, leaf))
	got, err := s.AccountTrieNode(hash)
	require.NoError(t, err)
	gotLeaf, ok := got.(*trie.LeafNode[common.AccountData])
	require.True(t, ok)
	assert.Equal(t, common.Nonce(7), gotLeaf.Value.Nonce)
	assert.Equal(t, common.Code("code"), gotLeaf.Value.Code)
}

func TestStore_PutGetStateTrieNode_ScopedByAddress(t *testing.T) {
	s := openTestStore(t)
	addr := common.Address{9}
	hash := common.H256{0x7}
	leaf := &trie.LeafNode[common.StateValue]{Nibbles: trie.Nibbles{4}, Value: common.StateValue{1}}

	require.NoError(t, s.PutStateTrieNode(addr, hash, leaf))

	got, err := s.StateTrieNode(addr, hash)
	require.NoError(t, err)
	require.NotNil(t, got)

	other, err := s.StateTrieNode(common.Address{8}, hash)
	var notFound trie.ErrNodeNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Nil(t, other)
}

func TestStore_PruneAccount_RemovesOnlyThatAddressPrefix(t *testing.T) {
	s := openTestStore(t)
	a := common.Address{1}
	b := common.Address{2}
	leaf := &trie.LeafNode[common.StateValue]{Nibbles: trie.Nibbles{1}, Value: common.StateValue{1}}

	require.NoError(t, s.PutStateTrieNode(a, common.H256{1}, leaf))
	require.NoError(t, s.PutStateTrieNode(b, common.H256{2}, leaf))

	require.NoError(t, s.PruneAccount(a, nil))

	gotA, err := s.StateTrieNode(a, common.H256{1})
	var notFound trie.ErrNodeNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Nil(t, gotA)

	gotB, err := s.StateTrieNode(b, common.H256{2})
	require.NoError(t, err)
	assert.NotNil(t, gotB)
}

func TestStore_PruneAccountStateKey_IsNoOp(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.PruneAccountStateKey(common.Address{1}, common.StateKey{1}, nil))
}
