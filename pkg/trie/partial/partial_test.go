package partial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
	"github.com/slimchain-go/slimchain/pkg/trie/partial"
	"github.com/slimchain-go/slimchain/pkg/trie/storage"
)

type memLoader struct {
	nodes map[common.H256]trie.Node[common.StateValue]
}

func (m *memLoader) LoadNode(hash common.H256) (trie.Node[common.StateValue], error) {
	return m.nodes[hash], nil
}

func key(b byte) []byte {
	k := make([]byte, 32)
	k[0] = b
	return k
}

func buildTestTrie(t *testing.T) (*memLoader, common.H256) {
	t.Helper()
	loader := &memLoader{nodes: make(map[common.H256]trie.Node[common.StateValue])}
	w := storage.NewWriter[common.StateValue](loader, common.H256{})
	require.NoError(t, w.Insert(key(1), common.StateValue{1}))
	require.NoError(t, w.Insert(key(2), common.StateValue{2}))
	apply := w.Changes()
	for h, n := range apply.Nodes {
		loader.nodes[h] = n
	}
	return loader, apply.Root
}

func TestNewEmptyBranch_RootHashIsZero(t *testing.T) {
	b := partial.NewEmptyBranch[common.StateValue]()
	assert.Equal(t, common.ZeroH256, b.RootHash())
}

func TestCanBePruned_HashPlaceholderAlwaysPrunable(t *testing.T) {
	h := &partial.HashSubTree[common.StateValue]{H: common.H256{1}}
	assert.True(t, partial.CanBePruned[common.StateValue](h))
}

func TestCanBePruned_NonEmptyLeafNotPrunable(t *testing.T) {
	leaf := &partial.LeafSubTree[common.StateValue]{Nibbles: trie.Nibbles{1}, Value: common.StateValue{1}}
	assert.False(t, partial.CanBePruned[common.StateValue](leaf))
}

func TestValueHash_ZeroHashPlaceholderAnswersZero(t *testing.T) {
	h := &partial.HashSubTree[common.StateValue]{H: common.ZeroH256}
	got, ok := partial.ValueHash[common.StateValue](h, trie.KeyToNibbles(key(1)))
	assert.True(t, ok)
	assert.Equal(t, common.ZeroH256, got)
}

func TestValueHash_NonZeroHashPlaceholderCannotAnswer(t *testing.T) {
	h := &partial.HashSubTree[common.StateValue]{H: common.H256{9}}
	_, ok := partial.ValueHash[common.StateValue](h, trie.KeyToNibbles(key(1)))
	assert.False(t, ok)
}

func TestBuildProof_AnswersQueriedKeyCorrectly(t *testing.T) {
	loader, root := buildTestTrie(t)
	proof, err := partial.BuildProof[common.StateValue](loader, root, [][]byte{key(1)})
	require.NoError(t, err)
	assert.Equal(t, root, proof.RootHash())

	got, ok := proof.ValueHash(key(1))
	require.True(t, ok)
	assert.Equal(t, common.StateValue{1}.ToDigest(), got)
}

func TestBuildProof_UnqueriedSiblingStaysOpaque(t *testing.T) {
	loader, root := buildTestTrie(t)
	proof, err := partial.BuildProof[common.StateValue](loader, root, [][]byte{key(1)})
	require.NoError(t, err)

	_, ok := proof.ValueHash(key(2))
	assert.False(t, ok)
}

func TestProof_EmptyTrieAnswersEverythingAsZero(t *testing.T) {
	p := &partial.Proof[common.StateValue]{}
	assert.Equal(t, common.ZeroH256, p.RootHash())
	got, ok := p.ValueHash(key(1))
	assert.True(t, ok)
	assert.Equal(t, common.ZeroH256, got)
	assert.True(t, p.CanBePruned())
}

func TestApplyDiff_SplicesExpandedLeafIntoHashBase(t *testing.T) {
	base := &partial.HashSubTree[common.StateValue]{H: common.H256{5}}
	leaf := &partial.LeafSubTree[common.StateValue]{Nibbles: trie.Nibbles{1}, Value: common.StateValue{1}}

	got := partial.ApplyDiff[common.StateValue](base, leaf, true)
	assert.Same(t, leaf, got)
}

func TestApplyDiff_NilDiffReturnsBaseUnchanged(t *testing.T) {
	base := &partial.HashSubTree[common.StateValue]{H: common.H256{5}}
	got := partial.ApplyDiff[common.StateValue](base, nil, false)
	assert.Same(t, base, got)
}

func TestMergeDiff_PrefersConcreteSideOverHashPlaceholder(t *testing.T) {
	leaf := &partial.LeafSubTree[common.StateValue]{Nibbles: trie.Nibbles{1}, Value: common.StateValue{1}}
	hashPlaceholder := &partial.HashSubTree[common.StateValue]{H: common.H256{9}}

	got := partial.MergeDiff[common.StateValue](hashPlaceholder, leaf)
	assert.Same(t, leaf, got)
}

func TestDiffMissingBranches_ReportsHashBaseCannotAnswer(t *testing.T) {
	base := &partial.HashSubTree[common.StateValue]{H: common.H256{9}}
	want := &partial.ExtensionSubTree[common.StateValue]{
		Nibbles: trie.Nibbles{1},
		Child:   &partial.LeafSubTree[common.StateValue]{Nibbles: trie.Nibbles{2}, Value: common.StateValue{1}},
	}

	missing := partial.DiffMissingBranches[common.StateValue](base, want)
	assert.Len(t, missing, 1)
}

func TestDiffMissingBranches_NoneWhenWantIsPrunable(t *testing.T) {
	base := &partial.HashSubTree[common.StateValue]{H: common.H256{9}}
	want := &partial.HashSubTree[common.StateValue]{H: common.ZeroH256}

	missing := partial.DiffMissingBranches[common.StateValue](base, want)
	assert.Empty(t, missing)
}
