package trie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

func TestLeafNodeHash_ZeroValueHashIsZero(t *testing.T) {
	got := trie.LeafNodeHash(trie.Nibbles{1, 2}, common.ZeroH256)
	assert.Equal(t, common.ZeroH256, got)
}

func TestLeafNodeHash_NonZeroDependsOnNibblesAndValue(t *testing.T) {
	v := common.H256{1}
	a := trie.LeafNodeHash(trie.Nibbles{1}, v)
	b := trie.LeafNodeHash(trie.Nibbles{2}, v)
	assert.NotEqual(t, common.ZeroH256, a)
	assert.NotEqual(t, a, b)
}

func TestExtensionNodeHash_ZeroChildIsZero(t *testing.T) {
	got := trie.ExtensionNodeHash(trie.Nibbles{1}, common.ZeroH256)
	assert.Equal(t, common.ZeroH256, got)
}

func TestExtensionNodeHash_NonZeroChild(t *testing.T) {
	got := trie.ExtensionNodeHash(trie.Nibbles{1}, common.H256{9})
	assert.NotEqual(t, common.ZeroH256, got)
}

func TestBranchNodeHash_AllZeroChildrenIsZero(t *testing.T) {
	var children [16]common.H256
	assert.Equal(t, common.ZeroH256, trie.BranchNodeHash(children))
}

func TestBranchNodeHash_SingleNonZeroChildChangesResult(t *testing.T) {
	var children [16]common.H256
	zero := trie.BranchNodeHash(children)
	children[3] = common.H256{7}
	nonZero := trie.BranchNodeHash(children)
	assert.NotEqual(t, zero, nonZero)
}
