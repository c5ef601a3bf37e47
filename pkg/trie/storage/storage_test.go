package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
	"github.com/slimchain-go/slimchain/pkg/trie/storage"
)

type memLoader struct {
	nodes map[common.H256]trie.Node[common.StateValue]
}

func newMemLoader() *memLoader {
	return &memLoader{nodes: make(map[common.H256]trie.Node[common.StateValue])}
}

func (m *memLoader) LoadNode(hash common.H256) (trie.Node[common.StateValue], error) {
	return m.nodes[hash], nil
}

func (m *memLoader) persist(apply storage.Apply[common.StateValue]) {
	for h, n := range apply.Nodes {
		m.nodes[h] = n
	}
}

func key(b byte) []byte {
	k := make([]byte, 32)
	k[0] = b
	return k
}

func TestReadWithoutProof_ZeroRootReturnsNotFound(t *testing.T) {
	loader := newMemLoader()
	_, found, err := storage.ReadWithoutProof[common.StateValue](loader, common.H256{}, key(1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWriterInsert_SingleKeyReadBack(t *testing.T) {
	loader := newMemLoader()
	w := storage.NewWriter[common.StateValue](loader, common.H256{})
	require.NoError(t, w.Insert(key(1), common.StateValue{9}))
	apply := w.Changes()
	loader.persist(apply)

	got, found, err := storage.ReadWithoutProof[common.StateValue](loader, apply.Root, key(1))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, common.StateValue{9}, got)
}

func TestWriterInsert_MultipleKeysAllReadable(t *testing.T) {
	loader := newMemLoader()
	w := storage.NewWriter[common.StateValue](loader, common.H256{})
	vals := map[byte]common.StateValue{1: {1}, 2: {2}, 0x10: {3}}
	for k, v := range vals {
		require.NoError(t, w.Insert(key(k), v))
	}
	apply := w.Changes()
	loader.persist(apply)

	for k, v := range vals {
		got, found, err := storage.ReadWithoutProof[common.StateValue](loader, apply.Root, key(k))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, v, got)
	}

	_, found, err := storage.ReadWithoutProof[common.StateValue](loader, apply.Root, key(0xFF))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWriterInsert_ZeroValueDeletesKey(t *testing.T) {
	loader := newMemLoader()
	w := storage.NewWriter[common.StateValue](loader, common.H256{})
	require.NoError(t, w.Insert(key(1), common.StateValue{9}))
	require.NoError(t, w.Insert(key(2), common.StateValue{8}))
	apply := w.Changes()
	loader.persist(apply)

	w2 := storage.NewWriter[common.StateValue](loader, apply.Root)
	require.NoError(t, w2.Insert(key(1), common.StateValue{}))
	apply2 := w2.Changes()
	loader.persist(apply2)

	_, found, err := storage.ReadWithoutProof[common.StateValue](loader, apply2.Root, key(1))
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err := storage.ReadWithoutProof[common.StateValue](loader, apply2.Root, key(2))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, common.StateValue{8}, got)
}

func TestWriterInsert_DeletingEveryKeyCollapsesToZeroRoot(t *testing.T) {
	loader := newMemLoader()
	w := storage.NewWriter[common.StateValue](loader, common.H256{})
	require.NoError(t, w.Insert(key(1), common.StateValue{9}))
	apply := w.Changes()
	loader.persist(apply)

	w2 := storage.NewWriter[common.StateValue](loader, apply.Root)
	require.NoError(t, w2.Insert(key(1), common.StateValue{}))
	apply2 := w2.Changes()
	assert.Equal(t, common.H256{}, apply2.Root)
}

func TestWriterInsert_OverwriteExistingKeyChangesValue(t *testing.T) {
	loader := newMemLoader()
	w := storage.NewWriter[common.StateValue](loader, common.H256{})
	require.NoError(t, w.Insert(key(1), common.StateValue{1}))
	apply := w.Changes()
	loader.persist(apply)

	w2 := storage.NewWriter[common.StateValue](loader, apply.Root)
	require.NoError(t, w2.Insert(key(1), common.StateValue{2}))
	apply2 := w2.Changes()
	loader.persist(apply2)

	got, found, err := storage.ReadWithoutProof[common.StateValue](loader, apply2.Root, key(1))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, common.StateValue{2}, got)
}
