package accessmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
)

func TestAllocNewBlock_StartsAtZeroAndIncrements(t *testing.T) {
	m := NewAccessMap(4)
	h0 := m.AllocNewBlock()
	h1 := m.AllocNewBlock()
	h2 := m.AllocNewBlock()
	assert.Equal(t, common.BlockHeight(0), h0)
	assert.Equal(t, common.BlockHeight(1), h1)
	assert.Equal(t, common.BlockHeight(2), h2)
}

func TestAddRead_AddWrite_PopulateReverseIndex(t *testing.T) {
	m := NewAccessMap(4)
	a := addr(1)
	k := key(1)

	m.AllocNewBlock()
	m.AddRead(readValue(a, k))
	m.AddWrite(writeValue(a, k))

	readRev, ok := m.GetReadRev(a)
	require.True(t, ok)
	assert.Contains(t, readRev.Values, k)

	writeRev, ok := m.GetWriteRev(a)
	require.True(t, ok)
	assert.Contains(t, writeRev.Values, k)
}

func TestNewAccessMapAt_FirstAllocIsCurrentHeightPlusOne(t *testing.T) {
	m := NewAccessMapAt(4, common.BlockHeight(41))
	h := m.AllocNewBlock()
	assert.Equal(t, common.BlockHeight(42), h)
	h2 := m.AllocNewBlock()
	assert.Equal(t, common.BlockHeight(43), h2)
}

func TestRemoveOldestBlock_NoOpBelowWindowSize(t *testing.T) {
	m := NewAccessMap(4)
	m.AllocNewBlock()
	m.AllocNewBlock()
	_, advanced := m.RemoveOldestBlock()
	assert.False(t, advanced)
	assert.Equal(t, common.BlockHeight(0), m.OldestBlockHeight())
}

func TestRemoveOldestBlock_SlidesWindowAndReportsEmptyAccount(t *testing.T) {
	m := NewAccessMap(1) // window of size 1: any second block forces an eviction
	a := addr(1)
	k := key(1)

	m.AllocNewBlock() // height 0
	m.AddWrite(writeValue(a, k))

	m.AllocNewBlock() // height 1, window size is now 2 > stateLen(1)
	pd, advanced := m.RemoveOldestBlock()
	require.True(t, advanced)
	assert.Equal(t, common.BlockHeight(1), m.OldestBlockHeight())

	// The only write to a/k was at the now-evicted height 0, so the
	// account's reverse index is empty and it's reported prunable.
	assert.Contains(t, pd.Accounts, a)
}

func TestRemoveOldestBlock_KeepsAccountStillTouchedAtLaterHeight(t *testing.T) {
	m := NewAccessMap(1)
	a := addr(1)
	k1, k2 := key(1), key(2)

	m.AllocNewBlock() // height 0
	m.AddWrite(writeValue(a, k1))

	m.AllocNewBlock() // height 1
	m.AddWrite(writeValue(a, k2))

	pd, advanced := m.RemoveOldestBlock()
	require.True(t, advanced)

	// a is still tracked (k2 was written at height 1, which survives), so
	// only the specific stale key k1 is reported, not the whole account.
	assert.NotContains(t, pd.Accounts, a)
	assert.Contains(t, pd.Values[a], k1)
}

type fakePruner struct {
	prunedAccounts []common.Address
	prunedKeys     []common.StateKey
}

func (f *fakePruner) PruneAccount(addr common.Address, stillTracked []common.Address) error {
	f.prunedAccounts = append(f.prunedAccounts, addr)
	return nil
}

func (f *fakePruner) PruneAccountStateKey(addr common.Address, k common.StateKey, stillTracked []common.StateKey) error {
	f.prunedKeys = append(f.prunedKeys, k)
	return nil
}

func TestPruningData_Apply_DispatchesToPruner(t *testing.T) {
	m := NewAccessMap(1)
	a, b := addr(1), addr(2)
	ka, kb1, kb2 := key(1), key(2), key(3)

	m.AllocNewBlock()
	m.AddWrite(writeValue(a, ka))
	m.AddWrite(writeValue(b, kb1))

	m.AllocNewBlock()
	m.AddWrite(writeValue(b, kb2))

	pd, advanced := m.RemoveOldestBlock()
	require.True(t, advanced)

	pruner := &fakePruner{}
	require.NoError(t, pd.Apply(m, pruner))

	assert.Contains(t, pruner.prunedAccounts, a)
	assert.Contains(t, pruner.prunedKeys, kb1)
}
