package accessmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
)

func addr(b byte) common.Address {
	var a common.Address
	a[0] = b
	return a
}

func key(b byte) common.StateKey {
	var k common.StateKey
	k[0] = b
	return k
}

func writeNonce(addr common.Address) common.TxWriteData {
	d := common.NewTxWriteData()
	n := common.Nonce(1)
	d.Account(addr).Nonce = &n
	return d
}

func writeValue(a common.Address, k common.StateKey) common.TxWriteData {
	d := common.NewTxWriteData()
	var v common.StateValue
	v[0] = 0xAB
	d.Account(a).Values[k] = v
	return d
}

func readValue(a common.Address, k common.StateKey) common.TxReadData {
	d := common.NewTxReadData()
	var v common.StateValue
	d.Account(a).Values[k] = v
	return d
}

func TestOCCConflictCheck_NoHistory(t *testing.T) {
	m := NewAccessMap(8)
	occ := OCCConflictCheck{}
	a := addr(1)
	assert.False(t, occ.HasConflict(m, 0, readValue(a, key(1)), nil))
}

func TestOCCConflictCheck_WriteWriteConflict(t *testing.T) {
	m := NewAccessMap(8)
	occ := OCCConflictCheck{}
	a := addr(1)
	k := key(1)

	execHeight := m.AllocNewBlock()
	h1 := m.AllocNewBlock()
	require.Greater(t, h1, execHeight)
	m.AddWrite(writeValue(a, k))

	// A tx that executed at execHeight and wants to write k conflicts,
	// since k was written again at h1.
	assert.True(t, occ.HasConflict(m, execHeight, nil, writeValue(a, k)))
}

func TestOCCConflictCheck_ReadWriteConflict(t *testing.T) {
	m := NewAccessMap(8)
	occ := OCCConflictCheck{}
	a := addr(1)
	k := key(1)

	execHeight := m.AllocNewBlock()
	m.AllocNewBlock()
	m.AddWrite(writeValue(a, k))

	// A tx that read k at execHeight is stale: k was written after it.
	assert.True(t, occ.HasConflict(m, execHeight, readValue(a, k), nil))
}

func TestOCCConflictCheck_DisjointFieldsNoConflict(t *testing.T) {
	m := NewAccessMap(8)
	occ := OCCConflictCheck{}
	a := addr(1)

	execHeight := m.AllocNewBlock()
	m.AllocNewBlock()
	m.AddWrite(writeValue(a, key(2)))

	// Reading/writing a disjoint key on the same account never conflicts
	// under OCC, since the reverse index is tracked per field/key.
	assert.False(t, occ.HasConflict(m, execHeight, readValue(a, key(1)), writeValue(a, key(1))))
}

func TestSSIConflictCheck_SingleAntidependencyAlone(t *testing.T) {
	m := NewAccessMap(8)
	ssi := SSIConflictCheck{}
	a := addr(1)
	k1, k2 := key(1), key(2)

	execHeight := m.AllocNewBlock()
	m.AllocNewBlock()
	m.AddWrite(writeValue(a, k1))

	// Our write to k2 doesn't collide with anything written since
	// execHeight (only k1 was touched) and we have no read set to pair
	// with an rw antidependency, so SSI lets this through where OCC's
	// write-write rule is irrelevant here anyway.
	assert.False(t, ssi.HasConflict(m, execHeight, nil, writeValue(a, k2)))
}

func TestSSIConflictCheck_RejectsWriteWriteCollision(t *testing.T) {
	m := NewAccessMap(8)
	ssi := SSIConflictCheck{}
	a := addr(1)
	k := key(1)

	execHeight := m.AllocNewBlock()
	m.AllocNewBlock()
	m.AddWrite(writeValue(a, k))

	assert.True(t, ssi.HasConflict(m, execHeight, nil, writeValue(a, k)))
}

func TestSSIConflictCheck_RejectsRWAndWRPair(t *testing.T) {
	m := NewAccessMap(8)
	ssi := SSIConflictCheck{}
	a, b := addr(1), addr(2)
	ka, kb := key(1), key(2)

	execHeight := m.AllocNewBlock()
	m.AllocNewBlock()
	// Since execHeight: a.ka was written (our read of a.ka is now stale,
	// a wr antidependency), and b.kb was... nothing yet. Build the other
	// side: our write to b.kb conflicts with a read of b.kb recorded since
	// execHeight, forming the rw antidependency.
	m.AddWrite(writeValue(a, ka))
	m.AddRead(readValue(b, kb))

	reads := readValue(a, ka)
	writes := writeValue(b, kb)
	assert.True(t, ssi.HasConflict(m, execHeight, reads, writes))
}

func TestNew_UnknownNameFails(t *testing.T) {
	_, ok := New("serializable")
	assert.False(t, ok)
}

func TestNew_KnownNames(t *testing.T) {
	occ, ok := New("occ")
	require.True(t, ok)
	assert.IsType(t, OCCConflictCheck{}, occ)

	ssi, ok := New("ssi")
	require.True(t, ok)
	assert.IsType(t, SSIConflictCheck{}, ssi)
}
