package txstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/txstate"
)

func TestBuildTxReadProof_VerifiesAgainstMatchingReads(t *testing.T) {
	view := newMemView()
	addr := common.Address{1}
	key := common.StateKey{2}
	writes := common.NewTxWriteData()
	nonce := common.Nonce(3)
	w := writes.Account(addr)
	w.Nonce = &nonce
	w.Values[key] = common.StateValue{9}

	update, err := txstate.UpdateTxState(view, common.H256{}, writes)
	require.NoError(t, err)
	view.apply(update)

	reads := common.NewTxReadData()
	r := reads.Account(addr)
	n := common.Nonce(3)
	r.Nonce = &n
	r.Values[key] = common.StateValue{9}

	proof, err := txstate.BuildTxReadProof(view, update.Root, reads)
	require.NoError(t, err)
	assert.NoError(t, proof.Verify(reads, update.Root))
}

func TestTxReadProof_Verify_RejectsWrongNonce(t *testing.T) {
	view := newMemView()
	addr := common.Address{1}
	writes := common.NewTxWriteData()
	nonce := common.Nonce(3)
	writes.Account(addr).Nonce = &nonce

	update, err := txstate.UpdateTxState(view, common.H256{}, writes)
	require.NoError(t, err)
	view.apply(update)

	reads := common.NewTxReadData()
	wrong := common.Nonce(99)
	reads.Account(addr).Nonce = &wrong

	proof, err := txstate.BuildTxReadProof(view, update.Root, reads)
	require.NoError(t, err)
	assert.Error(t, proof.Verify(reads, update.Root))
}

func TestTxReadProof_Verify_RejectsWrongStateRoot(t *testing.T) {
	view := newMemView()
	addr := common.Address{1}
	writes := common.NewTxWriteData()
	nonce := common.Nonce(1)
	writes.Account(addr).Nonce = &nonce

	update, err := txstate.UpdateTxState(view, common.H256{}, writes)
	require.NoError(t, err)
	view.apply(update)

	reads := common.NewTxReadData()
	n := common.Nonce(1)
	reads.Account(addr).Nonce = &n

	proof, err := txstate.BuildTxReadProof(view, update.Root, reads)
	require.NoError(t, err)
	assert.Error(t, proof.Verify(reads, common.H256{0xFF}))
}
