package chain

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_NilErrorStaysNil(t *testing.T) {
	assert.NoError(t, Wrap(Internal, nil, "should stay nil"))
}

func TestWrap_PreservesKindAndCause(t *testing.T) {
	err := Wrap(TxConflict, io.EOF, "replaying tx")
	assert.True(t, Is(err, TxConflict))
	assert.False(t, Is(err, TxFreshness))
	assert.ErrorIs(t, err, io.EOF)
}

func TestErrorf_BuildsTaggedError(t *testing.T) {
	err := Errorf(StateRootMismatch, "root %s != %s", "a", "b")
	assert.True(t, Is(err, StateRootMismatch))
	assert.Contains(t, err.Error(), "state_root_mismatch")
	assert.Contains(t, err.Error(), "root a != b")
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, Is(io.EOF, Internal))
	assert.False(t, Is(nil, Internal))
}

func TestKind_StringCoversEveryValue(t *testing.T) {
	cases := map[Kind]string{
		HeaderMismatch:      "header_mismatch",
		ConsensusInvalid:    "consensus_invalid",
		TxFreshness:         "tx_freshness",
		TxSignatureInvalid:  "tx_signature_invalid",
		TxConflict:          "tx_conflict",
		TrieVerify:          "trie_verify",
		StateRootMismatch:   "state_root_mismatch",
		NotFound:            "not_found",
		InvalidInput:        "invalid_input",
		Internal:            "internal",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
