package tee

import (
	"crypto/ed25519"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/chain"
)

func TestVerifyFn_SimulatedUnderSGXModeSW(t *testing.T) {
	t.Setenv(SimEnv, "SW")
	verify := VerifyFn(&Config{APIKey: "k"})
	assert.NoError(t, verify(nil, chain.Attestation("anything")))
	assert.Error(t, verify(nil, chain.Attestation(nil)))
}

func TestVerifyFn_SimulatedWhenConfigNil(t *testing.T) {
	require.NoError(t, os.Unsetenv(SimEnv))
	verify := VerifyFn(nil)
	assert.NoError(t, verify(nil, chain.Attestation("x")))
}

func TestVerifyFn_RealPathChecksEmbeddedKey(t *testing.T) {
	require.NoError(t, os.Unsetenv(SimEnv))
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	verify := VerifyFn(&Config{APIKey: "k", SPID: "s"})

	att := append([]byte("quote-bytes-prefix"), pub...)
	assert.NoError(t, verify(pub, chain.Attestation(att)))

	tampered := append([]byte(nil), att...)
	tampered[len(tampered)-1] ^= 0xFF
	assert.Error(t, verify(pub, chain.Attestation(tampered)))
}

func TestVerifyFn_RealPathRejectsShortAttestation(t *testing.T) {
	require.NoError(t, os.Unsetenv(SimEnv))
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	verify := VerifyFn(&Config{})
	assert.Error(t, verify(pub, chain.Attestation("short")))
}
