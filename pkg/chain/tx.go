package chain

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/slimchain-go/slimchain/pkg/common"
)

// TxRequestKind distinguishes the two shapes a client can submit: deploy a
// new contract, or invoke an existing one.
type TxRequestKind uint8

const (
	TxRequestCreate TxRequestKind = iota
	TxRequestCall
)

// TxRequest is what a client signs and submits. Exactly one of the
// Create/Call field groups is meaningful, selected by Kind — a tagged
// union rather than two Go types, since both variants share a signer and
// travel through the engine identically up to Backend construction.
type TxRequest struct {
	Kind TxRequestKind

	// Nonce is used by both kinds; Code is a Create field.
	Nonce common.Nonce
	Code  common.Code

	// Call fields.
	Address common.Address
	Data    []byte
}

func NewCreateRequest(nonce common.Nonce, code common.Code) TxRequest {
	return TxRequest{Kind: TxRequestCreate, Nonce: nonce, Code: code}
}

func NewCallRequest(addr common.Address, nonce common.Nonce, data []byte) TxRequest {
	return TxRequest{Kind: TxRequestCall, Address: addr, Nonce: nonce, Data: data}
}

func (r TxRequest) ToDigest() common.H256 {
	switch r.Kind {
	case TxRequestCreate:
		return common.Hash256([]byte{byte(TxRequestCreate)}, r.Nonce.ToDigest().Bytes(), r.Code.ToDigest().Bytes())
	case TxRequestCall:
		return common.Hash256([]byte{byte(TxRequestCall)}, r.Address.ToDigest().Bytes(), r.Nonce.ToDigest().Bytes(), common.Hash256(r.Data).Bytes())
	default:
		panic("chain: unknown TxRequestKind")
	}
}

// Attestation is an opaque TEE quote: the core never interprets its bytes,
// only forwards them to a verify predicate supplied by the enclave build
// (§9, simulated under SGX_MODE=SW).
type Attestation []byte

func (a Attestation) ToDigest() common.H256 {
	if len(a) == 0 {
		return common.ZeroH256
	}
	return common.Hash256(a)
}

// PubSigPair is a signer's public key paired with its signature over a
// digest, carried alongside a RawTx to form a SignedTx.
type PubSigPair struct {
	PK  ed25519.PublicKey
	Sig []byte
}

func (p PubSigPair) ToDigest() common.H256 {
	return common.Hash256(p.PK, p.Sig)
}

func (p PubSigPair) Verify(digest common.H256) bool {
	return len(p.PK) == ed25519.PublicKeySize && ed25519.Verify(p.PK, digest.Bytes(), p.Sig)
}

// RawTx is an executed transaction before signing: the caller, the
// request it satisfies, the snapshot height/root it was executed against,
// and the read/write sets the execution produced.
type RawTx struct {
	Caller        common.Address
	Input         TxRequest
	ExecHeight    common.BlockHeight
	ExecStateRoot common.H256
	Reads         common.TxReadData
	Writes        common.TxWriteData
}

func (t *RawTx) ToDigest() common.H256 {
	return common.Hash256(
		t.Caller.ToDigest().Bytes(),
		t.Input.ToDigest().Bytes(),
		t.ExecHeight.ToDigest().Bytes(),
		t.ExecStateRoot.Bytes(),
		t.Reads.ToDigest().Bytes(),
		t.Writes.ToDigest().Bytes(),
	)
}

func (t *RawTx) Sign(priv ed25519.PrivateKey) PubSigPair {
	digest := t.ToDigest()
	return PubSigPair{PK: priv.Public().(ed25519.PublicKey), Sig: ed25519.Sign(priv, digest.Bytes())}
}

// SignedTx is what travels in a block proposal: a RawTx plus the signer's
// key/signature and, optionally, a TEE attestation covering that key.
type SignedTx struct {
	Raw         RawTx
	PkSig       PubSigPair
	Attestation Attestation
}

func (t *SignedTx) ToDigest() common.H256 {
	return common.Hash256(t.Raw.ToDigest().Bytes(), t.PkSig.ToDigest().Bytes(), t.Attestation.ToDigest().Bytes())
}

// VerifyAttestationFn checks that an attestation covers the given signer
// public key; supplied by the enclave build, or a structural tautology
// under SGX_MODE=SW simulation (§9).
type VerifyAttestationFn func(pk ed25519.PublicKey, att Attestation) error

// VerifySig checks the signature over Raw, and, if attestFn is non-nil and
// an attestation is present, that it covers the signer's public key.
func (t *SignedTx) VerifySig(attestFn VerifyAttestationFn) error {
	if !t.PkSig.Verify(t.Raw.ToDigest()) {
		return errors.New("signature does not verify")
	}
	if len(t.Attestation) > 0 && attestFn != nil {
		if err := attestFn(t.PkSig.PK, t.Attestation); err != nil {
			return errors.WithMessage(err, "attestation does not verify")
		}
	}
	return nil
}
