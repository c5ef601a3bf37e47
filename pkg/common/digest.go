package common

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Digestible is implemented by anything that can be folded into a trie or
// block digest. Mirrors the source's Digestible trait: every primitive,
// container and composite type used on a hashed path implements it.
type Digestible interface {
	ToDigest() H256
}

func hash32(parts ...[]byte) H256 {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // blake2b.New256 only fails on bad key length, and we pass none
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out H256
	copy(out[:], h.Sum(nil))
	return out
}

// Hash256 hashes the concatenation of byte slices with BLAKE2b-256.
func Hash256(parts ...[]byte) H256 { return hash32(parts...) }

func (h H256) ToDigest() H256 { return h }

func (a Address) ToDigest() H256 { return Hash256(a[:]) }

func (n Nonce) ToDigest() H256 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	return Hash256(buf[:])
}

func (c Code) ToDigest() H256 {
	if len(c) == 0 {
		return ZeroH256
	}
	return Hash256(c)
}

func (k StateKey) ToDigest() H256 { return H256(k) }

func (v StateValue) ToDigest() H256 { return H256(v) }

func (h BlockHeight) ToDigest() H256 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(h))
	return Hash256(buf[:])
}

// AccountDataDigest hashes the three pre-hashed account fields, following
// the source's account_data_to_digest: special-cased to the zero hash when
// all three inputs are zero. A zero nonce does not hash to zero, so the
// empty account's zero digest comes from AccountData.ToDigest's own check.
func AccountDataDigest(nonceHash, codeHash, accStateRoot H256) H256 {
	if nonceHash.IsZero() && codeHash.IsZero() && accStateRoot.IsZero() {
		return ZeroH256
	}
	return Hash256(nonceHash[:], codeHash[:], accStateRoot[:])
}

// ToDigest returns the zero hash for the empty account, so it never
// contributes weight to its parent branch.
func (a AccountData) ToDigest() H256 {
	if a.IsZero() {
		return ZeroH256
	}
	return AccountDataDigest(a.Nonce.ToDigest(), a.Code.ToDigest(), a.AccStateRoot)
}
