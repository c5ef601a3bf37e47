// Copyright 2024 The slimchain-go Authors
// This file is part of the slimchain-go library.
//
// The slimchain-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slimchain-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slimchain-go library. If not, see <http://www.gnu.org/licenses/>.

// Package common holds the basic value types shared by every layer of the
// node: content hashes, addresses, and the account record the trie stores.
package common

import (
	"encoding/hex"
	"fmt"
)

// H256 is a 32-byte digest, the output of every hash operation in the chain.
type H256 [32]byte

// ZeroH256 is the canonical empty/zero digest. Every trie operation treats a
// zero hash as "no data" rather than as a valid content address.
var ZeroH256 = H256{}

func BytesToH256(b []byte) (h H256) {
	copy(h[32-len(b):], b)
	return
}

func (h H256) IsZero() bool { return h == ZeroH256 }

func (h H256) Bytes() []byte { return h[:] }

func (h H256) String() string { return hex.EncodeToString(h[:]) }

func (h H256) Less(o H256) bool {
	for i := range h {
		if h[i] != o[i] {
			return h[i] < o[i]
		}
	}
	return false
}

// Address identifies a caller-addressable account. Derived off-chain from a
// public key (or, for contract accounts, from the creator/nonce pair); the
// node never computes that derivation itself, only consumes the result in
// signed tx requests.
type Address [20]byte

func BytesToAddress(b []byte) (a Address) {
	copy(a[20-len(b):], b)
	return
}

func (a Address) String() string { return hex.EncodeToString(a[:]) }

func (a Address) Less(o Address) bool {
	for i := range a {
		if a[i] != o[i] {
			return a[i] < o[i]
		}
	}
	return false
}

// BlockHeight is a block's position in the chain, genesis at zero.
type BlockHeight uint64

func (h BlockHeight) Prev() BlockHeight {
	if h == 0 {
		panic("common: Prev of genesis height")
	}
	return h - 1
}

func (h BlockHeight) Next() BlockHeight { return h + 1 }

func (h BlockHeight) IsZero() bool { return h == 0 }

// Distance is a signed difference between two heights, used by window math
// where the result may be negative (e.g. a height predates the window).
type Distance int64

func (h BlockHeight) Sub(o BlockHeight) Distance { return Distance(int64(h) - int64(o)) }

// Nonce is a monotonically increasing per-account sequence number. Modeled
// as a plain uint64 rather than the arbitrary-precision integer the source
// uses: no component in this spec needs nonce arithmetic beyond increment
// and comparison, and a machine word keeps digest encoding trivial.
type Nonce uint64

// Code is a contract's immutable bytecode blob.
type Code []byte

// StateKey and StateValue address a single slot in an account's private
// state trie.
type StateKey H256
type StateValue H256

func StateValueFromUint64(v uint64) StateValue {
	var sv StateValue
	for i := 0; i < 8; i++ {
		sv[31-i] = byte(v >> (8 * i))
	}
	return sv
}

// AccountData is the record stored at a leaf of the main (address) trie.
type AccountData struct {
	Nonce        Nonce
	Code         Code
	AccStateRoot H256
}

// IsZero reports whether the account record is the default/empty account,
// the condition under which a trie write deletes the corresponding leaf.
func (a AccountData) IsZero() bool {
	return a.Nonce == 0 && len(a.Code) == 0 && a.AccStateRoot.IsZero()
}

func (v StateValue) IsZero() bool { return H256(v).IsZero() }

func (a AccountData) String() string {
	return fmt.Sprintf("AccountData{nonce=%d, code_len=%d, acc_state_root=%s}", a.Nonce, len(a.Code), a.AccStateRoot)
}
