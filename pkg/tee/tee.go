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

// Package tee treats TEE attestation as an opaque blob plus a verify
// predicate (§1 Non-goals): the attestation primitives themselves (SGX
// quote generation/verification) are out of scope, only the shape of the
// hook the rest of the node calls through.
package tee

import (
	"crypto/ed25519"
	"os"

	"github.com/pkg/errors"
	"github.com/slimchain-go/slimchain/pkg/chain"
)

// SimEnv is the environment variable that, set to "SW", switches
// attestation verification to a structural tautology so tests can
// exercise the same code path without real enclave hardware (§6).
const SimEnv = "SGX_MODE"

// Config names an enclave's identity for real-attestation verification;
// fields mirror the config keys in §6 (tee.api_key, tee.spid, tee.linkable).
type Config struct {
	APIKey   string
	SPID     string
	Linkable bool
}

// VerifyFn builds the chain.VerifyAttestationFn this node will use: the
// real check if cfg is non-nil and SGX_MODE is not "SW", or the simulated
// tautology otherwise.
func VerifyFn(cfg *Config) chain.VerifyAttestationFn {
	if os.Getenv(SimEnv) == "SW" || cfg == nil {
		return simulatedVerify
	}
	return cfg.verify
}

// simulatedVerify accepts any non-empty attestation, the structural check
// §9 describes for SGX_MODE=SW.
func simulatedVerify(_ ed25519.PublicKey, att chain.Attestation) error {
	if len(att) == 0 {
		return errors.New("tee: empty attestation")
	}
	return nil
}

// verify is the real-hardware path. Quote parsing/IAS verification is out
// of scope (§1); this checks only the structural invariant the rest of
// the node relies on: that the quote's embedded report data covers the
// signer's public key.
func (cfg *Config) verify(pk ed25519.PublicKey, att chain.Attestation) error {
	if len(att) < len(pk) {
		return errors.New("tee: attestation too short to embed signer key")
	}
	reportData := att[len(att)-len(pk):]
	for i := range pk {
		if reportData[i] != pk[i] {
			return errors.New("tee: attestation does not cover signer public key")
		}
	}
	return nil
}
