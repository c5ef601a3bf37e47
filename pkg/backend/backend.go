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

// Package backend is the boundary between the executor and an EVM-like
// contract interpreter (§1 Non-goals: interpreter internals are out of
// scope). It names the seam the engine calls through and provides a
// minimal in-memory interpreter that exercises the seam in tests.
package backend

import (
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
)

// Backend runs one TxRequest against a read view of the state rooted at
// stateRoot, returning its output plus the read/write sets the execution
// observed. A real backend constructs itself from (view, stateRoot) fresh
// per call (§4.G); this interface only names the contract.
type Backend interface {
	Execute(view state.TxStateView, stateRoot common.H256, caller common.Address, req chain.TxRequest) (output []byte, reads common.TxReadData, writes common.TxWriteData, err error)
}

// AccountBackend is a minimal interpreter sufficient to exercise the
// executor end-to-end without a real contract VM: Create sets an
// account's code and bumps its nonce; Call records the call's input
// digest as a single state slot, simulating "some effect happened"
// without interpreting bytecode.
type AccountBackend struct{}

func (AccountBackend) Execute(view state.TxStateView, stateRoot common.H256, caller common.Address, req chain.TxRequest) ([]byte, common.TxReadData, common.TxWriteData, error) {
	reads := common.NewTxReadData()
	writes := common.NewTxWriteData()

	acc, err := state.ReadAccount(view, stateRoot, caller)
	if err != nil {
		return nil, nil, nil, err
	}
	nonce := acc.Nonce
	reads.Account(caller).Nonce = &nonce

	switch req.Kind {
	case chain.TxRequestCreate:
		newNonce := nonce + 1
		code := req.Code
		w := writes.Account(caller)
		w.Nonce = &newNonce
		w.Code = &code
		return nil, reads, writes, nil
	case chain.TxRequestCall:
		if req.Nonce != nonce {
			return nil, nil, nil, chain.Errorf(chain.InvalidInput, "stale nonce: have %d, want %d", req.Nonce, nonce)
		}
		calleeAcc, err := state.ReadAccount(view, stateRoot, req.Address)
		if err != nil {
			return nil, nil, nil, err
		}
		reads.Account(req.Address).Code = &calleeAcc.Code

		newNonce := nonce + 1
		w := writes.Account(caller)
		w.Nonce = &newNonce

		key := common.StateKey(common.Hash256(req.Data))
		value := common.StateValue(common.Hash256(req.Data, caller.Bytes()))
		writes.Account(req.Address).Values[key] = value
		return nil, reads, writes, nil
	default:
		return nil, nil, nil, chain.Errorf(chain.InvalidInput, "unknown request kind")
	}
}
