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

// Package consensus wires a chain.VerifyConsensusFn and chain.NewBlockFn
// pair per build (§9: "expose a single verify_consensus_fn(new, prev) and
// a single new_block_fn(header, prev) -> Block per build; the
// verify/commit core is otherwise consensus-agnostic"). PoW and Raft are
// the two variants named in the data model (§3); both are opaque beyond
// this pair, matching §1's Non-goals (peer discovery, Raft log
// replication are out of scope).
package consensus

import (
	"fmt"

	"github.com/slimchain-go/slimchain/pkg/chain"
)

// Name selects a consensus variant from configuration (chain.consensus
// in §6: "pow" | "raft").
type Name string

const (
	PoW  Name = "pow"
	Raft Name = "raft"
)

// Hooks is the pair every build exposes to the verify/commit and propose
// pipelines.
type Hooks struct {
	Name            Name
	VerifyConsensus chain.VerifyConsensusFn
	NewBlock        chain.NewBlockFn
}

// NewHeader builds an empty header of this build's variant, ready for the
// propose pipeline to fill in the shared fields and (for PoW) hand to
// NewBlock for nonce search.
func (h Hooks) NewHeader() chain.Header {
	if h.Name == PoW {
		return &chain.PoWHeader{}
	}
	return &chain.RaftHeader{}
}

// New resolves name (and, for PoW, initDiff from pow.init_diff) into the
// Hooks pair this build runs with.
func New(name Name, initDiff uint64) (Hooks, error) {
	switch name {
	case PoW:
		return Hooks{Name: PoW, VerifyConsensus: chain.PoWVerifyConsensus, NewBlock: chain.PoWNewBlockFn(initDiff)}, nil
	case Raft:
		return Hooks{Name: Raft, VerifyConsensus: chain.RaftVerifyConsensus, NewBlock: chain.RaftNewBlockFn}, nil
	default:
		return Hooks{}, fmt.Errorf("consensus: unknown variant %q", name)
	}
}
