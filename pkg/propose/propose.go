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

// Package propose implements the miner's block-proposal pipeline (§4.I):
// pull executed tx proposals off the engine's result queue, admit the
// ones that are still fresh, still validly signed, and still
// conflict-free against the access map, fold their writes into the next
// state root, and compose the result into a Block via the active
// consensus's NewBlockFn.
package propose

import (
	"context"
	"time"

	"github.com/slimchain-go/slimchain/internal/log"
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/consensus"
	"github.com/slimchain-go/slimchain/pkg/engine"
)

var logger = log.NewModuleLogger("propose")

// MinerConfig governs when Propose stops accumulating candidates and
// composes a block (§6 miner.{min_txs,max_txs,max_block_interval}).
type MinerConfig struct {
	// MinTxs is the fewest transactions worth closing a block for once
	// MaxBlockInterval has elapsed; below it, Propose keeps waiting.
	MinTxs int
	// MaxTxs closes the block immediately once reached, regardless of
	// how much of MaxBlockInterval remains.
	MaxTxs int
	// MaxBlockInterval bounds how long Propose waits, from its own
	// start, before it is willing to close a block with only MinTxs.
	MaxBlockInterval time.Duration
}

// Propose runs one full proposal round: allocate the next access-map
// slot, admit candidates from results until an exit condition fires, fold
// their writes into a new state root, and compose the block. A nil block
// with a nil error means no transaction was admitted (the "none ready"
// case, distinct from a hard failure).
func Propose(
	ctx context.Context,
	snap *chain.Snapshot,
	hooks consensus.Hooks,
	attestFn chain.VerifyAttestationFn,
	results <-chan engine.TxTaskOutput,
	cfg MinerConfig,
) (*chain.Block, []*chain.SignedTx, error) {
	nextHeight := snap.AccessMap.AllocNewBlock()
	prev := snap.LatestBlock()

	accumulator := make(common.TxWriteData)
	var accepted []*chain.SignedTx
	var txDigests chain.BlockTxList

	deadline := time.Now().Add(cfg.MaxBlockInterval)

collect:
	for {
		if cfg.MaxTxs > 0 && len(accepted) >= cfg.MaxTxs {
			break collect
		}
		if len(accepted) >= cfg.MinTxs && !time.Now().Before(deadline) {
			break collect
		}

		// Below MinTxs there is nothing useful to close the block with
		// yet, so there is no reason to wake up early; once MinTxs is
		// met, arm a timer for the rest of the interval so reaching the
		// deadline interrupts a stalled results channel.
		var timer *time.Timer
		var deadlineC <-chan time.Time
		if len(accepted) >= cfg.MinTxs {
			timer = time.NewTimer(time.Until(deadline))
			deadlineC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, nil, ctx.Err()
		case <-deadlineC:
			break collect
		case out, ok := <-results:
			if timer != nil {
				timer.Stop()
			}
			if !ok {
				break collect
			}
			if out.Err != nil {
				logger.Debug("dropping failed tx proposal", "id", out.ID, "err", out.Err)
				continue
			}
			tx := out.Tx
			if !admit(snap, tx, attestFn) {
				continue
			}
			snap.AccessMap.AddRead(tx.Raw.Reads)
			snap.AccessMap.AddWrite(tx.Raw.Writes)
			accumulator.Merge(tx.Raw.Writes)
			accepted = append(accepted, tx)
			txDigests = append(txDigests, tx.Raw.ToDigest())
		}
	}

	if len(accepted) == 0 {
		return nil, nil, nil
	}

	update, err := snap.ApplyWrites(accumulator)
	if err != nil {
		return nil, nil, chain.Wrap(chain.Internal, err, "propose: apply_writes failed")
	}

	header := hooks.NewHeader()
	header.SetFields(nextHeight, prev.ToDigest(), time.Now(), txDigests.ToDigest(), update.Root)

	block, err := hooks.NewBlock(ctx, header, txDigests, prev)
	if err != nil {
		return nil, nil, chain.Wrap(chain.Internal, err, "propose: new_block_fn failed")
	}

	return block, accepted, nil
}

// admit runs the three per-candidate checks (§4.I): the tx was executed
// against a state this snapshot still recognizes, its signature (and, if
// present, attestation) verifies, and it does not conflict with anything
// already recorded in the access map since its exec height. A rejected
// candidate is logged and dropped, never treated as a fatal error — one
// bad or stale proposal must not block the rest of the round.
func admit(snap *chain.Snapshot, tx *chain.SignedTx, attestFn chain.VerifyAttestationFn) bool {
	execBlock, ok := snap.GetBlock(tx.Raw.ExecHeight)
	if !ok || execBlock.StateRoot() != tx.Raw.ExecStateRoot {
		logger.Debug("dropping stale tx proposal", "exec_height", tx.Raw.ExecHeight)
		return false
	}
	if err := tx.VerifySig(attestFn); err != nil {
		logger.Warn("dropping tx with invalid signature", "err", err)
		return false
	}
	if snap.ConflictCheck.HasConflict(snap.AccessMap, tx.Raw.ExecHeight, tx.Raw.Reads, tx.Raw.Writes) {
		logger.Debug("dropping conflicting tx proposal", "exec_height", tx.Raw.ExecHeight)
		return false
	}
	return true
}
