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

// Package verify implements the verify+commit pipeline (§4.J): the single
// writer that turns an inbound block proposal into a committed block,
// replaying its transactions' write sets against the local trie and
// asserting every claim the proposal's header makes is actually true
// before any of it becomes visible.
package verify

import (
	"github.com/slimchain-go/slimchain/internal/log"
	"github.com/slimchain-go/slimchain/pkg/accessmap"
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/consensus"
)

var logger = log.NewModuleLogger("verify")

// BlockStore is the durable side of step 6: it persists the serialized
// block and its transactions and advances the stored height. State trie
// nodes are persisted separately, by Snapshot.ApplyWrites against the
// same NodeStore the Snapshot already holds (§4.J step 5/6), since
// NodeStore and BlockStore are separate capabilities here. The block and
// its trie nodes are therefore not written in one atomic batch, and
// pkg/store.Store's PutBlock itself writes each column separately; no
// recovery pass replays or reconciles a commit cut off between writes.
type BlockStore interface {
	PutBlock(b *chain.Block, txs []*chain.SignedTx) error
}

// CommitBlock runs the full seven-step pipeline against newBlock/txs. Any
// step's failure aborts the whole commit with a chain.Error carrying the
// relevant Kind, and neither the trie nor RecentBlocks nor the
// latest-header cell is touched. The access map's per-tx admission in
// step 4 is not itself transactional: a tx that passes its own checks has
// its reads/writes recorded before a later tx (or the step 5 root check)
// fails the whole block. A proposal that fails this pipeline is simply
// never committed; the access-map slot allocated for its height sits
// unused until a later, valid proposal for the same height supersedes it.
func CommitBlock(
	snap *chain.Snapshot,
	hooks consensus.Hooks,
	attestFn chain.VerifyAttestationFn,
	newBlock *chain.Block,
	txs []*chain.SignedTx,
	bs BlockStore,
	pruner accessmap.Pruner,
	latest *chain.LatestHeaderCell,
) error {
	prev := snap.LatestBlock()

	// Step 1: header chains onto prev correctly.
	if err := newBlock.VerifyHeader(prev); err != nil {
		return err
	}

	// Step 2: consensus-specific check (PoW difficulty, Raft no-op).
	if err := hooks.VerifyConsensus(newBlock, prev); err != nil {
		return chain.Wrap(chain.ConsensusInvalid, err, "verify_consensus_fn failed")
	}

	// Step 3: integrate the proposal's trie payload into the local trie.
	// This implementation's NodeStore always holds the full trie (every
	// node a commit ever produces is persisted durably, §6), so there is
	// no pruned/partial view here for a Diff or Proof to supplement —
	// the reconciliation step the source performs for a verifier that
	// only holds a subset of the trie is a no-op in this topology. See
	// DESIGN.md for why pkg/trie/partial is still wired elsewhere
	// (txstate.BuildTxReadProof) rather than dropped outright.

	if len(txs) != len(newBlock.TxList) {
		return chain.Errorf(chain.InvalidInput, "proposal carries %d tx bodies for %d digests", len(txs), len(newBlock.TxList))
	}

	nextHeight := snap.AccessMap.AllocNewBlock()
	if nextHeight != newBlock.Height() {
		return chain.Errorf(chain.HeaderMismatch, "access map at height %d, block claims %d", nextHeight, newBlock.Height())
	}

	writes := make(common.TxWriteData)

	// Step 4: per-tx freshness/signature/conflict checks, in proposal
	// order; any failure aborts the entire block (unlike propose's
	// log-and-continue, §4.J vs §4.I).
	for i, tx := range txs {
		if tx.Raw.ToDigest() != newBlock.TxList[i] {
			return chain.Errorf(chain.InvalidInput, "tx at index %d does not match its digest in tx_list", i)
		}

		execBlock, ok := snap.GetBlock(tx.Raw.ExecHeight)
		if !ok || execBlock.StateRoot() != tx.Raw.ExecStateRoot {
			return chain.Errorf(chain.TxFreshness, "tx %d executed against a state this snapshot no longer recognizes (exec_height %d)", i, tx.Raw.ExecHeight)
		}

		if err := tx.VerifySig(attestFn); err != nil {
			return chain.Wrap(chain.TxSignatureInvalid, err, "tx signature/attestation check failed")
		}

		if snap.ConflictCheck.HasConflict(snap.AccessMap, tx.Raw.ExecHeight, tx.Raw.Reads, tx.Raw.Writes) {
			return chain.Errorf(chain.TxConflict, "tx %d conflicts with access history since height %d", i, tx.Raw.ExecHeight)
		}

		snap.AccessMap.AddRead(tx.Raw.Reads)
		snap.AccessMap.AddWrite(tx.Raw.Writes)
		writes.Merge(tx.Raw.Writes)
	}

	// Step 5: fold writes, re-derive the root, assert it matches the
	// header's claim.
	update, err := snap.ApplyWrites(writes)
	if err != nil {
		return chain.Wrap(chain.Internal, err, "apply_writes failed")
	}
	if update.Root != newBlock.StateRoot() {
		return chain.Errorf(chain.StateRootMismatch, "recomputed root %s does not match header's %s", update.Root, newBlock.StateRoot())
	}

	// Step 6: persist the block and its transactions. State trie nodes
	// were already durably written by ApplyWrites above, in separate writes.
	if err := bs.PutBlock(newBlock, txs); err != nil {
		return chain.Wrap(chain.Internal, err, "persisting block failed")
	}

	// Step 7: commit, slide the window, publish the new header.
	snap.CommitBlock(newBlock)
	if err := snap.RemoveOldestBlock(pruner); err != nil {
		return err
	}
	latest.Set(newBlock.Header)

	logger.Info("committed block", "height", newBlock.Height(), "txs", len(txs))
	return nil
}
