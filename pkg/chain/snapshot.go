// Package chain implements the header/block/tx types (§3), the durable
// error taxonomy (§7), the latest-header cell (§4.L), and the Snapshot
// that ties the authenticated trie to the sliding access-map window
// (§4.H) that both the propose and verify/commit pipelines mutate.
package chain

import (
	"github.com/slimchain-go/slimchain/pkg/accessmap"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
	"github.com/slimchain-go/slimchain/pkg/trie"
	"github.com/slimchain-go/slimchain/pkg/txstate"
)

// NodeStore is a TxStateView that can also durably absorb the new nodes a
// write-set application produces. The verify/commit pipeline's sole
// writer is the only thing that ever calls the Put methods (§5).
type NodeStore interface {
	state.TxStateView
	PutAccountTrieNode(hash common.H256, node trie.Node[common.AccountData]) error
	PutStateTrieNode(accAddr common.Address, hash common.H256, node trie.Node[common.StateValue]) error
}

// Snapshot is the sliding-window state a propose or verify/commit pipeline
// operates against: the authenticated trie (via Store, rooted at the
// latest committed block), the access map covering the last StateLen
// blocks, and the blocks themselves (§4.H).
type Snapshot struct {
	Store         NodeStore
	ConflictCheck accessmap.ConflictCheck
	StateLen      int
	AccessMap     *accessmap.AccessMap
	RecentBlocks  []*Block
}

// NewSnapshot starts a fresh snapshot at genesis.
func NewSnapshot(store NodeStore, conflictCheck accessmap.ConflictCheck, stateLen int, genesis *Block) *Snapshot {
	return &Snapshot{
		Store:         store,
		ConflictCheck: conflictCheck,
		StateLen:      stateLen,
		AccessMap:     accessmap.NewAccessMapAt(stateLen, genesis.Height()),
		RecentBlocks:  []*Block{genesis},
	}
}

func (s *Snapshot) LatestBlock() *Block { return s.RecentBlocks[len(s.RecentBlocks)-1] }

// GetBlock looks up a block still held in the window by height.
func (s *Snapshot) GetBlock(h common.BlockHeight) (*Block, bool) {
	for _, b := range s.RecentBlocks {
		if b.Height() == h {
			return b, true
		}
	}
	return nil, false
}

func (s *Snapshot) Root() common.H256 { return s.LatestBlock().StateRoot() }

// ApplyWrites replays writes against the current root, persists the
// resulting nodes into Store, and returns the update (the tx_trie side of
// both §4.I's accumulator apply and §4.J step 5's re-derivation).
func (s *Snapshot) ApplyWrites(writes common.TxWriteData) (*txstate.TxStateUpdate, error) {
	update, err := txstate.UpdateTxState(s.Store, s.Root(), writes)
	if err != nil {
		return nil, Wrap(Internal, err, "apply_writes failed")
	}
	for h, n := range update.AccNodes {
		if err := s.Store.PutAccountTrieNode(h, n); err != nil {
			return nil, Wrap(Internal, err, "persisting account trie node")
		}
	}
	for addr, nodes := range update.StateNodes {
		for h, n := range nodes {
			if err := s.Store.PutStateTrieNode(addr, h, n); err != nil {
				return nil, Wrap(Internal, err, "persisting state trie node")
			}
		}
	}
	return update, nil
}

// CommitBlock appends b to the window (§4.H commit_block). Allocating the
// access-map slot for b's height is the caller's job (§4.I/§4.J each do it
// explicitly, before this point in their own pipeline).
func (s *Snapshot) CommitBlock(b *Block) {
	s.RecentBlocks = append(s.RecentBlocks, b)
}

// RemoveOldestBlock slides the window: the access map decides whether its
// oldest height actually advanced, and RecentBlocks' front is popped only
// in that case, the exact conditional pop this is grounded on (§4.H,
// §9's "transient |recent_blocks| <= state_len+1" open question — this
// implementation preserves that transient bound rather than tightening
// it, since the source's verify/commit call site tolerates it and no
// reader observes the window mid-slide).
func (s *Snapshot) RemoveOldestBlock(pruner accessmap.Pruner) error {
	pd, advanced := s.AccessMap.RemoveOldestBlock()
	if !advanced {
		return nil
	}
	if err := pd.Apply(s.AccessMap, pruner); err != nil {
		return Wrap(Internal, err, "pruning oldest block")
	}
	if len(s.RecentBlocks) > 0 {
		s.RecentBlocks = s.RecentBlocks[1:]
	}
	return nil
}
