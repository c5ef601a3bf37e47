package chain

import (
	"context"
	"time"

	"github.com/slimchain-go/slimchain/pkg/common"
)

// Header is the capability set both consensus variants share: enough to
// chain blocks and authenticate state without the core caring which
// consensus produced a given instance (§3).
type Header interface {
	common.Digestible
	Height() common.BlockHeight
	PrevHash() common.H256
	Timestamp() time.Time
	TxListDigest() common.H256
	StateRoot() common.H256
	// SetFields fills in the shared fields on a freshly-built, still-empty
	// header (PoWNewBlockFn/RaftNewBlockFn then handle anything variant
	// specific, e.g. PoW's nonce search).
	SetFields(height common.BlockHeight, prevHash common.H256, timestamp time.Time, txListDigest, stateRoot common.H256)
}

// BlockTxList is the ordered list of transaction digests a block commits
// to; the full SignedTx bodies travel alongside in a block proposal, not
// inside the header-chained digest itself.
type BlockTxList []common.H256

func (l BlockTxList) ToDigest() common.H256 {
	parts := make([][]byte, len(l))
	for i, h := range l {
		parts[i] = h.Bytes()
	}
	return common.Hash256(parts...)
}

// baseHeader holds the fields common to every consensus variant (§3).
type baseHeader struct {
	HeightV       common.BlockHeight
	PrevHashV     common.H256
	TimestampV    time.Time
	TxListDigestV common.H256
	StateRootV    common.H256
}

func (h *baseHeader) Height() common.BlockHeight { return h.HeightV }
func (h *baseHeader) PrevHash() common.H256      { return h.PrevHashV }
func (h *baseHeader) Timestamp() time.Time       { return h.TimestampV }
func (h *baseHeader) TxListDigest() common.H256  { return h.TxListDigestV }
func (h *baseHeader) StateRoot() common.H256     { return h.StateRootV }

func (h *baseHeader) SetFields(height common.BlockHeight, prevHash common.H256, timestamp time.Time, txListDigest, stateRoot common.H256) {
	h.HeightV = height
	h.PrevHashV = prevHash
	h.TimestampV = timestamp
	h.TxListDigestV = txListDigest
	h.StateRootV = stateRoot
}

func (h *baseHeader) digestParts() [][]byte {
	var ts [8]byte
	putInt64(ts[:], h.TimestampV.Unix())
	return [][]byte{
		h.HeightV.ToDigest().Bytes(),
		h.PrevHashV.Bytes(),
		ts[:],
		h.TxListDigestV.Bytes(),
		h.StateRootV.Bytes(),
	}
}

func putInt64(b []byte, v int64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// PoWHeader additionally carries the nonce a miner searched for and the
// difficulty target it had to satisfy (§3).
type PoWHeader struct {
	baseHeader
	Nonce      uint64
	Difficulty uint64
}

func (h *PoWHeader) ToDigest() common.H256 {
	var nonce, diff [8]byte
	putInt64(nonce[:], int64(h.Nonce))
	putInt64(diff[:], int64(h.Difficulty))
	parts := append(h.digestParts(), nonce[:], diff[:])
	return common.Hash256(parts...)
}

// RaftHeader carries no extra fields: consensus is externalized to the
// Raft log, so the header chain alone is the authenticated record (§3).
type RaftHeader struct {
	baseHeader
}

func (h *RaftHeader) ToDigest() common.H256 {
	return common.Hash256(h.digestParts()...)
}

// Block is a header plus the ordered list of transaction digests it
// commits to. Full transaction bodies are not part of the block; they
// travel alongside it in a block proposal (§6).
type Block struct {
	Header Header
	TxList BlockTxList
}

func (b *Block) Height() common.BlockHeight { return b.Header.Height() }
func (b *Block) StateRoot() common.H256     { return b.Header.StateRoot() }

// ToDigest is the block's identity as referenced by the next block's
// PrevHash: a hash of the header's own digest.
func (b *Block) ToDigest() common.H256 {
	return common.Hash256(b.Header.ToDigest().Bytes())
}

// GenesisBlock builds the canonical height-0 block: all-zero roots, a
// fixed timestamp, no transactions (§3).
func GenesisBlock(raft bool) *Block {
	ts := time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC)
	base := baseHeader{
		HeightV:       0,
		PrevHashV:     common.ZeroH256,
		TimestampV:    ts,
		TxListDigestV: BlockTxList(nil).ToDigest(),
		StateRootV:    common.ZeroH256,
	}
	var header Header
	if raft {
		header = &RaftHeader{baseHeader: base}
	} else {
		header = &PoWHeader{baseHeader: base}
	}
	return &Block{Header: header, TxList: nil}
}

// VerifyHeader checks the prefix of step 1 in §4.J: the height chains,
// the previous digest matches, the timestamp is monotone, and the
// recomputed tx-list digest matches what the header claims. PoW
// difficulty and Raft's no-op are checked separately by a
// VerifyConsensusFn, not here.
func (b *Block) VerifyHeader(prev *Block) error {
	if b.Header.Height() != prev.Header.Height().Next() {
		return Errorf(HeaderMismatch, "height %d is not %d+1", b.Header.Height(), prev.Header.Height())
	}
	if b.Header.PrevHash() != prev.ToDigest() {
		return Errorf(HeaderMismatch, "prev_hash does not match previous block's digest")
	}
	if !b.Header.Timestamp().After(prev.Header.Timestamp()) {
		return Errorf(HeaderMismatch, "timestamp %s is not after previous %s", b.Header.Timestamp(), prev.Header.Timestamp())
	}
	if b.TxList.ToDigest() != b.Header.TxListDigest() {
		return Errorf(HeaderMismatch, "tx_list_digest does not match tx_list")
	}
	return nil
}

// VerifyConsensusFn checks the consensus-specific half of header
// verification: PoW's difficulty test, or Raft's no-op (externalized to
// the Raft log itself) (§4.J step 2).
type VerifyConsensusFn func(newBlock, prev *Block) error

func RaftVerifyConsensus(_, _ *Block) error { return nil }

func PoWVerifyConsensus(newBlock, _ *Block) error {
	h, ok := newBlock.Header.(*PoWHeader)
	if !ok {
		return Errorf(ConsensusInvalid, "block header is not a PoW header")
	}
	if !meetsDifficulty(h.ToDigest(), h.Difficulty) {
		return Errorf(ConsensusInvalid, "digest does not meet difficulty %d", h.Difficulty)
	}
	return nil
}

// meetsDifficulty reports whether h has at least `difficulty` leading
// zero bits, the simplest faithful rendition of a leading-zeros PoW
// target.
func meetsDifficulty(h common.H256, difficulty uint64) bool {
	need := difficulty
	for _, b := range h {
		if need == 0 {
			return true
		}
		if need >= 8 {
			if b != 0 {
				return false
			}
			need -= 8
			continue
		}
		if b>>(8-need) != 0 {
			return false
		}
		return true
	}
	return need == 0
}

// NewBlockFn composes a freshly-built header and tx list into a Block.
// PoW's variant searches a nonce until the difficulty target is met;
// Raft's passes the header through unchanged (§4.I, §9).
//
// The PoW search loop takes a context so a shutdown can interrupt an
// unbounded nonce search promptly — the source blocks this
// uncancellably, which §9 flags as a bug not worth replicating.
type NewBlockFn func(ctx context.Context, header Header, txList BlockTxList, prev *Block) (*Block, error)

func RaftNewBlockFn(_ context.Context, header Header, txList BlockTxList, _ *Block) (*Block, error) {
	rh, ok := header.(*RaftHeader)
	if !ok {
		return nil, Errorf(InvalidInput, "header is not a Raft header")
	}
	return &Block{Header: rh, TxList: txList}, nil
}

// PoWNewBlockFn returns a NewBlockFn that searches nonces starting from 0
// under the given difficulty (leading zero bits required of the digest).
func PoWNewBlockFn(difficulty uint64) NewBlockFn {
	return func(ctx context.Context, header Header, txList BlockTxList, _ *Block) (*Block, error) {
		ph, ok := header.(*PoWHeader)
		if !ok {
			return nil, Errorf(InvalidInput, "header is not a PoW header")
		}
		ph.Difficulty = difficulty
		for nonce := uint64(0); ; nonce++ {
			select {
			case <-ctx.Done():
				return nil, Wrap(Internal, ctx.Err(), "nonce search cancelled")
			default:
			}
			ph.Nonce = nonce
			if meetsDifficulty(ph.ToDigest(), difficulty) {
				return &Block{Header: ph, TxList: txList}, nil
			}
		}
	}
}
