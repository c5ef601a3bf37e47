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

// This file builds/parses Frame payloads for each Code using pkg/store's
// exported codec, so a frame carries the same canonical encoding the
// receiving peer persists (§6); the store snappy-compresses that encoding
// on disk, frames carry it uncompressed.
package wire

import (
	"encoding/binary"

	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/store"
)

func EncodeGetBlockRequest(h common.BlockHeight) Frame {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(h))
	return Frame{Code: CodeGetBlock, Payload: b[:]}
}

func DecodeGetBlockRequest(f Frame) (common.BlockHeight, error) {
	if len(f.Payload) != 8 {
		return 0, errBadPayload("get_block request", len(f.Payload))
	}
	return common.BlockHeight(binary.BigEndian.Uint64(f.Payload)), nil
}

// EncodeGetBlockResponse frames block (nil meaning "not found": an
// empty payload).
func EncodeGetBlockResponse(block *chain.Block) (Frame, error) {
	if block == nil {
		return Frame{Code: CodeGetBlockResp}, nil
	}
	payload, err := store.EncodeBlock(block)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Code: CodeGetBlockResp, Payload: payload}, nil
}

func DecodeGetBlockResponse(f Frame) (*chain.Block, error) {
	if len(f.Payload) == 0 {
		return nil, nil
	}
	return store.DecodeBlock(f.Payload)
}

func EncodeGetTxRequest(digest common.H256) Frame {
	return Frame{Code: CodeGetTx, Payload: digest.Bytes()}
}

func DecodeGetTxRequest(f Frame) (common.H256, error) {
	if len(f.Payload) != 32 {
		return common.H256{}, errBadPayload("get_tx request", len(f.Payload))
	}
	return common.BytesToH256(f.Payload), nil
}

func EncodeGetTxResponse(tx *chain.SignedTx) Frame {
	if tx == nil {
		return Frame{Code: CodeGetTxResp}
	}
	return Frame{Code: CodeGetTxResp, Payload: store.EncodeSignedTx(tx)}
}

func DecodeGetTxResponse(f Frame) (*chain.SignedTx, error) {
	if len(f.Payload) == 0 {
		return nil, nil
	}
	return store.DecodeSignedTx(f.Payload)
}

// BlockProposal bundles a freshly mined block with the full transaction
// bodies its header only references by digest (§4.I: a proposal carries
// both, since a verifier cannot re-derive a tx body from its hash).
type BlockProposal struct {
	Block *chain.Block
	Txs   []*chain.SignedTx
}

func EncodeBlockProposal(p BlockProposal) (Frame, error) {
	blockBytes, err := store.EncodeBlock(p.Block)
	if err != nil {
		return Frame{}, err
	}
	w := make([]byte, 0, len(blockBytes)+64)
	w = appendUvarintBytes(w, blockBytes)
	var n [binary.MaxVarintLen64]byte
	nn := binary.PutUvarint(n[:], uint64(len(p.Txs)))
	w = append(w, n[:nn]...)
	for _, tx := range p.Txs {
		w = appendUvarintBytes(w, store.EncodeSignedTx(tx))
	}
	return Frame{Code: CodeBlockProposal, Payload: w}, nil
}

func DecodeBlockProposal(f Frame) (BlockProposal, error) {
	buf := f.Payload
	blockBytes, rest, err := readUvarintBytes(buf)
	if err != nil {
		return BlockProposal{}, err
	}
	block, err := store.DecodeBlock(blockBytes)
	if err != nil {
		return BlockProposal{}, err
	}
	n, nn := binary.Uvarint(rest)
	if nn <= 0 {
		return BlockProposal{}, errBadPayload("block proposal tx count", len(rest))
	}
	rest = rest[nn:]
	txs := make([]*chain.SignedTx, n)
	for i := range txs {
		var txBytes []byte
		txBytes, rest, err = readUvarintBytes(rest)
		if err != nil {
			return BlockProposal{}, err
		}
		tx, err := store.DecodeSignedTx(txBytes)
		if err != nil {
			return BlockProposal{}, err
		}
		txs[i] = tx
	}
	return BlockProposal{Block: block, Txs: txs}, nil
}

func appendUvarintBytes(dst, b []byte) []byte {
	var n [binary.MaxVarintLen64]byte
	nn := binary.PutUvarint(n[:], uint64(len(b)))
	dst = append(dst, n[:nn]...)
	return append(dst, b...)
}

func readUvarintBytes(buf []byte) (data, rest []byte, err error) {
	n, nn := binary.Uvarint(buf)
	if nn <= 0 {
		return nil, nil, errBadPayload("length-prefixed field", len(buf))
	}
	buf = buf[nn:]
	if uint64(len(buf)) < n {
		return nil, nil, errBadPayload("length-prefixed field body", len(buf))
	}
	return buf[:n], buf[n:], nil
}
