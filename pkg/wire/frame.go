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

// Package wire implements the peer-framing layer (§6): a varint-prefixed
// Code, a varint-prefixed payload length, and the payload bytes
// themselves, one request frame followed by one response frame per
// exchange. Transport (dialing, handshake, peer discovery) is out of
// scope (§1: "Peer discovery, pub/sub gossip ... are out of scope") —
// this package only frames bytes over whatever io.Reader/io.Writer the
// caller already has a connection on, the same division of labor the
// teacher's p2p.Msg{Code, Size, Payload} shape draws between "what a
// message is" and "how a connection is established"
// (node/cn/peer.go's ReadMsg/WriteMsg calls against a p2p.MsgReadWriter).
package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Code identifies a frame's payload shape. Request codes are even,
// response codes are that request code's successor, mirroring the
// request/response pairing §6 specifies without needing a separate
// "is this a response" flag byte.
type Code uint64

const (
	CodeProposeBlock    Code = iota // client -> miner: a signed tx request
	CodeProposeBlockAck             // miner -> client: accepted/rejected
	CodeGetBlock                    // peer -> peer: fetch a block by height
	CodeGetBlockResp                // peer -> peer: the block, or not-found
	CodeGetTx                       // peer -> peer: fetch a tx by digest
	CodeGetTxResp                   // peer -> peer: the tx, or not-found
	CodeBlockProposal               // miner -> verifiers: a new block + its tx list
	CodeBlockProposalAck
)

// Frame is one length-prefixed unit on the wire: a code, then the
// payload's own canonical-codec bytes (a block, a signed tx, ...) as
// produced by pkg/store's exported Encode* helpers.
type Frame struct {
	Code    Code
	Payload []byte
}

const maxFrameSize = 64 << 20 // 64MiB, generous for a block + its tx bodies

// WriteFrame writes code, then the payload length, then the payload,
// each as a varint-prefixed field.
func WriteFrame(w io.Writer, f Frame) error {
	var header [2 * binary.MaxVarintLen64]byte
	n := binary.PutUvarint(header[:], uint64(f.Code))
	n += binary.PutUvarint(header[n:], uint64(len(f.Payload)))
	if _, err := w.Write(header[:n]); err != nil {
		return errors.WithMessage(err, "wire: writing frame header")
	}
	if len(f.Payload) == 0 {
		return nil
	}
	_, err := w.Write(f.Payload)
	return errors.WithMessage(err, "wire: writing frame payload")
}

// ReadFrame reads back one frame written by WriteFrame. r must be
// buffered (e.g. bufio.Reader) since this reads one byte at a time while
// decoding the varint header.
func ReadFrame(r io.ByteReader) (Frame, error) {
	code, err := binary.ReadUvarint(r)
	if err != nil {
		return Frame{}, errors.WithMessage(err, "wire: reading frame code")
	}
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return Frame{}, errors.WithMessage(err, "wire: reading frame length")
	}
	if size > maxFrameSize {
		return Frame{}, errors.Errorf("wire: frame size %d exceeds limit %d", size, maxFrameSize)
	}
	payload := make([]byte, size)
	if err := readFull(r, payload); err != nil {
		return Frame{}, errors.WithMessage(err, "wire: reading frame payload")
	}
	return Frame{Code: Code(code), Payload: payload}, nil
}

// readFull drains exactly len(buf) bytes from a ByteReader one byte at a
// time; ReadFrame's contract only requires io.ByteReader (not io.Reader)
// from its caller so a single bufio.Reader can back both the varint
// decode and the payload read without a type assertion.
func readFull(r io.ByteReader, buf []byte) error {
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}
