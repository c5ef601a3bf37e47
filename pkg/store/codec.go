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

// This file implements §6's "canonical binary codec with Snappy framing":
// every value this package persists has a bounded, self-describing shape
// (a node is one of three tagged kinds, a block is a tagged header plus a
// tx digest list, ...), so a length-prefixed manual encoding is the
// natural fit - the same judgment call the teacher's rlp package makes
// for its own struct shapes, just without rlp itself (the teacher's rlp
// package was not part of the retrieved dependency surface, see
// DESIGN.md). Every encoded blob is Snappy-compressed before it touches
// an Engine, decompressed on the way back out.
package store

import (
	"encoding/binary"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
)

func unixToTime(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func compress(b []byte) []byte   { return snappy.Encode(nil, b) }
func decompress(b []byte) ([]byte, error) { return snappy.Decode(nil, b) }

func putUint64(buf []byte, v uint64) { binary.BigEndian.PutUint64(buf, v) }
func getUint64(buf []byte) uint64    { return binary.BigEndian.Uint64(buf) }

// heightKey is the big-endian encoding used for the block column's key so
// that lexicographic iteration order matches height order.
func heightKey(h common.BlockHeight) []byte {
	var b [8]byte
	putUint64(b[:], uint64(h))
	return b[:]
}

type byteWriter struct{ buf []byte }

func (w *byteWriter) writeByte(b byte) { w.buf = append(w.buf, b) }
func (w *byteWriter) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}
func (w *byteWriter) writeBytes(b []byte) {
	w.writeUvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}
func (w *byteWriter) writeH256(h common.H256) { w.buf = append(w.buf, h.Bytes()...) }

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.New("store: codec: unexpected end of input")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errors.New("store: codec: malformed uvarint")
	}
	r.pos += n
	return v, nil
}

func (r *byteReader) readBytes() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, errors.New("store: codec: truncated byte slice")
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

func (r *byteReader) readH256() (common.H256, error) {
	if r.pos+32 > len(r.buf) {
		return common.H256{}, errors.New("store: codec: truncated H256")
	}
	h := common.BytesToH256(r.buf[r.pos : r.pos+32])
	r.pos += 32
	return h, nil
}

func (r *byteReader) done() bool { return r.pos >= len(r.buf) }

// --- trie nodes -------------------------------------------------------

const (
	nodeTagLeaf byte = iota
	nodeTagExtension
	nodeTagBranch
)

func encodeAccountData(a common.AccountData) []byte {
	w := &byteWriter{}
	var nonce [8]byte
	putUint64(nonce[:], uint64(a.Nonce))
	w.buf = append(w.buf, nonce[:]...)
	w.writeBytes(a.Code)
	w.writeH256(a.AccStateRoot)
	return w.buf
}

func decodeAccountData(b []byte) (common.AccountData, error) {
	r := &byteReader{buf: b}
	if len(r.buf) < 8 {
		return common.AccountData{}, errors.New("store: codec: truncated account data")
	}
	nonce := common.Nonce(getUint64(r.buf[:8]))
	r.pos = 8
	code, err := r.readBytes()
	if err != nil {
		return common.AccountData{}, err
	}
	root, err := r.readH256()
	if err != nil {
		return common.AccountData{}, err
	}
	return common.AccountData{Nonce: nonce, Code: code, AccStateRoot: root}, nil
}

func encodeStateValue(v common.StateValue) []byte {
	h := common.H256(v)
	return h.Bytes()
}

func decodeStateValue(b []byte) (common.StateValue, error) {
	if len(b) != 32 {
		return common.StateValue{}, errors.New("store: codec: bad state value length")
	}
	return common.StateValue(common.BytesToH256(b)), nil
}

// encodeAccountNode/encodeStateNode encode one of the three node kinds
// for each of the trie's two Value instantiations. Go generics can't be
// used across a byte-codec boundary this way without duplicating the
// switch per V, so the pair is spelled out once per value type rather
// than hidden behind a shared generic helper.
func encodeAccountNode(n trie.Node[common.AccountData]) ([]byte, error) {
	w := &byteWriter{}
	switch t := n.(type) {
	case *trie.LeafNode[common.AccountData]:
		w.writeByte(nodeTagLeaf)
		w.writeBytes(t.Nibbles)
		w.writeBytes(encodeAccountData(t.Value))
	case *trie.ExtensionNode[common.AccountData]:
		w.writeByte(nodeTagExtension)
		w.writeBytes(t.Nibbles)
		w.writeH256(t.ChildHash)
	case *trie.BranchNode[common.AccountData]:
		w.writeByte(nodeTagBranch)
		for _, c := range t.Children {
			w.writeH256(c)
		}
	default:
		return nil, errors.Errorf("store: codec: unknown account node type %T", n)
	}
	return w.buf, nil
}

func decodeAccountNode(b []byte) (trie.Node[common.AccountData], error) {
	r := &byteReader{buf: b}
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case nodeTagLeaf:
		nibbles, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		raw, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		val, err := decodeAccountData(raw)
		if err != nil {
			return nil, err
		}
		return &trie.LeafNode[common.AccountData]{Nibbles: trie.Nibbles(nibbles), Value: val}, nil
	case nodeTagExtension:
		nibbles, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		child, err := r.readH256()
		if err != nil {
			return nil, err
		}
		return &trie.ExtensionNode[common.AccountData]{Nibbles: trie.Nibbles(nibbles), ChildHash: child}, nil
	case nodeTagBranch:
		var children [16]common.H256
		for i := range children {
			h, err := r.readH256()
			if err != nil {
				return nil, err
			}
			children[i] = h
		}
		return &trie.BranchNode[common.AccountData]{Children: children}, nil
	default:
		return nil, errors.Errorf("store: codec: unknown node tag %d", tag)
	}
}

func encodeStateNode(n trie.Node[common.StateValue]) ([]byte, error) {
	w := &byteWriter{}
	switch t := n.(type) {
	case *trie.LeafNode[common.StateValue]:
		w.writeByte(nodeTagLeaf)
		w.writeBytes(t.Nibbles)
		w.buf = append(w.buf, encodeStateValue(t.Value)...)
	case *trie.ExtensionNode[common.StateValue]:
		w.writeByte(nodeTagExtension)
		w.writeBytes(t.Nibbles)
		w.writeH256(t.ChildHash)
	case *trie.BranchNode[common.StateValue]:
		w.writeByte(nodeTagBranch)
		for _, c := range t.Children {
			w.writeH256(c)
		}
	default:
		return nil, errors.Errorf("store: codec: unknown state node type %T", n)
	}
	return w.buf, nil
}

func decodeStateNode(b []byte) (trie.Node[common.StateValue], error) {
	r := &byteReader{buf: b}
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case nodeTagLeaf:
		nibbles, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		if r.pos+32 > len(r.buf) {
			return nil, errors.New("store: codec: truncated state leaf value")
		}
		val, err := decodeStateValue(r.buf[r.pos : r.pos+32])
		if err != nil {
			return nil, err
		}
		r.pos += 32
		return &trie.LeafNode[common.StateValue]{Nibbles: trie.Nibbles(nibbles), Value: val}, nil
	case nodeTagExtension:
		nibbles, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		child, err := r.readH256()
		if err != nil {
			return nil, err
		}
		return &trie.ExtensionNode[common.StateValue]{Nibbles: trie.Nibbles(nibbles), ChildHash: child}, nil
	case nodeTagBranch:
		var children [16]common.H256
		for i := range children {
			h, err := r.readH256()
			if err != nil {
				return nil, err
			}
			children[i] = h
		}
		return &trie.BranchNode[common.StateValue]{Children: children}, nil
	default:
		return nil, errors.Errorf("store: codec: unknown node tag %d", tag)
	}
}

// --- blocks -------------------------------------------------------

const (
	headerTagPoW byte = iota
	headerTagRaft
)

func encodeBlock(b *chain.Block) ([]byte, error) {
	w := &byteWriter{}

	switch h := b.Header.(type) {
	case *chain.PoWHeader:
		w.writeByte(headerTagPoW)
		writeBaseHeader(w, h.Height(), h.PrevHash(), h.Timestamp(), h.TxListDigest(), h.StateRoot())
		var nonce, diff [8]byte
		putUint64(nonce[:], h.Nonce)
		putUint64(diff[:], h.Difficulty)
		w.buf = append(w.buf, nonce[:]...)
		w.buf = append(w.buf, diff[:]...)
	case *chain.RaftHeader:
		w.writeByte(headerTagRaft)
		writeBaseHeader(w, h.Height(), h.PrevHash(), h.Timestamp(), h.TxListDigest(), h.StateRoot())
	default:
		return nil, errors.Errorf("store: codec: unknown header type %T", b.Header)
	}

	w.writeUvarint(uint64(len(b.TxList)))
	for _, d := range b.TxList {
		w.writeH256(d)
	}
	return w.buf, nil
}

func writeBaseHeader(w *byteWriter, height common.BlockHeight, prevHash common.H256, ts time.Time, txListDigest, stateRoot common.H256) {
	var h [8]byte
	putUint64(h[:], uint64(height))
	w.buf = append(w.buf, h[:]...)
	w.writeH256(prevHash)
	var t [8]byte
	putUint64(t[:], uint64(ts.Unix()))
	w.buf = append(w.buf, t[:]...)
	w.writeH256(txListDigest)
	w.writeH256(stateRoot)
}

func readBaseHeader(r *byteReader) (height common.BlockHeight, prevHash common.H256, unixTS int64, txListDigest, stateRoot common.H256, err error) {
	if r.pos+8 > len(r.buf) {
		err = errors.New("store: codec: truncated header height")
		return
	}
	height = common.BlockHeight(getUint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	if prevHash, err = r.readH256(); err != nil {
		return
	}
	if r.pos+8 > len(r.buf) {
		err = errors.New("store: codec: truncated header timestamp")
		return
	}
	unixTS = int64(getUint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	if txListDigest, err = r.readH256(); err != nil {
		return
	}
	stateRoot, err = r.readH256()
	return
}

func decodeBlock(b []byte) (*chain.Block, error) {
	r := &byteReader{buf: b}
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	height, prevHash, unixTS, txListDigest, stateRoot, err := readBaseHeader(r)
	if err != nil {
		return nil, err
	}
	ts := unixToTime(unixTS)

	var header chain.Header
	switch tag {
	case headerTagPoW:
		if r.pos+16 > len(r.buf) {
			return nil, errors.New("store: codec: truncated pow header")
		}
		nonce := getUint64(r.buf[r.pos : r.pos+8])
		diff := getUint64(r.buf[r.pos+8 : r.pos+16])
		r.pos += 16
		h := &chain.PoWHeader{Nonce: nonce, Difficulty: diff}
		h.SetFields(height, prevHash, ts, txListDigest, stateRoot)
		header = h
	case headerTagRaft:
		h := &chain.RaftHeader{}
		h.SetFields(height, prevHash, ts, txListDigest, stateRoot)
		header = h
	default:
		return nil, errors.Errorf("store: codec: unknown header tag %d", tag)
	}

	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	txList := make(chain.BlockTxList, n)
	for i := range txList {
		if txList[i], err = r.readH256(); err != nil {
			return nil, err
		}
	}
	return &chain.Block{Header: header, TxList: txList}, nil
}

// --- signed transactions -------------------------------------------

func encodeTxRequest(req chain.TxRequest) []byte {
	w := &byteWriter{}
	w.writeByte(byte(req.Kind))
	var nonce [8]byte
	putUint64(nonce[:], uint64(req.Nonce))
	w.buf = append(w.buf, nonce[:]...)
	w.writeBytes(req.Code)
	w.buf = append(w.buf, req.Address[:]...)
	w.writeBytes(req.Data)
	return w.buf
}

func decodeTxRequest(r *byteReader) (chain.TxRequest, error) {
	kind, err := r.readByte()
	if err != nil {
		return chain.TxRequest{}, err
	}
	if r.pos+8 > len(r.buf) {
		return chain.TxRequest{}, errors.New("store: codec: truncated tx request nonce")
	}
	nonce := common.Nonce(getUint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	code, err := r.readBytes()
	if err != nil {
		return chain.TxRequest{}, err
	}
	if r.pos+20 > len(r.buf) {
		return chain.TxRequest{}, errors.New("store: codec: truncated tx request address")
	}
	addr := common.BytesToAddress(r.buf[r.pos : r.pos+20])
	r.pos += 20
	data, err := r.readBytes()
	if err != nil {
		return chain.TxRequest{}, err
	}
	return chain.TxRequest{Kind: chain.TxRequestKind(kind), Nonce: nonce, Code: code, Address: addr, Data: data}, nil
}

func encodeSignedTx(t *chain.SignedTx) []byte {
	w := &byteWriter{}
	w.buf = append(w.buf, t.Raw.Caller[:]...)
	w.writeBytes(encodeTxRequest(t.Raw.Input))
	var h [8]byte
	putUint64(h[:], uint64(t.Raw.ExecHeight))
	w.buf = append(w.buf, h[:]...)
	w.writeH256(t.Raw.ExecStateRoot)
	w.writeBytes(encodeReadData(t.Raw.Reads))
	w.writeBytes(encodeWriteData(t.Raw.Writes))
	w.writeBytes(t.PkSig.PK)
	w.writeBytes(t.PkSig.Sig)
	w.writeBytes(t.Attestation)
	return w.buf
}

func decodeSignedTx(b []byte) (*chain.SignedTx, error) {
	r := &byteReader{buf: b}
	if r.pos+20 > len(r.buf) {
		return nil, errors.New("store: codec: truncated signed tx caller")
	}
	caller := common.BytesToAddress(r.buf[r.pos : r.pos+20])
	r.pos += 20
	reqBytes, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	req, err := decodeTxRequest(&byteReader{buf: reqBytes})
	if err != nil {
		return nil, err
	}
	if r.pos+8 > len(r.buf) {
		return nil, errors.New("store: codec: truncated signed tx exec height")
	}
	execHeight := common.BlockHeight(getUint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	execRoot, err := r.readH256()
	if err != nil {
		return nil, err
	}
	readsBytes, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	reads, err := decodeReadData(readsBytes)
	if err != nil {
		return nil, err
	}
	writesBytes, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	writes, err := decodeWriteData(writesBytes)
	if err != nil {
		return nil, err
	}
	pk, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	sig, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	att, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	return &chain.SignedTx{
		Raw: chain.RawTx{
			Caller:        caller,
			Input:         req,
			ExecHeight:    execHeight,
			ExecStateRoot: execRoot,
			Reads:         reads,
			Writes:        writes,
		},
		PkSig:       chain.PubSigPair{PK: pk, Sig: sig},
		Attestation: chain.Attestation(att),
	}, nil
}

// --- read/write sets (used only as SignedTx's embedded fields here;
// pkg/common itself never needs to serialize these, only digest them) --

func encodeReadData(d common.TxReadData) []byte {
	w := &byteWriter{}
	w.writeUvarint(uint64(len(d)))
	for addr, acc := range d {
		w.buf = append(w.buf, addr[:]...)
		w.writeAccountReadData(acc)
	}
	return w.buf
}

func (w *byteWriter) writeAccountReadData(a *common.AccountReadData) {
	if a.Nonce != nil {
		w.writeByte(1)
		var n [8]byte
		putUint64(n[:], uint64(*a.Nonce))
		w.buf = append(w.buf, n[:]...)
	} else {
		w.writeByte(0)
	}
	if a.Code != nil {
		w.writeByte(1)
		w.writeBytes(*a.Code)
	} else {
		w.writeByte(0)
	}
	w.writeUvarint(uint64(len(a.Values)))
	for k, v := range a.Values {
		w.writeH256(common.H256(k))
		w.writeH256(common.H256(v))
	}
}

func decodeReadData(b []byte) (common.TxReadData, error) {
	r := &byteReader{buf: b}
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	out := common.NewTxReadData()
	for i := uint64(0); i < n; i++ {
		if r.pos+20 > len(r.buf) {
			return nil, errors.New("store: codec: truncated read set address")
		}
		addr := common.BytesToAddress(r.buf[r.pos : r.pos+20])
		r.pos += 20
		acc, err := r.readAccountReadData()
		if err != nil {
			return nil, err
		}
		out[addr] = acc
	}
	return out, nil
}

func (r *byteReader) readAccountReadData() (*common.AccountReadData, error) {
	a := common.NewAccountReadData()
	hasNonce, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if hasNonce == 1 {
		if r.pos+8 > len(r.buf) {
			return nil, errors.New("store: codec: truncated read nonce")
		}
		n := common.Nonce(getUint64(r.buf[r.pos : r.pos+8]))
		r.pos += 8
		a.Nonce = &n
	}
	hasCode, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if hasCode == 1 {
		c, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		code := common.Code(c)
		a.Code = &code
	}
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		k, err := r.readH256()
		if err != nil {
			return nil, err
		}
		v, err := r.readH256()
		if err != nil {
			return nil, err
		}
		a.Values[common.StateKey(k)] = common.StateValue(v)
	}
	return a, nil
}

func encodeWriteData(d common.TxWriteData) []byte {
	w := &byteWriter{}
	w.writeUvarint(uint64(len(d)))
	for addr, acc := range d {
		w.buf = append(w.buf, addr[:]...)
		w.writeAccountWriteData(acc)
	}
	return w.buf
}

func (w *byteWriter) writeAccountWriteData(a *common.AccountWriteData) {
	if a.Nonce != nil {
		w.writeByte(1)
		var n [8]byte
		putUint64(n[:], uint64(*a.Nonce))
		w.buf = append(w.buf, n[:]...)
	} else {
		w.writeByte(0)
	}
	if a.Code != nil {
		w.writeByte(1)
		w.writeBytes(*a.Code)
	} else {
		w.writeByte(0)
	}
	if a.ResetValues {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
	w.writeUvarint(uint64(len(a.Values)))
	for k, v := range a.Values {
		w.writeH256(common.H256(k))
		w.writeH256(common.H256(v))
	}
}

func decodeWriteData(b []byte) (common.TxWriteData, error) {
	r := &byteReader{buf: b}
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	out := common.NewTxWriteData()
	for i := uint64(0); i < n; i++ {
		if r.pos+20 > len(r.buf) {
			return nil, errors.New("store: codec: truncated write set address")
		}
		addr := common.BytesToAddress(r.buf[r.pos : r.pos+20])
		r.pos += 20
		acc, err := r.readAccountWriteData()
		if err != nil {
			return nil, err
		}
		out[addr] = acc
	}
	return out, nil
}

func (r *byteReader) readAccountWriteData() (*common.AccountWriteData, error) {
	a := &common.AccountWriteData{Values: make(map[common.StateKey]common.StateValue)}
	hasNonce, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if hasNonce == 1 {
		if r.pos+8 > len(r.buf) {
			return nil, errors.New("store: codec: truncated write nonce")
		}
		n := common.Nonce(getUint64(r.buf[r.pos : r.pos+8]))
		r.pos += 8
		a.Nonce = &n
	}
	hasCode, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if hasCode == 1 {
		c, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		code := common.Code(c)
		a.Code = &code
	}
	reset, err := r.readByte()
	if err != nil {
		return nil, err
	}
	a.ResetValues = reset == 1
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		k, err := r.readH256()
		if err != nil {
			return nil, err
		}
		v, err := r.readH256()
		if err != nil {
			return nil, err
		}
		a.Values[common.StateKey(k)] = common.StateValue(v)
	}
	return a, nil
}
