package wire_test

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/wire"
)

func TestWriteReadFrame_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	f := wire.Frame{Code: wire.CodeGetBlock, Payload: []byte("hello")}
	require.NoError(t, wire.WriteFrame(&buf, f))

	got, err := wire.ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, f.Code, got.Code)
	assert.Equal(t, f.Payload, got.Payload)
}

func TestWriteReadFrame_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteFrame(&buf, wire.Frame{Code: wire.CodeGetBlockResp}))

	got, err := wire.ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, wire.CodeGetBlockResp, got.Code)
	assert.Empty(t, got.Payload)
}

func TestReadFrame_RejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(wire.CodeGetBlock))
	// 1<<62 varint-encoded exceeds the frame size limit.
	var lenBuf [10]byte
	n := putHugeUvarint(lenBuf[:])
	buf.Write(lenBuf[:n])

	_, err := wire.ReadFrame(bufio.NewReader(&buf))
	assert.Error(t, err)
}

func putHugeUvarint(buf []byte) int {
	v := uint64(1) << 62
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

func TestGetBlockRequest_RoundTrips(t *testing.T) {
	f := wire.EncodeGetBlockRequest(common.BlockHeight(42))
	h, err := wire.DecodeGetBlockRequest(f)
	require.NoError(t, err)
	assert.Equal(t, common.BlockHeight(42), h)
}

func TestGetBlockRequest_RejectsBadLength(t *testing.T) {
	_, err := wire.DecodeGetBlockRequest(wire.Frame{Payload: []byte{1, 2, 3}})
	assert.Error(t, err)
}

func TestGetBlockResponse_RoundTripsNilAsNotFound(t *testing.T) {
	f, err := wire.EncodeGetBlockResponse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Payload)

	got, err := wire.DecodeGetBlockResponse(f)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testBlock() *chain.Block {
	h := &chain.RaftHeader{}
	h.SetFields(3, common.H256{1}, time.Unix(500, 0), chain.BlockTxList(nil).ToDigest(), common.H256{2})
	return &chain.Block{Header: h, TxList: chain.BlockTxList{common.H256{9}}}
}

func TestGetBlockResponse_RoundTripsBlock(t *testing.T) {
	b := testBlock()
	f, err := wire.EncodeGetBlockResponse(b)
	require.NoError(t, err)

	got, err := wire.DecodeGetBlockResponse(f)
	require.NoError(t, err)
	assert.Equal(t, b.Height(), got.Height())
	assert.Equal(t, b.ToDigest(), got.ToDigest())
}

func TestGetTxRequestResponse_RoundTrip(t *testing.T) {
	digest := common.H256{7}
	f := wire.EncodeGetTxRequest(digest)
	got, err := wire.DecodeGetTxRequest(f)
	require.NoError(t, err)
	assert.Equal(t, digest, got)

	respNil := wire.EncodeGetTxResponse(nil)
	tx, err := wire.DecodeGetTxResponse(respNil)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestBlockProposal_RoundTripsWithMultipleTxs(t *testing.T) {
	b := testBlock()
	raw := chain.RawTx{
		Caller:        common.Address{1},
		Input:         chain.NewCreateRequest(0, common.Code("c")),
		ExecHeight:    1,
		ExecStateRoot: common.H256{1},
		Reads:         common.NewTxReadData(),
		Writes:        common.NewTxWriteData(),
	}
	tx := &chain.SignedTx{Raw: raw}

	proposal := wire.BlockProposal{Block: b, Txs: []*chain.SignedTx{tx, tx}}
	f, err := wire.EncodeBlockProposal(proposal)
	require.NoError(t, err)

	got, err := wire.DecodeBlockProposal(f)
	require.NoError(t, err)
	assert.Equal(t, b.Height(), got.Block.Height())
	require.Len(t, got.Txs, 2)
	assert.Equal(t, tx.Raw.Caller, got.Txs[0].Raw.Caller)
}
