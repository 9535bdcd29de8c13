package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdioConnectionWaitBatchReadsFramedBody(t *testing.T) {
	var pipe bytes.Buffer
	// A raw length-prefixed frame, matching what the host side writes
	// inbound (no kind byte, since the host only ever sends batches).
	pipe.Write([]byte{0, 0, 0, 5})
	pipe.WriteString("hello")

	conn := NewStdioConnection(&pipe, nil)
	got, err := conn.WaitBatch(nil)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestStdioConnectionSendWritesBatchFrame(t *testing.T) {
	var pipe bytes.Buffer
	conn := NewStdioConnection(nil, &pipe)
	require.NoError(t, conn.Send(nil, []byte("payload")))

	kind, err := pipe.ReadByte()
	require.NoError(t, err)
	require.Equal(t, frameKindBatch, kind)

	reread := NewStdioConnection(&pipe, nil)
	got, err := reread.WaitBatch(nil)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestStdioConnectionErrorWritesErrorFrame(t *testing.T) {
	var pipe bytes.Buffer
	conn := NewStdioConnection(nil, &pipe)
	require.NoError(t, conn.Error(nil, errors.New("boom")))

	kind, err := pipe.ReadByte()
	require.NoError(t, err)
	require.Equal(t, frameKindError, kind)

	reread := NewStdioConnection(&pipe, nil)
	got, err := reread.WaitBatch(nil)
	require.NoError(t, err)
	require.Equal(t, "boom", string(got))
}

// TestStdioConnectionFrameKindsAreDistinguishable writes a Send/Error/Send
// sequence and parses the raw bytes directly (rather than through
// WaitBatch, whose framing assumes no kind byte) to check each frame
// carries the kind marker its writer used.
func TestStdioConnectionFrameKindsAreDistinguishable(t *testing.T) {
	var pipe bytes.Buffer
	conn := NewStdioConnection(nil, &pipe)
	require.NoError(t, conn.Send(nil, []byte("batch-1")))
	require.NoError(t, conn.Error(nil, errors.New("first failure")))
	require.NoError(t, conn.Send(nil, []byte("batch-2")))

	raw := pipe.Bytes()
	kinds := []byte{}
	bodies := [][]byte{}
	for i := 0; i < len(raw); {
		kind := raw[i]
		length := binary.BigEndian.Uint32(raw[i+1 : i+5])
		body := raw[i+5 : i+5+int(length)]
		kinds = append(kinds, kind)
		bodies = append(bodies, body)
		i += 5 + int(length)
	}

	require.Equal(t, []byte{frameKindBatch, frameKindError, frameKindBatch}, kinds)
	require.Equal(t, [][]byte{[]byte("batch-1"), []byte("first failure"), []byte("batch-2")}, bodies)
}
