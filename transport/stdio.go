package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Outbound frame kinds. Inbound frames (host to worker) are always
// batches, so WaitBatch reads no kind byte; outbound frames (worker to
// host) can be either a batch or a standalone error report, so Send and
// Error each prefix their frame with one of these.
const (
	frameKindBatch byte = iota
	frameKindError
)

// StdioConnection implements HostConnection over a pair of byte streams —
// typically the process's own stdin/stdout when the sidecar host launches
// this binary as a child process. Each outbound frame is a 1-byte kind
// marker, a 4-byte big-endian length prefix, and that many bytes of body;
// inbound frames omit the kind byte since the host only ever sends
// batches. This is a boundary framing concern with no analogue in the
// retrieval pack's transport libraries (those frame gRPC/HTTP/AMQP
// messages, not an arbitrary parent-process pipe), so it stays on
// encoding/binary rather than adopting an unrelated wire framing.
type StdioConnection struct {
	r *bufio.Reader

	mu sync.Mutex
	w  io.Writer
}

// NewStdioConnection wraps r/w as a HostConnection.
func NewStdioConnection(r io.Reader, w io.Writer) *StdioConnection {
	return &StdioConnection{r: bufio.NewReader(r), w: w}
}

// WaitBatch reads one length-prefixed frame. It ignores ctx cancellation
// mid-read since bufio.Reader has no cancellation hook; callers that need
// prompt shutdown should close the underlying stream instead. An io.EOF at
// the very start of a frame means the host closed its side cleanly between
// batches, so it is reported as ErrEndOfStream rather than a generic read
// failure; an EOF partway through a frame (io.ErrUnexpectedEOF) is a real
// transport error, since the host went away mid-message.
func (c *StdioConnection) WaitBatch(_ context.Context) ([]byte, error) {
	var length uint32
	if err := binary.Read(c.r, binary.BigEndian, &length); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEndOfStream
		}
		return nil, fmt.Errorf("transport: read frame length: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, fmt.Errorf("transport: read frame body: %w", err)
	}
	return buf, nil
}

// Send writes one length-prefixed batch frame. Concurrent Send/Error calls
// are serialized so a frame is never interleaved with another.
func (c *StdioConnection) Send(_ context.Context, batch []byte) error {
	return c.writeFrame(frameKindBatch, batch)
}

// Error reports a batch-level failure to the host as a standalone frame
// (spec.md §4.1 step 5: "call host.error(exception) and continue"),
// distinguished from a Send frame by its kind byte so the host can tell
// the two apart on the same stream.
func (c *StdioConnection) Error(_ context.Context, cause error) error {
	return c.writeFrame(frameKindError, []byte(cause.Error()))
}

func (c *StdioConnection) writeFrame(kind byte, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var header [5]byte
	header[0] = kind
	binary.BigEndian.PutUint32(header[1:], uint32(len(body)))
	if _, err := c.w.Write(header[:]); err != nil {
		return fmt.Errorf("transport: write frame header: %w", err)
	}
	if _, err := c.w.Write(body); err != nil {
		return fmt.Errorf("transport: write frame body: %w", err)
	}
	return nil
}
