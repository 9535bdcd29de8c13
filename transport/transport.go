// Package transport declares the boundaries between the tick loop and the
// outside world: the sidecar host connection that batches of Commands cross,
// and the RPC connection worker code may use to reach back into the host
// process for out-of-band calls. Both are external collaborators (spec.md
// §1, §6) — this package names the contracts and provides two small
// implementations: StdioConnection (length-prefixed frames over a byte
// stream pair) and NoopRpcConnection.
package transport

import (
	"context"
	"errors"
)

// ErrEndOfStream is returned by WaitBatch when the host has cleanly closed
// its side of the connection between batches, rather than mid-frame or
// because of a genuine transport failure (spec.md §4.1 step 1: "batch =
// host.waitBatch(). If empty/null, exit returning 0"; spec.md §6:
// "waitBatch() → {…} | end … Returning end causes run() to return 0"). Run
// treats this distinctly from any other WaitBatch error: it ends the loop
// without logging a failure, since an end-of-stream is the host's ordinary
// way of shutting a worker down.
var ErrEndOfStream = errors.New("transport: end of stream")

// HostConnection is the sidecar boundary the tick loop reads inbound wire
// batches from and writes outbound wire batches to. waitBatch/send operate
// on already-encoded bytes; codec selection lives one layer up, in the tick
// loop, so a HostConnection implementation never depends on wire formats.
type HostConnection interface {
	// WaitBatch blocks until the host has a batch ready, ctx is done, or
	// the host ends the stream (ErrEndOfStream, or an error satisfying
	// errors.Is(err, ErrEndOfStream)).
	WaitBatch(ctx context.Context) ([]byte, error)
	// Send writes one encoded outbound batch to the host.
	Send(ctx context.Context, batch []byte) error
	// Error reports a batch-level failure to the host (spec.md §4.1 step
	// 5, §7: "reported via host.error; the loop continues"). A tick whose
	// decode, encode, or send fails calls it in place of sending a batch;
	// an unmatched response or a lifecycle listener error is reported
	// through it as well, and that tick still sends its batch afterwards.
	Error(ctx context.Context, cause error) error
}

// RpcConnection is an out-of-band synchronous call channel into the host
// process, used by handlers for operations that fall outside the
// batch/command protocol (spec.md §6). It is intentionally narrow: callers
// pass a fully-qualified method name and a pre-serialized payload.
type RpcConnection interface {
	Call(ctx context.Context, method string, payload []byte) ([]byte, error)
}
