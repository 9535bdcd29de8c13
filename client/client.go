// Package client implements the correlated request/response side of the
// worker: user workflow handlers issue outbound requests through it and
// receive their eventual resolution from a later tick's inbound responses.
package client

import (
	"fmt"
	"sync"
	"sync/atomic"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"

	"github.com/roadrunner-server/temporal-worker-core/queue"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// Client correlates outbound requests emitted by workflow code with the
// inbound responses that eventually satisfy them (spec.md §4.3). Requests
// are appended to the shared ResponseQueue immediately; responses are
// applied to their pending Future during the tick in which they arrive,
// before that tick's outbound batch is encoded.
type Client struct {
	nextID uint64 // atomic; spec.md invariant 1: unique, monotonically increasing per process

	mu      sync.Mutex
	pending map[uint64]*Future

	queue *queue.ResponseQueue
}

// New constructs a Client that appends outbound requests to q.
func New(q *queue.ResponseQueue) *Client {
	return &Client{
		pending: make(map[uint64]*Future),
		queue:   q,
	}
}

// Request assigns a fresh id, appends a request Command to the response
// queue, and records a pending slot. The returned Future resolves on a
// later tick when the correlated response arrives (or is canceled).
//
// Request appends to the queue immediately, so it is only safe to call
// from the tick goroutine. Code that runs off the tick goroutine (a
// workflow handler's own goroutine) must not call this directly; it
// should instead go through a buffering wrapper such as worker.Worker's,
// built on NextID and RegisterPending, so the actual queue write happens
// only when the tick loop drains that buffer (spec.md §5 single-writer).
func (c *Client) Request(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) (uint64, *Future) {
	id := c.NextID()
	fut := c.RegisterPending(id)
	c.queue.Append(&wire.Command{
		ID:       id,
		Name:     name,
		Payloads: payloads,
		Header:   header,
		Options:  options,
	})
	return id, fut
}

// NextID returns a fresh, monotonically increasing request id without
// registering a pending slot or appending anything to the response queue.
func (c *Client) NextID() uint64 {
	return atomic.AddUint64(&c.nextID, 1)
}

// RegisterPending records a pending slot for id and returns the Future
// that resolves once a correlated response arrives, without touching the
// response queue itself.
func (c *Client) RegisterPending(id uint64) *Future {
	fut := newFuture()
	c.mu.Lock()
	c.pending[id] = fut
	c.mu.Unlock()
	return fut
}

// Notify appends a fire-and-forget request Command to the response queue
// without registering a pending slot. It is used to report events the
// worker side originates unprompted, such as a workflow execution reaching
// a terminal state, where no caller is blocked waiting on the resulting
// id. Like Request, it appends immediately and so is only safe to call
// from the tick goroutine; see Request's doc comment for the off-goroutine
// alternative.
func (c *Client) Notify(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) uint64 {
	id := atomic.AddUint64(&c.nextID, 1)
	c.queue.Append(&wire.Command{
		ID:       id,
		Name:     name,
		Payloads: payloads,
		Header:   header,
		Options:  options,
	})
	return id
}

// NotifyFailure is Notify's failure-carrying counterpart.
func (c *Client) NotifyFailure(name string, failure *failurepb.Failure, header wire.Header, options map[string]any) uint64 {
	id := atomic.AddUint64(&c.nextID, 1)
	c.queue.Append(&wire.Command{
		ID:      id,
		Name:    name,
		Failure: failure,
		Header:  header,
		Options: options,
	})
	return id
}

// Dispatch resolves the pending slot correlated by resp.ID. It returns a
// ProtocolError-classified error if no slot matches (spec.md §7,
// invariant 3), which the caller (the tick loop) reports via host.error
// without aborting the tick.
func (c *Client) Dispatch(resp *wire.Command) error {
	c.mu.Lock()
	fut, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("client: no pending request for response id %d: %w",
			resp.ID, wire.ErrorFromFailure(wire.ErrProtocolError(fmt.Sprintf("unmatched response id %d", resp.ID))))
	}

	if resp.Failure != nil {
		fut.resolve(nil, wire.ErrorFromFailure(resp.Failure))
		return nil
	}
	fut.resolve(resp.Payloads, nil)
	return nil
}

// Cancel marks the pending slot for id as canceled. If no host response
// has arrived, the slot resolves immediately to a CanceledFailure; per
// spec.md §4.3 this is the minimum required behavior, host-specific
// policies may still deliver a genuine response first if it races in
// during the same tick (Cancel is a no-op in that case, since Dispatch
// already removed and resolved the slot).
func (c *Client) Cancel(id uint64) {
	c.mu.Lock()
	fut, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if ok {
		fut.resolve(nil, wire.ErrorFromFailure(wire.ErrCanceled("request canceled before response arrived")))
	}
}

// PendingCount returns the number of unresolved outbound requests, used by
// tests to verify the promise-table invariant (spec.md §8).
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
