package client

import (
	"context"
	"sync"

	commonpb "go.temporal.io/api/common/v1"
)

// Future is the pending completion slot for one outbound request. It holds
// either the eventual value, the eventual failure, or nothing yet.
// Workflow handlers block on Wait at a suspension point; the tick loop
// resolves it from Client.Dispatch or Client.Cancel.
type Future struct {
	done     chan struct{}
	once     sync.Once
	payloads []*commonpb.Payload
	err      error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve completes the future exactly once; subsequent calls are no-ops,
// matching the spec's requirement that a response is applied to its
// pending slot exactly once.
func (f *Future) resolve(payloads []*commonpb.Payload, err error) {
	f.once.Do(func() {
		f.payloads = payloads
		f.err = err
		close(f.done)
	})
}

// Ready reports whether the future has already resolved, without blocking.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first. Called from within a workflow handler's cooperative continuation
// at a suspension point.
func (f *Future) Wait(ctx context.Context) ([]*commonpb.Payload, error) {
	select {
	case <-f.done:
		return f.payloads, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
