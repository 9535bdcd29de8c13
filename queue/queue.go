// Package queue implements the ordered outbound command buffer produced
// during a tick.
package queue

import (
	"sync"

	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// ResponseQueue is the ordered sequence of commands awaiting outbound
// framing. It preserves insertion order and is drained to empty by each
// Codec.Encode call. The tick loop is its only writer, but Drain and Len
// are still guarded so tests and instrumentation can observe it safely
// from another goroutine without racing the tick.
type ResponseQueue struct {
	mu       sync.Mutex
	commands []*wire.Command
}

// New constructs an empty ResponseQueue.
func New() *ResponseQueue {
	return &ResponseQueue{}
}

// Append adds cmd to the end of the queue, preserving append order.
func (q *ResponseQueue) Append(cmd *wire.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, cmd)
}

// Len returns the number of commands currently queued.
func (q *ResponseQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// Drain removes and returns all queued commands in insertion order,
// resetting the queue to empty. Per spec.md invariant 5, the queue is
// always empty at the start of a tick, so Drain is called once per tick
// immediately before encoding.
func (q *ResponseQueue) Drain() []*wire.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.commands
	q.commands = nil
	return drained
}
