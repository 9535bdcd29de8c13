package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	commonpb "go.temporal.io/api/common/v1"
)

// state is the workflow execution lifecycle (spec.md §4.5): a Fresh
// execution moves to Running once its handler goroutine starts, and from
// Running to exactly one terminal state.
type state int

const (
	stateFresh state = iota
	stateRunning
	stateCompleted
	stateFailed
	stateCanceled
	stateTerminated
	stateContinuedAsNew
)

func (s state) terminal() bool {
	return s != stateFresh && s != stateRunning
}

// WorkflowHandler is user workflow code. It runs on its own goroutine,
// suspending only at wctx.ReceiveSignal or wctx.Request, and returns its
// result (or a *ContinueAsNewError, or any other error) when the run ends.
type WorkflowHandler func(wctx *WorkflowContext, input []*commonpb.Payload) ([]*commonpb.Payload, error)

// firstEvent is what dispatch of the originating Start/SignalWithStart
// command blocks on: either the handler suspended for the first time
// (stillRunning true) or it already reached a terminal state before ever
// suspending (stillRunning false, result populated).
type firstEvent struct {
	stillRunning bool
	result       []*commonpb.Payload
	err          error
}

// execution tracks one running (or finished) workflow instance, keyed by
// workflow ID in Worker.executions.
type execution struct {
	workflowID string
	runID      string
	cancelFn   context.CancelFunc

	signals chan Signal

	mu            sync.Mutex
	state         state
	queryHandlers map[string]QueryHandler

	firstEventOnce sync.Once
	firstEventCh   chan firstEvent

	// terminalCh is closed once, when the execution reaches its terminal
	// state (see Done); result and err hold that outcome.
	terminalCh chan struct{}
	result     []*commonpb.Payload
	err        error
}

func newExecution(workflowID, runID string, cancelFn context.CancelFunc) *execution {
	return &execution{
		workflowID:    workflowID,
		runID:         runID,
		cancelFn:      cancelFn,
		signals:       make(chan Signal, 16),
		state:         stateFresh,
		queryHandlers: make(map[string]QueryHandler),
		firstEventCh:  make(chan firstEvent, 1),
		terminalCh:    make(chan struct{}),
	}
}

func (e *execution) markRunning() {
	e.mu.Lock()
	e.state = stateRunning
	e.mu.Unlock()
}

func (e *execution) isTerminal() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.terminal()
}

// reportSuspended is called by the handler's driving goroutine the first
// time it blocks; it unblocks the pending Start dispatch with "Started".
func (e *execution) reportSuspended() {
	e.firstEventOnce.Do(func() {
		e.firstEventCh <- firstEvent{stillRunning: true}
	})
}

// reportTerminal records the terminal outcome, resolves a still-pending
// first event (for workflows that never suspended before completing), and
// unblocks anything waiting on Done. Only the first call has any effect. It
// returns true when the outcome still has to be reported separately: the
// call took effect and the originating Start/SignalWithStart had already
// been answered with "Started".
func (e *execution) reportTerminal(st state, result []*commonpb.Payload, err error) bool {
	e.mu.Lock()
	if e.state.terminal() {
		e.mu.Unlock()
		return false
	}
	e.state = st
	e.mu.Unlock()

	answeredInline := false
	e.firstEventOnce.Do(func() {
		e.firstEventCh <- firstEvent{stillRunning: false, result: result, err: err}
		answeredInline = true
	})

	e.result, e.err = result, err
	close(e.terminalCh)
	return !answeredInline
}

// Done returns a channel that closes once the execution reaches a terminal
// state.
func (e *execution) Done() <-chan struct{} {
	return e.terminalCh
}

// deliverSignal enqueues a signal for the running handler. Callers must
// check isTerminal first; a signal sent to a finished execution's channel
// would block forever since nothing drains it.
func (e *execution) deliverSignal(s Signal) {
	e.signals <- s
}

// setQueryHandler registers or replaces the handler answering queries
// named name.
func (e *execution) setQueryHandler(name string, h QueryHandler) {
	e.mu.Lock()
	e.queryHandlers[name] = h
	e.mu.Unlock()
}

// answerQuery invokes the registered handler for name, if any. It is
// called directly by Worker.dispatchQuery, not by the handler goroutine,
// so a workflow blocked in ReceiveSignal or Request can still answer
// queries. A panicking query handler recovers into an error rather than
// crashing the tick that dispatched it, same as an activity or workflow
// handler panic.
func (e *execution) answerQuery(name string, payloads []*commonpb.Payload) (result []*commonpb.Payload, err error) {
	e.mu.Lock()
	h, ok := e.queryHandlers[name]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no query handler registered for %q", name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return h(payloads)
}

func (e *execution) cancel() {
	if e.cancelFn != nil {
		e.cancelFn()
	}
}
