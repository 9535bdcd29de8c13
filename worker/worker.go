// Package worker implements the per-task-queue dispatch and workflow
// execution state machine (spec.md §4.5). A Worker owns the workflow and
// activity handlers registered against one task queue and routes inbound
// requests to them, threading outbound calls back through the shared
// Client.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"

	"github.com/roadrunner-server/temporal-worker-core/client"
	"github.com/roadrunner-server/temporal-worker-core/dataconverter"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// ActivityHandler is user activity code. Activities are not replayed and
// run to completion on a single dispatch call; they may block on ctx.
type ActivityHandler func(ctx context.Context, payloads []*commonpb.Payload, header wire.Header) ([]*commonpb.Payload, error)

// Worker owns one task queue's registered handlers and running workflow
// executions.
type Worker struct {
	name       string
	requester  Requester
	background context.Context
	converter  dataconverter.DataConverter

	mu         sync.RWMutex
	workflows  map[string]WorkflowHandler
	activities map[string]ActivityHandler
	executions map[string]*execution

	outboundMu sync.Mutex
	outbound   []*wire.Command
}

// New constructs a Worker for the given task queue name. c is the shared
// Client used to correlate outbound requests and to assign ids; a Worker
// never appends to its response queue directly, since it hands that
// client to a bufferedRequester that funnels every workflow-goroutine
// outbound call through Worker.outbound instead (see bufferOutbound).
// background is the parent context for handler goroutines; canceling it
// tears down every running execution this worker owns. dc is the
// DataConverter handlers use to decode/encode typed values against the raw
// Payloads the wire protocol carries (spec.md §4.5); a nil dc falls back to
// dataconverter.Default().
func New(name string, c *client.Client, background context.Context, dc dataconverter.DataConverter) *Worker {
	if dc == nil {
		dc = dataconverter.Default()
	}
	w := &Worker{
		name:       name,
		background: background,
		converter:  dc,
		workflows:  make(map[string]WorkflowHandler),
		activities: make(map[string]ActivityHandler),
		executions: make(map[string]*execution),
	}
	w.requester = &bufferedRequester{client: c, w: w}
	return w
}

// bufferedRequester implements Requester for workflow handler goroutines.
// Every call assigns an id and, where applicable, a pending Future through
// the real Client, but builds the resulting Command itself and hands it to
// Worker.bufferOutbound rather than appending straight to the response
// queue. This keeps ResponseQueue.Append a tick-goroutine-only operation
// (spec.md §5, invariant 5) even though workflow handlers run on their own
// goroutines and may call Request/Notify/NotifyFailure at any time.
type bufferedRequester struct {
	client *client.Client
	w      *Worker
}

func (r *bufferedRequester) Request(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) (uint64, *client.Future) {
	id := r.client.NextID()
	fut := r.client.RegisterPending(id)
	r.w.bufferOutbound(&wire.Command{ID: id, Name: name, Payloads: payloads, Header: header, Options: options})
	return id, fut
}

func (r *bufferedRequester) Cancel(id uint64) {
	r.client.Cancel(id)
}

func (r *bufferedRequester) Notify(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) uint64 {
	id := r.client.NextID()
	r.w.bufferOutbound(&wire.Command{ID: id, Name: name, Payloads: payloads, Header: header, Options: options})
	return id
}

func (r *bufferedRequester) NotifyFailure(name string, failure *failurepb.Failure, header wire.Header, options map[string]any) uint64 {
	id := r.client.NextID()
	r.w.bufferOutbound(&wire.Command{ID: id, Name: name, Failure: failure, Header: header, Options: options})
	return id
}

// bufferOutbound records cmd for the next DrainOutbound call. Safe to call
// from any goroutine.
func (w *Worker) bufferOutbound(cmd *wire.Command) {
	w.outboundMu.Lock()
	w.outbound = append(w.outbound, cmd)
	w.outboundMu.Unlock()
}

// DrainOutbound returns and clears every Command a workflow goroutine has
// buffered since the last call, in the order they were buffered. The tick
// loop (factory.RunTick) calls this exactly once per tick and appends the
// result to the ResponseQueue itself, so those commands land in the queue
// only at that well-defined point instead of racing the tick loop's own
// dispatch and drain (spec.md §5 single-writer, invariant 5; §8 "given
// identical inbound batch sequences, outbound batches are byte-identical").
func (w *Worker) DrainOutbound() []*wire.Command {
	w.outboundMu.Lock()
	defer w.outboundMu.Unlock()
	drained := w.outbound
	w.outbound = nil
	return drained
}

// Name satisfies taskqueue.Worker.
func (w *Worker) Name() string { return w.name }

// RegisterWorkflow associates workflowType with a handler. Registration is
// expected to complete before the tick loop starts.
func (w *Worker) RegisterWorkflow(workflowType string, h WorkflowHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.workflows[workflowType] = h
}

// RegisterActivity associates activityType with a handler.
func (w *Worker) RegisterActivity(activityType string, h ActivityHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activities[activityType] = h
}

// WorkflowTypes returns the registered workflow type names, for
// GetWorkerInfo.
func (w *Worker) WorkflowTypes() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.workflows))
	for n := range w.workflows {
		names = append(names, n)
	}
	return names
}

// ActivityTypes returns the registered activity type names, for
// GetWorkerInfo.
func (w *Worker) ActivityTypes() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.activities))
	for n := range w.activities {
		names = append(names, n)
	}
	return names
}

func optionString(options map[string]any, key string) string {
	if options == nil {
		return ""
	}
	v, _ := options[key].(string)
	return v
}

// Dispatch routes one inbound request Command to its handler and returns
// the response Command to enqueue. For StartWorkflow/SignalWithStart this
// blocks until the handler either suspends for the first time or reaches a
// terminal state before ever suspending (spec.md §4.1: "advance cooperative
// workflow tasks until they next suspend"); every other request kind
// resolves synchronously without blocking on user code beyond a single
// activity invocation or signal/query handoff.
func (w *Worker) Dispatch(ctx context.Context, req *wire.Command) *wire.Command {
	switch req.Name {
	case wire.CommandStartWorkflow:
		return w.dispatchStart(req, nil)
	case wire.CommandSignalWithStart:
		sig := Signal{Name: optionString(req.Options, wire.OptionSignalName), Payloads: req.Payloads}
		return w.dispatchStart(req, &sig)
	case wire.CommandSignalWorkflow:
		return w.dispatchSignal(req)
	case wire.CommandQueryWorkflow:
		return w.dispatchQuery(ctx, req)
	case wire.CommandCancelWorkflow:
		return w.dispatchCancel(req)
	case wire.CommandTerminateWorkflow:
		return w.dispatchTerminate(req)
	case wire.CommandInvokeActivity:
		return w.dispatchActivity(ctx, req)
	default:
		return wire.NewFailureResponse(req.ID, wire.ErrNotImplemented(fmt.Sprintf("unknown request kind %q", req.Name)))
	}
}

func (w *Worker) dispatchStart(req *wire.Command, bundled *Signal) *wire.Command {
	workflowID := optionString(req.Options, wire.OptionWorkflowID)
	runID := optionString(req.Options, wire.OptionRunID)
	if runID == "" {
		runID = generateRunID(workflowID)
	}
	workflowType := optionString(req.Options, wire.OptionWorkflowType)

	w.mu.Lock()
	if existing, ok := w.executions[workflowID]; ok && !existing.isTerminal() {
		w.mu.Unlock()
		return wire.NewFailureResponse(req.ID, wire.ErrAlreadyStarted(fmt.Sprintf("workflow %q is already running", workflowID)))
	}
	handler, ok := w.workflows[workflowType]
	if !ok {
		w.mu.Unlock()
		return wire.NewFailureResponse(req.ID, wire.ErrNotFound(fmt.Sprintf("workflow type %q is not registered", workflowType)))
	}

	runCtx, cancel := context.WithCancel(w.background)
	exec := newExecution(workflowID, runID, cancel)
	w.executions[workflowID] = exec
	w.mu.Unlock()

	exec.markRunning()
	if bundled != nil {
		exec.deliverSignal(*bundled)
	}
	w.runExecution(runCtx, exec, handler, req.Payloads)

	ev := <-exec.firstEventCh
	if !ev.stillRunning {
		return w.terminalResponse(req.ID, ev.result, ev.err)
	}
	return wire.NewResponse(req.ID, wire.MustEncodeStarted(workflowID, runID))
}

// runExecution starts the handler on its own goroutine and arranges for its
// terminal outcome to be reported through Requester.Notify once it
// finishes, if the originating Start/SignalWithStart request already
// received a "Started" response (that may be many ticks earlier). A run that
// finishes before ever suspending has its outcome carried by that response
// itself, and a run the host already terminated reports nothing more. Because
// w.requester is a bufferedRequester, that Notify only buffers the
// CompleteWorkflow command; it reaches the response queue on the next
// DrainOutbound call from the tick loop, not immediately.
func (w *Worker) runExecution(runCtx context.Context, exec *execution, handler WorkflowHandler, input []*commonpb.Payload) {
	wctx := &WorkflowContext{
		Context:    runCtx,
		WorkflowID: exec.workflowID,
		RunID:      exec.runID,
		Converter:  w.converter,
		requester:  w.requester,
		signals:    exec.signals,
		exec:       exec,
	}

	go func() {
		result, err := runWorkflowSafely(handler, wctx, input)
		exec.cancel()

		switch {
		case err == nil:
			if !exec.reportTerminal(stateCompleted, result, nil) {
				return
			}
			w.requester.Notify(wire.CommandCompleteWorkflow, result, nil, map[string]any{
				wire.OptionWorkflowID: exec.workflowID,
				wire.OptionRunID:      exec.runID,
			})
		default:
			if cont, ok := err.(*ContinueAsNewError); ok {
				if !exec.reportTerminal(stateContinuedAsNew, nil, err) {
					return
				}
				w.requester.Notify(wire.CommandCompleteWorkflow, cont.Input, nil, map[string]any{
					wire.OptionWorkflowID:   exec.workflowID,
					wire.OptionRunID:        exec.runID,
					wire.OptionWorkflowType: cont.NewWorkflowType,
				})
				return
			}
			st, failure := classifyErr(err)
			if !exec.reportTerminal(st, nil, err) {
				return
			}
			w.requester.NotifyFailure(wire.CommandCompleteWorkflow, failure, nil, map[string]any{
				wire.OptionWorkflowID: exec.workflowID,
				wire.OptionRunID:      exec.runID,
			})
		}
	}()
}

// runWorkflowSafely calls handler, recovering a panic into an error the same
// way a returned error is handled: the execution reaches its terminal
// Failed state and reports a failure CompleteWorkflow, instead of the panic
// unwinding this goroutine and taking the whole process down with it
// (spec.md §7).
func runWorkflowSafely(handler WorkflowHandler, wctx *WorkflowContext, input []*commonpb.Payload) (result []*commonpb.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return handler(wctx, input)
}

func (w *Worker) terminalResponse(reqID uint64, result []*commonpb.Payload, err error) *wire.Command {
	if err == nil {
		return wire.NewResponse(reqID, result...)
	}
	_, failure := classifyErr(err)
	return wire.NewFailureResponse(reqID, failure)
}

func (w *Worker) dispatchSignal(req *wire.Command) *wire.Command {
	workflowID := optionString(req.Options, wire.OptionWorkflowID)
	w.mu.RLock()
	exec, ok := w.executions[workflowID]
	w.mu.RUnlock()
	if !ok || exec.isTerminal() {
		return wire.NewFailureResponse(req.ID, wire.ErrIllegalState(fmt.Sprintf("workflow %q is not running", workflowID)))
	}
	exec.deliverSignal(Signal{Name: optionString(req.Options, wire.OptionSignalName), Payloads: req.Payloads})
	return wire.NewResponse(req.ID)
}

func (w *Worker) dispatchQuery(_ context.Context, req *wire.Command) *wire.Command {
	workflowID := optionString(req.Options, wire.OptionWorkflowID)
	w.mu.RLock()
	exec, ok := w.executions[workflowID]
	w.mu.RUnlock()
	if !ok {
		return wire.NewFailureResponse(req.ID, wire.ErrIllegalState(fmt.Sprintf("workflow %q is not running", workflowID)))
	}
	payloads, err := exec.answerQuery(optionString(req.Options, wire.OptionQueryName), req.Payloads)
	if err != nil {
		return wire.NewFailureResponse(req.ID, wire.ErrIllegalState(err.Error()))
	}
	return wire.NewResponse(req.ID, payloads...)
}

func (w *Worker) dispatchCancel(req *wire.Command) *wire.Command {
	workflowID := optionString(req.Options, wire.OptionWorkflowID)
	w.mu.RLock()
	exec, ok := w.executions[workflowID]
	w.mu.RUnlock()
	if !ok || exec.isTerminal() {
		return wire.NewFailureResponse(req.ID, wire.ErrIllegalState(fmt.Sprintf("workflow %q is not running", workflowID)))
	}
	exec.cancel()
	return wire.NewResponse(req.ID)
}

func (w *Worker) dispatchTerminate(req *wire.Command) *wire.Command {
	workflowID := optionString(req.Options, wire.OptionWorkflowID)
	w.mu.RLock()
	exec, ok := w.executions[workflowID]
	w.mu.RUnlock()
	if !ok || exec.isTerminal() {
		return wire.NewFailureResponse(req.ID, wire.ErrIllegalState(fmt.Sprintf("workflow %q is not running", workflowID)))
	}
	exec.reportTerminal(stateTerminated, nil, wire.ErrorFromFailure(wire.ErrTerminated("terminated by host")))
	exec.cancel()
	return wire.NewResponse(req.ID)
}

func (w *Worker) dispatchActivity(ctx context.Context, req *wire.Command) *wire.Command {
	activityType := optionString(req.Options, wire.OptionActivityName)
	w.mu.RLock()
	handler, ok := w.activities[activityType]
	w.mu.RUnlock()
	if !ok {
		return wire.NewFailureResponse(req.ID, wire.ErrNotFound(fmt.Sprintf("activity type %q is not registered", activityType)))
	}
	result, err := runActivitySafely(handler, withConverter(ctx, w.converter), req.Payloads, req.Header)
	if err != nil {
		return wire.NewFailureResponse(req.ID, wire.FailureFromError(err))
	}
	return wire.NewResponse(req.ID, result...)
}

// runActivitySafely calls handler, recovering a panic into an error so one
// bad activity fails only its own response instead of taking down the tick
// that dispatched it (spec.md §7: a handler-level failure resolves as a
// failure command, it never aborts the tick).
func runActivitySafely(handler ActivityHandler, ctx context.Context, payloads []*commonpb.Payload, header wire.Header) (result []*commonpb.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activity handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return handler(ctx, payloads, header)
}

// classifyErr maps a handler error to a terminal state and wire Failure. A
// canceled run context surfaces as Canceled; anything else as Failed.
func classifyErr(err error) (state, *failurepb.Failure) {
	if err == context.Canceled {
		return stateCanceled, wire.ErrCanceled("workflow canceled")
	}
	return stateFailed, wire.FailureFromError(err)
}
