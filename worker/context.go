package worker

import (
	"context"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"

	"github.com/roadrunner-server/temporal-worker-core/client"
	"github.com/roadrunner-server/temporal-worker-core/dataconverter"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// converterCtxKey carries a Worker's DataConverter through the context.Context
// an ActivityHandler receives, since that handler is a bare function with no
// struct to hang the converter off (unlike WorkflowContext.Converter).
type converterCtxKey struct{}

func withConverter(ctx context.Context, dc dataconverter.DataConverter) context.Context {
	return context.WithValue(ctx, converterCtxKey{}, dc)
}

// ConverterFromContext returns the DataConverter the dispatching Worker was
// constructed with, for activity handlers that need to decode or encode
// typed values against the raw Payloads their signature carries (spec.md
// §4.5). It returns dataconverter.Default() if ctx was not produced by a
// Worker's activity dispatch.
func ConverterFromContext(ctx context.Context) dataconverter.DataConverter {
	if dc, ok := ctx.Value(converterCtxKey{}).(dataconverter.DataConverter); ok {
		return dc
	}
	return dataconverter.Default()
}

// Requester is the outbound half of client.Client that workflow handlers
// need. It is declared here, rather than importing a concrete factory type,
// so the worker package has no back-reference to its owner (spec.md §9:
// cyclic references are resolved as explicit parameters passed at dispatch
// time, not as struct fields).
type Requester interface {
	Request(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) (uint64, *client.Future)
	Cancel(id uint64)
	Notify(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) uint64
	NotifyFailure(name string, failure *failurepb.Failure, header wire.Header, options map[string]any) uint64
}

// Signal is one signal delivery handed to a running workflow.
type Signal struct {
	Name     string
	Payloads []*commonpb.Payload
}

// QueryHandler answers one named query against whatever state the workflow
// handler has captured at registration time. It must not mutate workflow
// state (spec.md §4.5 invariant: queries are read-only) and may be called
// concurrently with the handler goroutine, since Worker.dispatchQuery
// invokes it directly rather than handing it to that goroutine.
type QueryHandler func(payloads []*commonpb.Payload) ([]*commonpb.Payload, error)

// WorkflowContext is the handle a workflow handler runs with. It exposes
// the requester side of Client for outbound calls, and the mailbox the
// execution state machine feeds signals through.
type WorkflowContext struct {
	Context    context.Context
	WorkflowID string
	RunID      string
	// Converter is the DataConverter this workflow's Worker was constructed
	// with. Handlers that need typed arguments or results, rather than raw
	// Payloads, use Decode/Encode instead of reaching into the SDK
	// themselves.
	Converter dataconverter.DataConverter

	requester Requester
	signals   chan Signal
	exec      *execution
}

// Decode unmarshals payloads into valuePtrs using Converter, the same way a
// Temporal SDK worker decodes workflow arguments before invoking user code
// (spec.md §4.5: "the request payloads decoded via the DataConverter").
func (c *WorkflowContext) Decode(payloads []*commonpb.Payload, valuePtrs ...interface{}) error {
	return c.Converter.FromPayloads(&commonpb.Payloads{Payloads: payloads}, valuePtrs...)
}

// Encode marshals values into Payloads using Converter, the inverse of
// Decode, for handlers that build outbound Request/Notify payloads from
// typed Go values instead of constructing *commonpb.Payload by hand.
func (c *WorkflowContext) Encode(values ...interface{}) ([]*commonpb.Payload, error) {
	p, err := c.Converter.ToPayloads(values...)
	if err != nil {
		return nil, err
	}
	return p.Payloads, nil
}

// SetQueryHandler registers (or replaces) the handler answering queries
// named name. Handlers typically close over the same local variables the
// handler loop mutates, and are re-registered whenever that state changes
// meaningfully, mirroring how a query handler is expected to always
// reflect the latest observed state.
func (c *WorkflowContext) SetQueryHandler(name string, h QueryHandler) {
	c.exec.setQueryHandler(name, h)
}

// ReceiveSignal blocks until a signal is delivered or the context is
// canceled. Handlers that need to wait on more than one signal call this in
// a loop; this is the workflow's only suspension point besides Request.
// The first call in a run marks the execution as suspended, resolving the
// pending Start/SignalWithStart response with "Started" if it has not
// resolved already.
func (c *WorkflowContext) ReceiveSignal() (Signal, error) {
	c.exec.reportSuspended()
	select {
	case s := <-c.signals:
		return s, nil
	case <-c.Context.Done():
		return Signal{}, c.Context.Err()
	}
}

// Request issues an outbound request through the shared Client and blocks
// the calling goroutine until it resolves or the workflow context ends.
func (c *WorkflowContext) Request(name string, payloads []*commonpb.Payload, header wire.Header, options map[string]any) ([]*commonpb.Payload, error) {
	c.exec.reportSuspended()
	_, fut := c.requester.Request(name, payloads, header, options)
	return fut.Wait(c.Context)
}

// ContinueAsNewError is returned by a workflow handler to end the current
// run and start a fresh one with new input, matching the terminal
// ContinuedAsNew state (spec.md §4.5 state machine).
type ContinueAsNewError struct {
	NewWorkflowType string
	Input           []*commonpb.Payload
}

func (e *ContinueAsNewError) Error() string {
	return fmt.Sprintf("continue as new: %s", e.NewWorkflowType)
}
