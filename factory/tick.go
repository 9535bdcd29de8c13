package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roadrunner-server/temporal-worker-core/lifecycle"
	"github.com/roadrunner-server/temporal-worker-core/transport"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// TickResult reports what one tick did, for tests and diagnostics. It is
// not part of the wire protocol.
type TickResult struct {
	Decoded  int
	HostErrs []error
	// End reports that the host ended the stream (spec.md §4.1 step 1,
	// §6: waitBatch returning "end" causes run() to return 0). No other
	// field is meaningful when End is true.
	End bool
}

// OutboundDrainer is satisfied by task-queue workers that buffer commands
// originating off the tick goroutine — a workflow handler's own outbound
// Request calls, and a finished execution's CompleteWorkflow notification
// — instead of writing them straight to the shared ResponseQueue. RunTick
// drains every registered worker once per tick, at the one point those
// commands are allowed to reach the queue, preserving the queue's
// single-writer invariant (spec.md §5, invariant 5).
type OutboundDrainer interface {
	DrainOutbound() []*wire.Command
}

// RunTick executes exactly one iteration of the loop in spec.md §4.1:
// wait for a batch, decode it, dispatch every command it carries (requests
// to Server, responses to Client), drain any commands workflow goroutines
// buffered since the last tick, publish the four lifecycle events in fixed
// order, encode whatever ended up in the ResponseQueue, and send it. A
// command that fails to dispatch does not abort the tick: its error is
// collected into host.error, matching the per-command failure isolation
// spec.md §7 requires. A failure in decode, dispatch, lifecycle, encode, or
// send is reported to the host via HostConnection.Error without aborting
// the loop (spec.md §4.1 step 5): a decode, encode, or send failure ends
// the tick, while an unmatched response or a lifecycle listener error lets
// the tick go on to encode and send its batch. A handler-level failure
// instead resolves as a failure response command and never reaches here.
func (f *Factory) RunTick(ctx context.Context) (TickResult, error) {
	ctx, span := f.tracer.Start(ctx, "factory.tick")
	defer span.End()
	start := time.Now()
	defer func() { f.metrics.RecordTimer("tick.duration", time.Since(start)) }()

	raw, err := f.host.WaitBatch(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrEndOfStream) {
			return TickResult{End: true}, nil
		}
		span.RecordError(err)
		return TickResult{}, fmt.Errorf("factory: wait batch: %w", err)
	}

	commands, err := f.codec.Decode(raw)
	if err != nil {
		span.RecordError(err)
		return TickResult{}, f.reportHostError(ctx, fmt.Errorf("factory: decode batch failed: %w", err))
	}
	f.metrics.IncCounter("tick.commands_decoded", float64(len(commands)))

	result := TickResult{Decoded: len(commands)}
	for _, cmd := range commands {
		if cmd.IsRequest() {
			dispatchCtx, dispatchSpan := f.tracer.Start(ctx, "factory.dispatch_request")
			f.server.Dispatch(dispatchCtx, nil, cmd)
			dispatchSpan.End()
			f.metrics.IncCounter("tick.requests_dispatched", 1, "command", cmd.Name)
			continue
		}
		if err := f.client.Dispatch(cmd); err != nil {
			result.HostErrs = append(result.HostErrs, err)
			f.metrics.IncCounter("tick.unmatched_responses", 1)
			if reportErr := f.reportHostError(ctx, fmt.Errorf("factory: unmatched response id %d: %w", cmd.ID, err)); reportErr != nil {
				span.RecordError(reportErr)
				return result, reportErr
			}
		}
	}

	for _, w := range f.registry.All() {
		drainer, ok := w.(OutboundDrainer)
		if !ok {
			continue
		}
		drained := drainer.DrainOutbound()
		if len(drained) > 0 {
			f.metrics.IncCounter("tick.outbound_from_workflows", float64(len(drained)), "taskQueue", w.Name())
		}
		for _, cmd := range drained {
			f.queue.Append(cmd)
		}
	}

	for _, event := range []lifecycle.Event{lifecycle.OnSignal, lifecycle.OnCallback, lifecycle.OnQuery, lifecycle.OnTick} {
		lifecycleCtx, lifecycleSpan := f.tracer.Start(ctx, "factory.lifecycle."+event.String())
		errs := f.emitter.Publish(lifecycleCtx, event)
		lifecycleSpan.End()
		for _, err := range errs {
			result.HostErrs = append(result.HostErrs, err)
			f.metrics.IncCounter("tick.lifecycle_errors", 1, "event", event.String())
			if reportErr := f.reportHostError(ctx, fmt.Errorf("factory: lifecycle listener error during %s: %w", event.String(), err)); reportErr != nil {
				span.RecordError(reportErr)
				return result, reportErr
			}
		}
	}

	outbound := f.queue.Drain()
	data, err := f.codec.Encode(outbound)
	if err != nil {
		span.RecordError(err)
		return result, f.reportHostError(ctx, fmt.Errorf("factory: encode batch: %w", err))
	}
	f.metrics.IncCounter("tick.commands_encoded", float64(len(outbound)))
	if err := f.host.Send(ctx, data); err != nil {
		span.RecordError(err)
		return result, f.reportHostError(ctx, fmt.Errorf("factory: send batch: %w", err))
	}
	return result, nil
}

// reportHostError logs err and reports it to the host via
// HostConnection.Error (spec.md §4.1 step 5, §7). It returns nil so
// RunTick can continue to the next batch, unless the host connection
// itself fails to accept the report, in which case the original error is
// returned so Run terminates instead of looping against a dead transport.
func (f *Factory) reportHostError(ctx context.Context, err error) error {
	f.logger.Error(ctx, "factory: tick error reported to host", "error", err)
	if reportErr := f.host.Error(ctx, err); reportErr != nil {
		return fmt.Errorf("factory: report error to host: %w", reportErr)
	}
	return nil
}

// Run drives RunTick in a loop until ctx is canceled, the host ends the
// stream, WaitBatch returns a transport error, or reporting a tick error
// through HostConnection.Error fails. A clean
// end-of-stream (result.End) is not an error: it is how a host ordinarily
// shuts a worker down, so Run returns nil rather than logging a failure
// (spec.md §4.1 step 1, §6: "returning end causes run() to return 0").
func (f *Factory) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		result, err := f.RunTick(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			f.logger.Error(ctx, "factory: tick failed", "error", err)
			return err
		}
		if result.End {
			f.logger.Info(ctx, "factory: host ended stream, stopping")
			return nil
		}
	}
}
