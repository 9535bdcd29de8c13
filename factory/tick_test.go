package factory

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	commonpb "go.temporal.io/api/common/v1"
	"github.com/stretchr/testify/require"

	"github.com/roadrunner-server/temporal-worker-core/wire"
	"github.com/roadrunner-server/temporal-worker-core/worker"
)

// memHost is an in-memory transport.HostConnection for tests: WaitBatch
// returns queued inbound batches, Send records outbound ones.
type memHost struct {
	mu      sync.Mutex
	inbound [][]byte
	sent    [][]byte
	errs    []string
}

func (h *memHost) push(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbound = append(h.inbound, b)
}

func (h *memHost) WaitBatch(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.inbound) == 0 {
		return nil, context.Canceled
	}
	b := h.inbound[0]
	h.inbound = h.inbound[1:]
	return b, nil
}

func (h *memHost) Send(ctx context.Context, batch []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, batch)
	return nil
}

func (h *memHost) Error(ctx context.Context, cause error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, cause.Error())
	return nil
}

func TestRunTickStartsWorkflowAndSendsResponse(t *testing.T) {
	host := &memHost{}
	codec := wire.NewJSONCodec()
	f := New(codec, host, context.Background())

	w, err := f.NewWorker("default")
	require.NoError(t, err)
	w.RegisterWorkflow("Uppercase", func(_ *worker.WorkflowContext, input []*commonpb.Payload) ([]*commonpb.Payload, error) {
		return []*commonpb.Payload{{Data: []byte(strings.ToUpper(string(input[0].Data)))}}, nil
	})

	batch, err := codec.Encode([]*wire.Command{{
		ID:   1,
		Name: wire.CommandStartWorkflow,
		Options: map[string]any{
			wire.OptionWorkflowID:   "wf-1",
			wire.OptionRunID:        "run-1",
			wire.OptionWorkflowType: "Uppercase",
		},
		Header:   wire.Header{"taskQueue": "default"},
		Payloads: []*commonpb.Payload{{Data: []byte("hi")}},
	}})
	require.NoError(t, err)
	host.push(batch)

	result, err := f.RunTick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Decoded)
	require.Len(t, host.sent, 1)

	out, err := codec.Decode(host.sent[0])
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Nil(t, out[0].Failure)
	require.Equal(t, "HI", string(out[0].Payloads[0].Data))
}

// TestRunTickDrainsAsyncCompletionOnALaterTick exercises the
// OutboundDrainer path end-to-end: a workflow that suspends on its
// first tick reaches its terminal state on a goroutine racing the tick
// loop, and its CompleteWorkflow notification must not reach host.sent
// until a later RunTick call drains it, never mid-tick and never twice.
func TestRunTickDrainsAsyncCompletionOnALaterTick(t *testing.T) {
	host := &memHost{}
	codec := wire.NewJSONCodec()
	f := New(codec, host, context.Background())

	w, err := f.NewWorker("default")
	require.NoError(t, err)
	w.RegisterWorkflow("Accumulate", func(wctx *worker.WorkflowContext, _ []*commonpb.Payload) ([]*commonpb.Payload, error) {
		sig, err := wctx.ReceiveSignal()
		if err != nil {
			return nil, err
		}
		return []*commonpb.Payload{{Data: sig.Payloads[0].Data}}, nil
	})

	startBatch, err := codec.Encode([]*wire.Command{{
		ID:   1,
		Name: wire.CommandStartWorkflow,
		Options: map[string]any{
			wire.OptionWorkflowID:   "wf-async",
			wire.OptionRunID:        "run-1",
			wire.OptionWorkflowType: "Accumulate",
		},
		Header: wire.Header{"taskQueue": "default"},
	}})
	require.NoError(t, err)
	host.push(startBatch)

	_, err = f.RunTick(context.Background())
	require.NoError(t, err)
	require.Len(t, host.sent, 1)

	signalBatch, err := codec.Encode([]*wire.Command{{
		ID:   2,
		Name: wire.CommandSignalWorkflow,
		Options: map[string]any{
			wire.OptionWorkflowID: "wf-async",
			wire.OptionSignalName: "add",
		},
		Header:   wire.Header{"taskQueue": "default"},
		Payloads: []*commonpb.Payload{{Data: []byte("done")}},
	}})
	require.NoError(t, err)
	host.push(signalBatch)

	_, err = f.RunTick(context.Background())
	require.NoError(t, err)
	require.Len(t, host.sent, 2)

	signalAck, err := codec.Decode(host.sent[1])
	require.NoError(t, err)
	require.Len(t, signalAck, 1)
	require.Nil(t, signalAck[0].Failure)

	// The handler goroutine races this tick's encode/send with its own
	// return and Notify call. Each subsequent tick needs an empty inbound
	// batch to run against; WaitBatch on a truly empty queue would return
	// context.Canceled and RunTick would bail before ever reaching the
	// drain step, so push one empty batch per poll instead.
	emptyBatch, err := codec.Encode(nil)
	require.NoError(t, err)

	var completion *wire.Command
	require.Eventually(t, func() bool {
		host.push(emptyBatch)
		if _, tickErr := f.RunTick(context.Background()); tickErr != nil {
			return false
		}
		last := host.sent[len(host.sent)-1]
		decoded, decodeErr := codec.Decode(last)
		require.NoError(t, decodeErr)
		if len(decoded) != 1 {
			return false
		}
		completion = decoded[0]
		return true
	}, time.Second, time.Millisecond)

	require.Equal(t, wire.CommandCompleteWorkflow, completion.Name)
	require.Equal(t, "done", string(completion.Payloads[0].Data))

	// Once drained, the same completion must not reappear on a later tick.
	host.push(emptyBatch)
	_, err = f.RunTick(context.Background())
	require.NoError(t, err)
	last, err := codec.Decode(host.sent[len(host.sent)-1])
	require.NoError(t, err)
	require.Len(t, last, 0)
}
