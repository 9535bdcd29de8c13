package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roadrunner-server/temporal-worker-core/queue"
	"github.com/roadrunner-server/temporal-worker-core/taskqueue"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

type stubRouter struct{ calls int }

func (r *stubRouter) Dispatch(req *wire.Command) *wire.Command {
	r.calls++
	return wire.NewResponse(req.ID)
}

type stubWorker struct {
	name string
	got  *wire.Command
}

func (w *stubWorker) Name() string { return w.name }
func (w *stubWorker) Dispatch(_ context.Context, req *wire.Command) *wire.Command {
	w.got = req
	return wire.NewResponse(req.ID)
}

func TestDispatchRoutesToRouterWithoutTaskQueue(t *testing.T) {
	router := &stubRouter{}
	q := queue.New()
	s := New(router, taskqueue.New(), q)

	s.Dispatch(context.Background(), nil, &wire.Command{ID: 1, Name: wire.CommandGetWorkerInfo})
	require.Equal(t, 1, router.calls)
	require.Equal(t, 1, q.Len())
}

func TestDispatchRoutesToWorkerByBatchHeader(t *testing.T) {
	reg := taskqueue.New()
	w := &stubWorker{name: "billing"}
	require.NoError(t, reg.Register(w))

	s := New(&stubRouter{}, reg, queue.New())
	s.Dispatch(context.Background(), wire.Header{"taskQueue": "billing"}, &wire.Command{ID: 5, Name: wire.CommandStartWorkflow})
	require.NotNil(t, w.got)
	require.Equal(t, uint64(5), w.got.ID)
}

func TestDispatchUnknownTaskQueueIsNotFound(t *testing.T) {
	q := queue.New()
	s := New(&stubRouter{}, taskqueue.New(), q)
	s.Dispatch(context.Background(), wire.Header{"taskQueue": "missing"}, &wire.Command{ID: 9, Name: wire.CommandStartWorkflow})

	drained := q.Drain()
	require.Len(t, drained, 1)
	require.NotNil(t, drained[0].Failure)
}
