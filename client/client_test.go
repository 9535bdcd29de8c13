package client

import (
	"context"
	"testing"
	"time"

	commonpb "go.temporal.io/api/common/v1"
	"github.com/stretchr/testify/require"

	"github.com/roadrunner-server/temporal-worker-core/queue"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

func TestRequestAppendsToQueue(t *testing.T) {
	q := queue.New()
	c := New(q)

	id, fut := c.Request("InvokeActivity", nil, wire.Header{"taskQueue": "default"}, nil)
	require.Equal(t, uint64(1), id)
	require.False(t, fut.Ready())
	require.Equal(t, 1, q.Len())
	require.Equal(t, 1, c.PendingCount())
}

func TestIDsAreMonotonicallyIncreasing(t *testing.T) {
	q := queue.New()
	c := New(q)

	id1, _ := c.Request("A", nil, nil, nil)
	id2, _ := c.Request("B", nil, nil, nil)
	id3, _ := c.Request("C", nil, nil, nil)
	require.Less(t, id1, id2)
	require.Less(t, id2, id3)
}

func TestDispatchResolvesFuture(t *testing.T) {
	q := queue.New()
	c := New(q)

	id, fut := c.Request("InvokeActivity", nil, nil, nil)
	err := c.Dispatch(wire.NewResponse(id, &commonpb.Payload{Data: []byte(`"ok"`)}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	payloads, err := fut.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte(`"ok"`), payloads[0].Data)
	require.Equal(t, 0, c.PendingCount())
}

func TestDispatchUnmatchedIsProtocolError(t *testing.T) {
	q := queue.New()
	c := New(q)

	err := c.Dispatch(wire.NewResponse(999))
	require.Error(t, err)
}

func TestCancelResolvesCanceledFailure(t *testing.T) {
	q := queue.New()
	c := New(q)

	id, fut := c.Request("InvokeActivity", nil, nil, nil)
	c.Cancel(id)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := fut.Wait(ctx)
	require.Error(t, err)
	require.Equal(t, 0, c.PendingCount())
}

func TestCancelAfterDispatchIsNoop(t *testing.T) {
	q := queue.New()
	c := New(q)

	id, fut := c.Request("InvokeActivity", nil, nil, nil)
	require.NoError(t, c.Dispatch(wire.NewResponse(id, &commonpb.Payload{Data: []byte(`1`)})))
	c.Cancel(id)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	payloads, err := fut.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte(`1`), payloads[0].Data)
}
