package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	e := New()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		_, err := e.Register(ListenerFunc(func(context.Context, Event) error {
			order = append(order, i)
			return nil
		}))
		require.NoError(t, err)
	}
	errs := e.Publish(context.Background(), OnTick)
	require.Empty(t, errs)
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestPublishDoesNotShortCircuitOnError(t *testing.T) {
	e := New()
	var second bool
	_, _ = e.Register(ListenerFunc(func(context.Context, Event) error {
		return errors.New("boom")
	}))
	_, _ = e.Register(ListenerFunc(func(context.Context, Event) error {
		second = true
		return nil
	}))
	errs := e.Publish(context.Background(), OnSignal)
	require.Len(t, errs, 1)
	require.True(t, second)
}

func TestSubscriptionCloseRemovesListener(t *testing.T) {
	e := New()
	calls := 0
	sub, _ := e.Register(ListenerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))
	sub.Close()
	e.Publish(context.Background(), OnQuery)
	require.Equal(t, 0, calls)
}
