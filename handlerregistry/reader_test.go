package handlerregistry

import (
	"context"
	"testing"

	commonpb "go.temporal.io/api/common/v1"
	"github.com/stretchr/testify/require"

	"github.com/roadrunner-server/temporal-worker-core/wire"
	"github.com/roadrunner-server/temporal-worker-core/worker"
)

type handlers struct {
	Greet   worker.WorkflowHandler `workflow:"Greet"`
	Ignored worker.WorkflowHandler `workflow:"readonly"`
	Send    worker.ActivityHandler `activity:"SendEmail"`
}

func TestDiscoverRegistersTaggedHandlers(t *testing.T) {
	h := handlers{
		Greet: func(*worker.WorkflowContext, []*commonpb.Payload) ([]*commonpb.Payload, error) {
			return nil, nil
		},
		Ignored: func(*worker.WorkflowContext, []*commonpb.Payload) ([]*commonpb.Payload, error) {
			return nil, nil
		},
		Send: func(context.Context, []*commonpb.Payload, wire.Header) ([]*commonpb.Payload, error) {
			return nil, nil
		},
	}

	w := worker.New("default", nil, context.Background(), nil)
	require.NoError(t, New().Discover(w, &h))

	require.ElementsMatch(t, []string{"Greet"}, w.WorkflowTypes())
	require.ElementsMatch(t, []string{"SendEmail"}, w.ActivityTypes())
}

func TestDiscoverRejectsTypeMismatch(t *testing.T) {
	type bad struct {
		Oops string `workflow:"Oops"`
	}
	w := worker.New("default", nil, context.Background(), nil)
	err := New().Discover(w, &bad{Oops: "x"})
	require.Error(t, err)
}

func TestDiscoverRejectsNonStruct(t *testing.T) {
	w := worker.New("default", nil, context.Background(), nil)
	err := New().Discover(w, 5)
	require.Error(t, err)
}
