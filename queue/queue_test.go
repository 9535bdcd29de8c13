package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roadrunner-server/temporal-worker-core/wire"
)

func TestAppendPreservesOrder(t *testing.T) {
	q := New()
	q.Append(&wire.Command{ID: 1})
	q.Append(&wire.Command{ID: 2})
	q.Append(&wire.Command{ID: 3})

	drained := q.Drain()
	require.Len(t, drained, 3)
	require.Equal(t, uint64(1), drained[0].ID)
	require.Equal(t, uint64(2), drained[1].ID)
	require.Equal(t, uint64(3), drained[2].ID)
}

func TestDrainResetsQueue(t *testing.T) {
	q := New()
	q.Append(&wire.Command{ID: 1})
	q.Drain()
	require.Equal(t, 0, q.Len())
	require.Empty(t, q.Drain())
}
