package taskqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stubWorker struct{ name string }

func (w stubWorker) Name() string { return w.name }

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stubWorker{"a"}))
	require.NoError(t, r.Register(stubWorker{"b"}))

	w, err := r.Lookup("a")
	require.NoError(t, err)
	require.Equal(t, "a", w.Name())

	_, err = r.Lookup("c")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stubWorker{"a"}))
	err := r.Register(stubWorker{"a"})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestNamesStableOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stubWorker{"b"}))
	require.NoError(t, r.Register(stubWorker{"a"}))
	require.NoError(t, r.Register(stubWorker{"c"}))

	require.Equal(t, []string{"b", "a", "c"}, r.Names())
	require.Equal(t, []string{"a", "b", "c"}, sortedNames(r.Names()))
}
