// Package lifecycle publishes the four per-tick events (spec.md §4.1) —
// ON_SIGNAL, ON_CALLBACK, ON_QUERY, ON_TICK — to registered listeners in a
// synchronous fan-out, always in the same fixed order and always in
// listener registration order within an event.
package lifecycle

import (
	"context"
	"errors"
	"sync"
)

// Event identifies which point in the tick a Publish call corresponds to.
type Event int

const (
	OnSignal Event = iota
	OnCallback
	OnQuery
	OnTick
)

func (e Event) String() string {
	switch e {
	case OnSignal:
		return "ON_SIGNAL"
	case OnCallback:
		return "ON_CALLBACK"
	case OnQuery:
		return "ON_QUERY"
	case OnTick:
		return "ON_TICK"
	default:
		return "UNKNOWN"
	}
}

// Listener reacts to a lifecycle event. Returning an error does not stop
// the tick; the emitter continues delivering to the remaining listeners
// and the caller decides how to surface listener failures (e.g. as
// host.error, per spec.md §4.1).
type Listener interface {
	HandleEvent(ctx context.Context, event Event) error
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(ctx context.Context, event Event) error

func (f ListenerFunc) HandleEvent(ctx context.Context, event Event) error { return f(ctx, event) }

// Subscription is returned by Register; closing it removes the listener.
type Subscription interface {
	Close()
}

// Emitter maintains an ordered, deterministic list of listeners and
// publishes events to all of them, never stopping early on error: unlike
// hooks.Bus, an ON_TICK failure from one listener must not suppress the
// event reaching listeners registered after it, since each represents an
// independent piece of tick bookkeeping (metrics, logging, host.error
// aggregation).
type Emitter struct {
	mu        sync.Mutex
	listeners []*entry
	nextID    uint64
}

type entry struct {
	id       uint64
	listener Listener
}

// New constructs an empty Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Register appends listener to the ordered list and returns a Subscription
// that removes it again. Registration order determines delivery order.
func (e *Emitter) Register(listener Listener) (Subscription, error) {
	if listener == nil {
		return nil, errors.New("lifecycle: listener is required")
	}
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, &entry{id: id, listener: listener})
	e.mu.Unlock()
	return &subscription{emitter: e, id: id}, nil
}

// Publish delivers event to every currently registered listener, in
// registration order, collecting (not short-circuiting on) errors.
func (e *Emitter) Publish(ctx context.Context, event Event) []error {
	e.mu.Lock()
	snapshot := make([]*entry, len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	var errs []error
	for _, ent := range snapshot {
		if err := ent.listener.HandleEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

type subscription struct {
	emitter *Emitter
	id      uint64
	once    sync.Once
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.emitter.mu.Lock()
		defer s.emitter.mu.Unlock()
		for i, ent := range s.emitter.listeners {
			if ent.id == s.id {
				s.emitter.listeners = append(s.emitter.listeners[:i:i], s.emitter.listeners[i+1:]...)
				return
			}
		}
	})
}
