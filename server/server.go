// Package server implements the inbound half of the tick loop (spec.md
// §4.2): routing a decoded request Command either to the Router or to the
// task queue's Worker, and appending its response to the shared
// ResponseQueue.
package server

import (
	"context"
	"fmt"

	"github.com/roadrunner-server/temporal-worker-core/queue"
	"github.com/roadrunner-server/temporal-worker-core/taskqueue"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// Router is the core-level dispatch table for requests with no task queue
// target (declared locally to avoid importing the router package's
// GetWorkerInfo response types into this package's surface).
type Router interface {
	Dispatch(req *wire.Command) *wire.Command
}

// DispatchWorker is the subset of worker.Worker the server needs.
type DispatchWorker interface {
	taskqueue.Worker
	Dispatch(ctx context.Context, req *wire.Command) *wire.Command
}

// Server routes inbound requests and enqueues their responses.
type Server struct {
	router   Router
	registry *taskqueue.Registry
	queue    *queue.ResponseQueue
}

// New constructs a Server.
func New(router Router, registry *taskqueue.Registry, q *queue.ResponseQueue) *Server {
	return &Server{router: router, registry: registry, queue: q}
}

// Dispatch routes req to the worker named by the taskQueue header — batch
// context first, per-command header as a fallback — or to the Router if
// neither carries one, and appends exactly one Response to the queue
// (spec.md invariant 4: every accepted request produces exactly one
// correlated response).
func (s *Server) Dispatch(ctx context.Context, batchHeader wire.Header, req *wire.Command) {
	name, ok := batchHeader.TaskQueue()
	if !ok {
		name, ok = req.Header.TaskQueue()
	}
	if !ok {
		s.queue.Append(s.router.Dispatch(req))
		return
	}

	w, err := s.registry.Lookup(name)
	if err != nil {
		s.queue.Append(wire.NewFailureResponse(req.ID, wire.ErrNotFound(fmt.Sprintf("task queue %q is not registered", name))))
		return
	}
	dw, ok := w.(DispatchWorker)
	if !ok {
		s.queue.Append(wire.NewFailureResponse(req.ID, wire.ErrIllegalState(fmt.Sprintf("task queue %q cannot dispatch requests", name))))
		return
	}
	s.queue.Append(dw.Dispatch(ctx, req))
}
