// Package router implements the dispatch table for requests that are not
// routed to a specific task queue (spec.md §4.4) — currently just
// GetWorkerInfo, with room for further core-level request kinds.
package router

import (
	"encoding/json"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"

	"github.com/roadrunner-server/temporal-worker-core/taskqueue"
	"github.com/roadrunner-server/temporal-worker-core/wire"
)

// InfoWorker is the subset of worker.Worker the router needs to answer
// GetWorkerInfo. Declared locally, like taskqueue.Worker, to avoid an
// import of the worker package's dispatch logic.
type InfoWorker interface {
	taskqueue.Worker
	WorkflowTypes() []string
	ActivityTypes() []string
}

// HandlerInfo describes one registered handler for GetWorkerInfo's
// response body. Kind distinguishes workflow entries from activity entries
// (a supplemented field: the distilled protocol only asked for names).
type HandlerInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// WorkerInfo describes one task queue's registered handlers.
type WorkerInfo struct {
	TaskQueue string        `json:"taskQueue"`
	Handlers  []HandlerInfo `json:"handlers"`
}

// Router holds handlers for requests that arrive with no "taskQueue"
// header, keyed by Command.Name.
type Router struct {
	registry *taskqueue.Registry
	handlers map[string]func(*wire.Command) *wire.Command
}

// New constructs a Router backed by registry for GetWorkerInfo.
func New(registry *taskqueue.Registry) *Router {
	r := &Router{
		registry: registry,
		handlers: make(map[string]func(*wire.Command) *wire.Command),
	}
	r.handlers[wire.CommandGetWorkerInfo] = r.getWorkerInfo
	return r
}

// Dispatch routes req by name, returning ErrNotImplemented if no handler is
// registered for it.
func (r *Router) Dispatch(req *wire.Command) *wire.Command {
	h, ok := r.handlers[req.Name]
	if !ok {
		return wire.NewFailureResponse(req.ID, wire.ErrNotImplemented(fmt.Sprintf("unknown request kind %q", req.Name)))
	}
	return h(req)
}

func (r *Router) getWorkerInfo(req *wire.Command) *wire.Command {
	var infos []WorkerInfo
	for _, w := range r.registry.All() {
		iw, ok := w.(InfoWorker)
		info := WorkerInfo{TaskQueue: w.Name()}
		if ok {
			for _, name := range iw.WorkflowTypes() {
				info.Handlers = append(info.Handlers, HandlerInfo{Name: name, Kind: "workflow"})
			}
			for _, name := range iw.ActivityTypes() {
				info.Handlers = append(info.Handlers, HandlerInfo{Name: name, Kind: "activity"})
			}
		}
		infos = append(infos, info)
	}

	data, err := json.Marshal(infos)
	if err != nil {
		return wire.NewFailureResponse(req.ID, wire.ErrInvalidArgument(err.Error()))
	}
	return wire.NewResponse(req.ID, &commonpb.Payload{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     data,
	})
}
