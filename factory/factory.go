// Package factory assembles the codec, transport, dispatch, and lifecycle
// pieces into the tick loop described in spec.md §4.1: decode a batch,
// dispatch every command it carries, publish the four lifecycle events,
// encode whatever the dispatch/lifecycle steps produced, and send it back.
package factory

import (
	"context"

	"github.com/roadrunner-server/temporal-worker-core/client"
	"github.com/roadrunner-server/temporal-worker-core/dataconverter"
	"github.com/roadrunner-server/temporal-worker-core/lifecycle"
	"github.com/roadrunner-server/temporal-worker-core/queue"
	"github.com/roadrunner-server/temporal-worker-core/router"
	"github.com/roadrunner-server/temporal-worker-core/server"
	"github.com/roadrunner-server/temporal-worker-core/taskqueue"
	"github.com/roadrunner-server/temporal-worker-core/telemetry"
	"github.com/roadrunner-server/temporal-worker-core/transport"
	"github.com/roadrunner-server/temporal-worker-core/wire"
	"github.com/roadrunner-server/temporal-worker-core/worker"
)

// Factory owns every shared facility a Worker needs (spec.md §4.3's "weak
// back-reference" concern) and drives the tick loop.
type Factory struct {
	codec     wire.Codec
	host      transport.HostConnection
	registry  *taskqueue.Registry
	client    *client.Client
	queue     *queue.ResponseQueue
	server    *server.Server
	router    *router.Router
	emitter   *lifecycle.Emitter
	converter dataconverter.DataConverter

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	background context.Context
}

// Option configures a Factory at construction time.
type Option func(*Factory)

// WithLogger overrides the default no-op logger.
func WithLogger(l telemetry.Logger) Option { return func(f *Factory) { f.logger = l } }

// WithMetrics overrides the default no-op metrics sink.
func WithMetrics(m telemetry.Metrics) Option { return func(f *Factory) { f.metrics = m } }

// WithTracer overrides the default no-op tracer.
func WithTracer(tr telemetry.Tracer) Option { return func(f *Factory) { f.tracer = tr } }

// WithDataConverter overrides the default JSON DataConverter every Worker
// this Factory creates shares (spec.md §4.1: "Constructed with a
// DataConverter"). Hosts that already have a Temporal DataConverter (custom
// codecs, encryption, compression) plug it in here instead of the default.
func WithDataConverter(dc dataconverter.DataConverter) Option {
	return func(f *Factory) { f.converter = dc }
}

// New constructs a Factory with its own task-queue registry and router:
// GetWorkerInfo (answered by the router) always reflects exactly the
// workers registered through NewWorker, since both draw from the same
// registry instance. codec is typically wire.SelectFromEnv's result.
func New(codec wire.Codec, host transport.HostConnection, background context.Context, opts ...Option) *Factory {
	q := queue.New()
	c := client.New(q)
	registry := taskqueue.New()
	rtr := router.New(registry)

	f := &Factory{
		codec:      codec,
		host:       host,
		registry:   registry,
		client:     c,
		queue:      q,
		router:     rtr,
		emitter:    lifecycle.New(),
		converter:  dataconverter.Default(),
		logger:     telemetry.NewNoopLogger(),
		metrics:    telemetry.NewNoopMetrics(),
		tracer:     telemetry.NewNoopTracer(),
		background: background,
	}
	f.server = server.New(rtr, registry, q)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewWorker registers and returns a fresh Worker for taskQueue, wired to
// this factory's shared Client and DataConverter.
func (f *Factory) NewWorker(taskQueue string) (*worker.Worker, error) {
	w := worker.New(taskQueue, f.client, f.background, f.converter)
	if err := f.registry.Register(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Emitter exposes the lifecycle emitter so callers can register listeners
// (metrics collectors, host.error aggregators) before the loop starts.
func (f *Factory) Emitter() *lifecycle.Emitter { return f.emitter }

// Client exposes the shared Client, e.g. for tests that want to inject a
// synthetic host response.
func (f *Factory) Client() *client.Client { return f.client }

// Queue exposes the shared ResponseQueue.
func (f *Factory) Queue() *queue.ResponseQueue { return f.queue }

// Registry exposes the task queue registry.
func (f *Factory) Registry() *taskqueue.Registry { return f.registry }

// DataConverter exposes the DataConverter every Worker this Factory creates
// shares (spec.md §4.1: "Accessors for the reader, the client, the response
// queue, the data converter").
func (f *Factory) DataConverter() dataconverter.DataConverter { return f.converter }
