// Command workerd boots the tick loop against the host process's stdio
// pipe, or a TCP connection to RR_HOST_ADDRESS when that is set, using the
// wire codec selected by RR_CODEC.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	commonpb "go.temporal.io/api/common/v1"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/roadrunner-server/temporal-worker-core/config"
	"github.com/roadrunner-server/temporal-worker-core/factory"
	"github.com/roadrunner-server/temporal-worker-core/telemetry"
	"github.com/roadrunner-server/temporal-worker-core/transport"
	"github.com/roadrunner-server/temporal-worker-core/wire"
	"github.com/roadrunner-server/temporal-worker-core/worker"
)

func main() {
	cfg := config.FromEnv()

	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	logger := telemetry.NewZapLogger(zl)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	codec := wire.SelectFromEnv(cfg.Codec)
	host, err := selectHost(cfg)
	if err != nil {
		zl.Fatal("select host connection", zap.Error(err))
	}

	// Metrics and tracing delegate to the global OTEL providers, left
	// unconfigured (and therefore no-op) unless the deployment wires up an
	// exporter via OTEL_EXPORTER_OTLP_ENDPOINT and friends, matching how
	// the runtime's own clue-backed telemetry expects to be configured.
	metrics := telemetry.NewOtelMetrics(otel.Meter("github.com/roadrunner-server/temporal-worker-core"))
	tracer := telemetry.NewOtelTracer(otel.Tracer("github.com/roadrunner-server/temporal-worker-core"))

	f := factory.New(codec, host, ctx, factory.WithLogger(logger), factory.WithMetrics(metrics), factory.WithTracer(tracer))

	w, err := f.NewWorker("default")
	if err != nil {
		zl.Fatal("register default task queue", zap.Error(err))
	}
	registerSampleHandlers(w)

	if err := f.Run(ctx); err != nil {
		zl.Info("worker loop stopped", zap.Error(err))
	}
}

// selectHost picks the HostConnection this process talks to: a TCP dial to
// RR_HOST_ADDRESS when the sidecar host set one, or the process's own
// stdio pipe otherwise (the default when the host launches this binary as a
// child process rather than listening on a socket).
func selectHost(cfg config.Config) (transport.HostConnection, error) {
	if _, ok := config.LookupHostAddress(); !ok || cfg.HostAddress == "" {
		return transport.NewStdioConnection(os.Stdin, os.Stdout), nil
	}
	conn, err := net.Dial("tcp", cfg.HostAddress)
	if err != nil {
		return nil, fmt.Errorf("dial host address %q: %w", cfg.HostAddress, err)
	}
	return transport.NewStdioConnection(conn, conn), nil
}

// registerSampleHandlers wires an example workflow and activity so a fresh
// checkout of this binary has something to dispatch to; production
// deployments register their own handlers here in place of these, or use
// handlerregistry.Reader to discover them from a user-supplied struct.
func registerSampleHandlers(w *worker.Worker) {
	w.RegisterWorkflow("Echo", func(_ *worker.WorkflowContext, input []*commonpb.Payload) ([]*commonpb.Payload, error) {
		return input, nil
	})
	w.RegisterActivity("Uppercase", func(ctx context.Context, input []*commonpb.Payload, _ wire.Header) ([]*commonpb.Payload, error) {
		dc := worker.ConverterFromContext(ctx)
		var s string
		if err := dc.FromPayloads(&commonpb.Payloads{Payloads: input}, &s); err != nil {
			return nil, fmt.Errorf("decode Uppercase input: %w", err)
		}
		out, err := dc.ToPayloads(strings.ToUpper(s))
		if err != nil {
			return nil, fmt.Errorf("encode Uppercase result: %w", err)
		}
		return out.Payloads, nil
	})
}
