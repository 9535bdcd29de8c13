package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/roadrunner-server/temporal-worker-core/telemetry"
)

// These exercise OtelMetrics/OtelTracer against the global, unconfigured
// OTEL providers (the same ones cmd/workerd wires up), so they run without
// pulling in an SDK exporter. With no MeterProvider/TracerProvider set, the
// global providers hand out working no-op instruments: calls must not
// panic and must satisfy the Metrics/Tracer interfaces, which is what this
// checks.
func TestOtelMetricsRecordsWithoutPanic(t *testing.T) {
	metrics := telemetry.NewOtelMetrics(otel.Meter("telemetry_test"))

	require.NotPanics(t, func() {
		metrics.IncCounter("test.counter", 1, "env", "test")
		metrics.RecordTimer("test.timer", 100*time.Millisecond, "env", "test")
		metrics.RecordGauge("test.gauge", 42, "env", "test")
	})
}

func TestOtelMetricsToleratesOddTagCount(t *testing.T) {
	metrics := telemetry.NewOtelMetrics(otel.Meter("telemetry_test"))

	require.NotPanics(t, func() {
		metrics.IncCounter("test.counter", 1, "unmatched")
	})
}

func TestOtelTracerStartAndSpan(t *testing.T) {
	ctx := context.Background()
	tracer := telemetry.NewOtelTracer(otel.Tracer("telemetry_test"))

	newCtx, span := tracer.Start(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	require.NotPanics(t, func() {
		span.AddEvent("test.event", "key", "value")
		span.SetStatus(codes.Ok, "completed")
		span.RecordError(errors.New("test error"))
		span.End()
	})

	require.NotNil(t, tracer.Span(newCtx))
}

func TestOtelImplementsInterfaces(_ *testing.T) {
	var _ telemetry.Metrics = telemetry.NewOtelMetrics(otel.Meter("telemetry_test"))
	var _ telemetry.Tracer = telemetry.NewOtelTracer(otel.Tracer("telemetry_test"))
}
