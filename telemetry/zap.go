package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// ZapLogger delegates to a *zap.SugaredLogger for structured logging.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger constructs a Logger backed by the given zap logger. Passing
// nil is not supported; callers should use zap.NewNop() for a discarding
// logger instead of relying on NoopLogger if they need the zap call shape.
func NewZapLogger(l *zap.Logger) Logger {
	return &ZapLogger{log: l.Sugar()}
}

func (z *ZapLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	z.log.Debugw(msg, keyvals...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, keyvals ...any) {
	z.log.Infow(msg, keyvals...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	z.log.Warnw(msg, keyvals...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, keyvals ...any) {
	z.log.Errorw(msg, keyvals...)
}
