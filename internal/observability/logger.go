// internal/observability/logger.go
package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// SLogger is a wrapper for a zap sugared logger with OpenTelemetry integration
type SLogger struct {
	*zap.SugaredLogger
}

const (
	traceIDKey = "trace_id"
	spanIDKey  = "span_id"
)

// NewLogger constructs a new sugared logger with OpenTelemetry integration
func NewLogger(level zapcore.Level, options ...zap.Option) (*SLogger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	baseLogger, err := config.Build(options...)
	if err != nil {
		return nil, err
	}

	logger := newSLogger(baseLogger)
	logger.Debugw("logger initialized", "level", config.Level.String())

	return logger, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *SLogger {
	return newSLogger(zap.NewNop())
}

// NewTestLogger creates a logger for testing
func NewTestLogger() (*SLogger, *observer.ObservedLogs, error) {
	core, observedLogs := observer.New(zapcore.DebugLevel)
	observedOpt := zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return core
	})

	baseLogger, err := zap.NewDevelopment(observedOpt)
	if err != nil {
		return nil, nil, err
	}

	return newSLogger(baseLogger), observedLogs, nil
}

func newSLogger(logger *zap.Logger) *SLogger {
	return &SLogger{
		SugaredLogger: logger.Sugar(),
	}
}

// Named returns a child logger scoped to a component.
func (l *SLogger) Named(name string) *SLogger {
	return &SLogger{l.SugaredLogger.Named(name)}
}

// With returns a child logger carrying the given key/value pairs.
func (l *SLogger) With(keysAndValues ...interface{}) *SLogger {
	return &SLogger{l.SugaredLogger.With(keysAndValues...)}
}

// Ctx returns a logger that carries the trace and span ids of the span in ctx,
// or the receiver itself when ctx has no valid span.
func (l *SLogger) Ctx(ctx context.Context) *SLogger {
	traceID, spanID, ok := getTraceInfo(ctx)
	if !ok {
		return l
	}
	return l.With(traceIDKey, traceID.String(), spanIDKey, spanID.String())
}

// InfoCtx logs a message with trace context
func (l *SLogger) InfoCtx(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Ctx(ctx).Infow(msg, keysAndValues...)
}

// WarnCtx logs a warning with trace context
func (l *SLogger) WarnCtx(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Ctx(ctx).Warnw(msg, keysAndValues...)
}

// ErrorCtx logs an error with trace context
func (l *SLogger) ErrorCtx(ctx context.Context, err error, keysAndValues ...interface{}) {
	l.Ctx(ctx).Errorw(err.Error(), keysAndValues...)
}

// getTraceInfo gets the trace and span metadata from context
func getTraceInfo(ctx context.Context) (trace.TraceID, trace.SpanID, bool) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return trace.TraceID{}, trace.SpanID{}, false
	}

	return span.SpanContext().TraceID(), span.SpanContext().SpanID(), true
}

// GetTraceID returns the trace ID from context
func GetTraceID(ctx context.Context) (string, bool) {
	traceID, _, ok := getTraceInfo(ctx)
	if !ok {
		return "", false
	}
	return traceID.String(), true
}
