package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextLogger wraps a Logger and tags every entry with the trace ID of the
// span active in the context it was built from.
type ContextLogger struct {
	base    Logger
	traceID string
}

// NewContextLogger returns a ContextLogger for ctx. Without a valid span the
// entries are passed through untouched.
func NewContextLogger(ctx context.Context, base Logger) *ContextLogger {
	var traceID string

	sc := trace.SpanFromContext(ctx).SpanContext()

	if sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	// the zap backed logger carries the ID as a field rather than in the text
	if zl, ok := base.(*logger); ok && traceID != "" {
		return &ContextLogger{base: zl.with(zap.String("trace_id", traceID))}
	}

	return &ContextLogger{base: base, traceID: traceID}
}

func (l *ContextLogger) withTraceInfo(args ...any) []any {
	if l.traceID != "" {
		return append(args, map[string]any{"trace_id": l.traceID})
	}

	return args
}

func (l *ContextLogger) withTraceFormat(format string) string {
	if l.traceID != "" {
		return format + " trace_id=" + l.traceID
	}

	return format
}

func (l *ContextLogger) Debug(args ...any) { l.base.Debug(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Debugf(f string, args ...any) {
	l.base.Debugf(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) Log(args ...any) { l.base.Log(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Logf(f string, args ...any) {
	l.base.Logf(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) Info(args ...any) { l.base.Info(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Infof(f string, args ...any) {
	l.base.Infof(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) Notice(args ...any) { l.base.Notice(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Noticef(f string, args ...any) {
	l.base.Noticef(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) Warn(args ...any) { l.base.Warn(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Warnf(f string, args ...any) {
	l.base.Warnf(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) Error(args ...any) { l.base.Error(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Errorf(f string, args ...any) {
	l.base.Errorf(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) Fatal(args ...any) { l.base.Fatal(l.withTraceInfo(args...)...) }
func (l *ContextLogger) Fatalf(f string, args ...any) {
	l.base.Fatalf(l.withTraceFormat(f), args...)
}
func (l *ContextLogger) ChangeLevel(level Level) { l.base.ChangeLevel(level) }
