package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordNodeExecution(context.Context, string, time.Duration, error) {}
func (NoopMetrics) RecordInvoke(context.Context, string, time.Duration)               {}
func (NoopMetrics) RecordCheckpoint(context.Context, string, int64)                   {}
func (NoopMetrics) RecordInterrupt(context.Context, string)                           {}
func (NoopMetrics) RecordResume(context.Context, string)                              {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartInvokeSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartInvokeSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartNodeSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartNodeSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
