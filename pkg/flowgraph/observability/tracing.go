package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartInvokeSpan starts a span covering one graph invocation of a
	// thread. Each resume of a thread is a separate invocation span.
	StartInvokeSpan(ctx context.Context, threadID, startNode string) (context.Context, trace.Span)

	// StartNodeSpan starts a child span for a node execution.
	StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the span in ctx.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager using the global tracer provider.
// Configure it first with otel.SetTracerProvider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer("flowgraph")}
}

// NewSpanManagerFromProvider returns a SpanManager using tp.
func NewSpanManagerFromProvider(tp trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: tp.Tracer("flowgraph")}
}

func (m *otelSpanManager) StartInvokeSpan(ctx context.Context, threadID, startNode string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowgraph.invoke",
		trace.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("graph.start_node", startNode),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowgraph.node."+nodeID,
		trace.WithAttributes(attribute.String("node.id", nodeID)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the span in ctx, if it is recording.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
