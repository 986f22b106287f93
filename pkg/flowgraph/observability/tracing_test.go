package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestSpans(t *testing.T) (SpanManager, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewSpanManagerFromProvider(tp), exporter
}

func TestSpanManager_InvokeAndNodeSpans(t *testing.T) {
	spans, exporter := newTestSpans(t)

	ctx, invoke := spans.StartInvokeSpan(context.Background(), "thread-1", "ask")
	_, node := spans.StartNodeSpan(ctx, "ask")
	spans.EndSpanWithError(node, nil)
	spans.EndSpanWithError(invoke, nil)

	got := exporter.GetSpans()
	require.Len(t, got, 2)

	assert.Equal(t, "flowgraph.node.ask", got[0].Name)
	assert.Equal(t, "flowgraph.invoke", got[1].Name)
	assert.Equal(t, got[1].SpanContext.SpanID(), got[0].Parent.SpanID())
	assert.Contains(t, got[1].Attributes, attribute.String("thread.id", "thread-1"))
	assert.Contains(t, got[1].Attributes, attribute.String("graph.start_node", "ask"))
	assert.Equal(t, codes.Ok, got[1].Status.Code)
}

func TestSpanManager_EndWithError(t *testing.T) {
	spans, exporter := newTestSpans(t)

	_, span := spans.StartNodeSpan(context.Background(), "validate")
	spans.EndSpanWithError(span, errors.New("llm unavailable"))

	got := exporter.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, codes.Error, got[0].Status.Code)
	assert.Equal(t, "llm unavailable", got[0].Status.Description)
	require.NotEmpty(t, got[0].Events)
	assert.Equal(t, "exception", got[0].Events[0].Name)
}

func TestSpanManager_AddSpanEvent(t *testing.T) {
	spans, exporter := newTestSpans(t)

	ctx, span := spans.StartNodeSpan(context.Background(), "ask")
	spans.AddSpanEvent(ctx, "interrupt", attribute.String("node.id", "ask"))
	span.End()

	got := exporter.GetSpans()
	require.Len(t, got, 1)
	require.Len(t, got[0].Events, 1)
	assert.Equal(t, "interrupt", got[0].Events[0].Name)
}

func TestAddSpanEvent_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "orphan")
		EndSpanWithError(nil, errors.New("x"))
	})
}

func TestNoopSpanManager(t *testing.T) {
	var spans SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := spans.StartInvokeSpan(ctx, "t", "n")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, span = spans.StartNodeSpan(ctx, "n")
	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() {
		spans.EndSpanWithError(span, errors.New("x"))
		spans.AddSpanEvent(ctx, "e")
	})
}
