package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestRecorder(t *testing.T) (MetricsRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec, err := NewMetricsRecorderFromMeter(provider.Meter("flowgraph"))
	require.NoError(t, err)
	return rec, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder_UsesGlobalProvider(t *testing.T) {
	original := otel.GetMeterProvider()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		_ = provider.Shutdown(context.Background())
	})

	rec := NewMetricsRecorder()
	require.NotNil(t, rec)
	_, isNoop := rec.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestOtelMetrics_NodeExecutions(t *testing.T) {
	rec, reader := newTestRecorder(t)
	ctx := context.Background()

	rec.RecordNodeExecution(ctx, "ask", 10*time.Millisecond, nil)
	rec.RecordNodeExecution(ctx, "ask", 20*time.Millisecond, nil)
	rec.RecordNodeExecution(ctx, "validate", 5*time.Millisecond, errors.New("bad"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(3), counterTotal(t, rm, "flowgraph.node.executions"))
	assert.Equal(t, int64(1), counterTotal(t, rm, "flowgraph.node.errors"))

	latency := findMetric(rm, "flowgraph.node.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestOtelMetrics_InvokeOutcomes(t *testing.T) {
	rec, reader := newTestRecorder(t)
	ctx := context.Background()

	rec.RecordInvoke(ctx, OutcomeInterrupted, time.Millisecond)
	rec.RecordInvoke(ctx, OutcomeInterrupted, time.Millisecond)
	rec.RecordInvoke(ctx, OutcomeDone, time.Millisecond)

	rm := collectMetrics(t, reader)
	m := findMetric(rm, "flowgraph.graph.invocations")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])

	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeInterrupted: 2, OutcomeDone: 1}, byOutcome)
}

func TestOtelMetrics_InterruptsAndResumes(t *testing.T) {
	rec, reader := newTestRecorder(t)
	ctx := context.Background()

	rec.RecordInterrupt(ctx, "ask_age")
	rec.RecordResume(ctx, "ask_age")
	rec.RecordInterrupt(ctx, "ask_age")
	rec.RecordCheckpoint(ctx, "ask_age", 256)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, rm, "flowgraph.thread.interrupts"))
	assert.Equal(t, int64(1), counterTotal(t, rm, "flowgraph.thread.resumes"))
	assert.NotNil(t, findMetric(rm, "flowgraph.checkpoint.size_bytes"))
}

func TestNoopMetrics(t *testing.T) {
	var rec MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		rec.RecordNodeExecution(ctx, "n", time.Second, errors.New("x"))
		rec.RecordInvoke(ctx, OutcomeError, time.Second)
		rec.RecordCheckpoint(ctx, "n", 1)
		rec.RecordInterrupt(ctx, "n")
		rec.RecordResume(ctx, "n")
	})
}
