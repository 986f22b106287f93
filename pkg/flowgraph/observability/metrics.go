package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Invocation outcomes passed to RecordInvoke.
const (
	OutcomeDone        = "done"
	OutcomeInterrupted = "interrupted"
	OutcomeError       = "error"
)

// MetricsRecorder records graph metrics.
// Use NewMetricsRecorder for OTel, NewPrometheusRecorder for Prometheus,
// or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node execution with its duration and
	// error status. Interrupts are not errors.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordInvoke records the end of one graph invocation.
	// outcome is one of OutcomeDone, OutcomeInterrupted or OutcomeError.
	RecordInvoke(ctx context.Context, outcome string, duration time.Duration)

	// RecordCheckpoint records a checkpoint save operation.
	RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64)

	// RecordInterrupt records a node suspending for human input.
	RecordInterrupt(ctx context.Context, nodeID string)

	// RecordResume records a suspended thread being resumed.
	RecordResume(ctx context.Context, nodeID string)
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	invokes        metric.Int64Counter
	invokeLatency  metric.Float64Histogram
	checkpointSize metric.Int64Histogram
	interrupts     metric.Int64Counter
	resumes        metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("flowgraph"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	var (
		m   otelMetrics
		err error
	)

	if m.nodeExecutions, err = meter.Int64Counter("flowgraph.node.executions",
		metric.WithDescription("Number of node executions")); err != nil {
		return nil, err
	}
	if m.nodeLatency, err = meter.Float64Histogram("flowgraph.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.nodeErrors, err = meter.Int64Counter("flowgraph.node.errors",
		metric.WithDescription("Number of node execution errors")); err != nil {
		return nil, err
	}
	if m.invokes, err = meter.Int64Counter("flowgraph.graph.invocations",
		metric.WithDescription("Number of graph invocations by outcome")); err != nil {
		return nil, err
	}
	if m.invokeLatency, err = meter.Float64Histogram("flowgraph.graph.latency_ms",
		metric.WithDescription("Graph invocation latency in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.checkpointSize, err = meter.Int64Histogram("flowgraph.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.interrupts, err = meter.Int64Counter("flowgraph.thread.interrupts",
		metric.WithDescription("Number of interrupts awaiting human input")); err != nil {
		return nil, err
	}
	if m.resumes, err = meter.Int64Counter("flowgraph.thread.resumes",
		metric.WithDescription("Number of suspended threads resumed")); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. Configure the provider first with otel.SetMeterProvider.
// Falls back to a no-op recorder if instrument creation fails.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFromMeter returns a recorder using the given meter
// instead of the global provider.
func NewMetricsRecorderFromMeter(meter metric.Meter) (MetricsRecorder, error) {
	return newOtelMetrics(meter)
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_id", nodeID))
	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordInvoke(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.invokes.Add(ctx, 1, attrs)
	m.invokeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64) {
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("node_id", nodeID)))
}

func (m *otelMetrics) RecordInterrupt(ctx context.Context, nodeID string) {
	m.interrupts.Add(ctx, 1, metric.WithAttributes(attribute.String("node_id", nodeID)))
}

func (m *otelMetrics) RecordResume(ctx context.Context, nodeID string) {
	m.resumes.Add(ctx, 1, metric.WithAttributes(attribute.String("node_id", nodeID)))
}
