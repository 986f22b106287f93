package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements MetricsRecorder with client_golang
// collectors, for processes that expose /metrics directly.
type PrometheusRecorder struct {
	nodeExecutions *prometheus.CounterVec
	nodeErrors     *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	invokes        *prometheus.CounterVec
	invokeDuration *prometheus.HistogramVec
	checkpointSize *prometheus.HistogramVec
	interrupts     *prometheus.CounterVec
	resumes        *prometheus.CounterVec
}

var _ MetricsRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to use the global registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		nodeExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgraph_node_executions_total",
			Help: "Total number of node executions",
		}, []string{"node_id"}),
		nodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgraph_node_errors_total",
			Help: "Total number of failed node executions",
		}, []string{"node_id"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgraph_node_duration_seconds",
			Help:    "Duration of node executions",
			Buckets: prometheus.DefBuckets,
		}, []string{"node_id"}),
		invokes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgraph_invocations_total",
			Help: "Total number of graph invocations by outcome",
		}, []string{"outcome"}),
		invokeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgraph_invocation_duration_seconds",
			Help:    "Duration of graph invocations",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		checkpointSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgraph_checkpoint_size_bytes",
			Help:    "Size of saved checkpoints",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"node_id"}),
		interrupts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgraph_interrupts_total",
			Help: "Total number of interrupts awaiting human input",
		}, []string{"node_id"}),
		resumes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgraph_resumes_total",
			Help: "Total number of suspended threads resumed",
		}, []string{"node_id"}),
	}

	for _, c := range []prometheus.Collector{
		r.nodeExecutions, r.nodeErrors, r.nodeDuration,
		r.invokes, r.invokeDuration, r.checkpointSize,
		r.interrupts, r.resumes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordNodeExecution implements MetricsRecorder.
func (r *PrometheusRecorder) RecordNodeExecution(_ context.Context, nodeID string, duration time.Duration, err error) {
	r.nodeExecutions.WithLabelValues(nodeID).Inc()
	r.nodeDuration.WithLabelValues(nodeID).Observe(duration.Seconds())
	if err != nil {
		r.nodeErrors.WithLabelValues(nodeID).Inc()
	}
}

// RecordInvoke implements MetricsRecorder.
func (r *PrometheusRecorder) RecordInvoke(_ context.Context, outcome string, duration time.Duration) {
	r.invokes.WithLabelValues(outcome).Inc()
	r.invokeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordCheckpoint implements MetricsRecorder.
func (r *PrometheusRecorder) RecordCheckpoint(_ context.Context, nodeID string, sizeBytes int64) {
	r.checkpointSize.WithLabelValues(nodeID).Observe(float64(sizeBytes))
}

// RecordInterrupt implements MetricsRecorder.
func (r *PrometheusRecorder) RecordInterrupt(_ context.Context, nodeID string) {
	r.interrupts.WithLabelValues(nodeID).Inc()
}

// RecordResume implements MetricsRecorder.
func (r *PrometheusRecorder) RecordResume(_ context.Context, nodeID string) {
	r.resumes.WithLabelValues(nodeID).Inc()
}
