package flowgraph

import (
	"log/slog"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
)

// runConfig holds configuration for one graph invocation.
type runConfig struct {
	maxIterations          int
	checkpointStore        checkpoint.Store
	threadID               string
	sequence               int
	checkpointFailureFatal bool

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 1000,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations caps node executions per invocation. Default 1000.
// Each resume starts a new invocation with a fresh count.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithCheckpointing saves a checkpoint after every node and on every
// interrupt. Requires WithThreadID.
func WithCheckpointing(store checkpoint.Store) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
	}
}

// WithThreadID sets the thread checkpoints are saved under.
func WithThreadID(id string) RunOption {
	return func(c *runConfig) {
		c.threadID = id
	}
}

// WithCheckpointFailureFatal makes checkpoint save failures stop execution.
// By default they are logged and execution continues. Interrupt
// checkpoints are always fatal, since a suspended thread that was not
// saved cannot be resumed.
func WithCheckpointFailureFatal(fatal bool) RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = fatal
	}
}

// WithObservabilityLogger enables structured lifecycle logs.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder records metrics with rec, for example a
// Prometheus recorder.
func WithMetricsRecorder(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithTracing enables OpenTelemetry spans using the global tracer provider.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager traces with spans.
func WithSpanManager(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans != nil {
			c.spans = spans
			c.tracingEnabled = true
		}
	}
}

// resumeConfig holds configuration for Resume and ResumeFrom.
type resumeConfig struct {
	value         *string
	stateOverride func(any) any
	validateState func(any) error
	replayNode    bool
	runOpts       []RunOption
}

// ResumeOption configures Resume and ResumeFrom.
type ResumeOption func(*resumeConfig)

// WithResumeValue delivers v to the pending interrupt. The suspended node
// re-runs and its Interrupt call returns v.
func WithResumeValue(v string) ResumeOption {
	return func(c *resumeConfig) {
		c.value = &v
	}
}

// WithStateOverride modifies the checkpointed state before continuing.
// fn receives and must return a value of the graph's state type; other
// return types are ignored.
func WithStateOverride(fn func(any) any) ResumeOption {
	return func(c *resumeConfig) {
		c.stateOverride = fn
	}
}

// WithStateValidation rejects the checkpointed state before continuing.
func WithStateValidation(fn func(any) error) ResumeOption {
	return func(c *resumeConfig) {
		c.validateState = fn
	}
}

// WithReplay re-executes the checkpointed node instead of the node after it.
func WithReplay() ResumeOption {
	return func(c *resumeConfig) {
		c.replayNode = true
	}
}

// WithRunOptions applies run options (observability, iteration limits)
// to the resumed invocation.
func WithRunOptions(opts ...RunOption) ResumeOption {
	return func(c *resumeConfig) {
		c.runOpts = append(c.runOpts, opts...)
	}
}
