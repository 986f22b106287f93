// Package observability provides structured logging, metrics and tracing
// for graph execution.
//
// Features:
//   - Structured logging via log/slog, with text, JSON or pretty handlers
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds thread context to a logger.
func EnrichLogger(logger *slog.Logger, threadID, nodeID string, attempt int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("thread_id", threadID),
		slog.String("node_id", nodeID),
		slog.Int("attempt", attempt),
	)
}

// LogInvokeStart logs the start of a graph invocation.
// startNode is the entry point or the node being resumed.
func LogInvokeStart(logger *slog.Logger, threadID, startNode string) {
	if logger == nil {
		return
	}
	logger.Info("graph invocation starting",
		slog.String("thread_id", threadID),
		slog.String("start_node", startNode),
	)
}

// LogInvokeComplete logs an invocation that reached END.
func LogInvokeComplete(logger *slog.Logger, threadID string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("graph invocation completed",
		slog.String("thread_id", threadID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogInvokeError logs a failed invocation.
func LogInvokeError(logger *slog.Logger, threadID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph invocation failed",
		slog.String("thread_id", threadID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogInterrupt logs a thread suspending on an interrupt.
func LogInterrupt(logger *slog.Logger, threadID, nodeID, prompt string) {
	if logger == nil {
		return
	}
	logger.Info("graph interrupted",
		slog.String("thread_id", threadID),
		slog.String("node_id", nodeID),
		slog.Int("prompt_len", len(prompt)),
	)
}

// LogResume logs a suspended thread being resumed.
func LogResume(logger *slog.Logger, threadID, nodeID string, withValue bool) {
	if logger == nil {
		return
	}
	logger.Info("graph resuming",
		slog.String("thread_id", threadID),
		slog.String("node_id", nodeID),
		slog.Bool("with_value", withValue),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting", slog.String("node_id", nodeID))
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution error.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, nodeID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("node_id", nodeID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs checkpoint failure (non-fatal).
func LogCheckpointError(logger *slog.Logger, nodeID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("node_id", nodeID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation returns a func reporting the elapsed milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
