package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
)

// WithTimeout bounds every call to d. A call that runs out of time fails
// with a *errors.TimeoutError, which is retryable; cancellation of the
// caller's context is passed through unchanged.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return ClientFunc(func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		resp, err := c.Complete(callCtx, req)
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &flowerrors.TimeoutError{Operation: "llm complete", After: d}
		}
		return resp, err
	})
}

// WithRetry retries transient failures with backoff.
func WithRetry(c Client, cfg flowerrors.RetryConfig) Client {
	if cfg.MaxAttempts <= 1 {
		return c
	}
	return ClientFunc(func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		result := flowerrors.Retry(ctx, cfg, func(ctx context.Context) (*CompletionResponse, error) {
			return c.Complete(ctx, req)
		})
		return result.Value, result.Err
	})
}

// WithLogging logs each call at debug level and failures at warn.
func WithLogging(c Client, logger *slog.Logger) Client {
	if logger == nil {
		return c
	}
	return ClientFunc(func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		start := time.Now()
		resp, err := c.Complete(ctx, req)
		if err != nil {
			logger.WarnContext(ctx, "llm call failed",
				slog.Int("messages", len(req.Messages)),
				slog.Duration("duration", time.Since(start)),
				slog.String("category", flowerrors.Categorize(err).String()),
				slog.Any("error", err))
			return nil, err
		}
		logger.DebugContext(ctx, "llm call",
			slog.String("model", resp.Model),
			slog.Int("messages", len(req.Messages)),
			slog.Int("tool_calls", len(resp.ToolCalls)),
			slog.Int("tokens", resp.Usage.TotalTokens),
			slog.Duration("duration", time.Since(start)))
		return resp, nil
	})
}
