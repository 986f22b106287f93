package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// BackoffFactor is the multiplier applied to backoff after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64

	// RetryableFunc optionally overrides the default retryability check.
	RetryableFunc func(error) bool

	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetry is the standard retry configuration for model calls.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// RetryResult contains the result of a retry operation.
type RetryResult[T any] struct {
	Value T

	// Err is the final error if all attempts failed. It is always a
	// *CategorizedError.
	Err error

	Attempts int
	Duration time.Duration
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts, or ctx is done.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) RetryResult[T] {
	start := time.Now()
	backoff := cfg.InitialBackoff
	maxAttempts := max(cfg.MaxAttempts, 1)
	var lastErr error

	isRetryable := cfg.RetryableFunc
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return RetryResult[T]{
				Err:      &CategorizedError{Err: err, Category: CategoryPermanent, Retries: attempt, Context: "context cancelled"},
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{
				Value:    result,
				Attempts: attempt + 1,
				Duration: time.Since(start),
			}
		}
		lastErr = err

		if !isRetryable(err) {
			return RetryResult[T]{
				Err: &CategorizedError{
					Err:      err,
					Category: Categorize(err),
					Retries:  attempt + 1,
				},
				Attempts: attempt + 1,
				Duration: time.Since(start),
			}
		}

		if attempt == maxAttempts-1 {
			break
		}

		wait := calculateBackoff(backoff, cfg.Jitter)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return RetryResult[T]{
				Err:      &CategorizedError{Err: ctx.Err(), Category: CategoryPermanent, Retries: attempt + 1, Context: "context cancelled during backoff"},
				Attempts: attempt + 1,
				Duration: time.Since(start),
			}
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return RetryResult[T]{
		Err: &CategorizedError{
			Err:      lastErr,
			Category: Categorize(lastErr),
			Retries:  maxAttempts,
			Context:  "max retries exceeded",
		},
		Attempts: maxAttempts,
		Duration: time.Since(start),
	}
}

// calculateBackoff returns base +/- base*jitter.
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	jitterAmount := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + jitterAmount)
}

// RetryOption configures retry behavior.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.MaxAttempts = n
	}
}

// WithInitialBackoff sets the initial backoff duration.
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.InitialBackoff = d
	}
}

// WithMaxBackoff sets the maximum backoff duration.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.MaxBackoff = d
	}
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.BackoffFactor = f
	}
}

// WithJitter sets the jitter factor.
func WithJitter(j float64) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.Jitter = j
	}
}

// WithRetryableFunc sets a custom retryability check.
func WithRetryableFunc(fn func(error) bool) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.RetryableFunc = fn
	}
}

// WithOnRetry registers a hook called before each backoff sleep.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.OnRetry = fn
	}
}

// NewRetryConfig creates a retry configuration from DefaultRetry and opts.
func NewRetryConfig(opts ...RetryOption) RetryConfig {
	cfg := DefaultRetry
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
