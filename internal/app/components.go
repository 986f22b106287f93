package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/config"
	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

// newLLM returns nil without error when no credentials are configured, so
// model-free workflows still run.
func newLLM(s config.LLMSettings) (llm.Client, error) {
	if s.APIKey == "" && s.BaseURL == "" {
		return nil, nil
	}
	switch s.Provider {
	case "langchain":
		client, err := llm.NewLangChainOpenAI(s.APIKey, s.Model, s.BaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "build langchain client")
		}
		return client, nil
	default:
		opts := []llm.OpenAIOption{llm.WithOpenAIModel(s.Model)}
		if s.BaseURL != "" {
			opts = append(opts, llm.WithOpenAIBaseURL(s.BaseURL))
		}
		return llm.NewOpenAI(s.APIKey, opts...), nil
	}
}

// wrapLLM applies the per-call timeout inside retries so each attempt
// gets the full budget.
func wrapLLM(c llm.Client, s config.LLMSettings, logger *slog.Logger) llm.Client {
	retry := flowerrors.NewRetryConfig(
		flowerrors.WithMaxAttempts(max(s.Retries, 1)),
		flowerrors.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			logger.Info("retrying llm call",
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.Any("error", err))
		}),
	)
	c = llm.WithTimeout(c, s.Timeout)
	c = llm.WithRetry(c, retry)
	return llm.WithLogging(c, logger)
}

func newStore(ctx context.Context, s config.StoreSettings) (checkpoint.Store, error) {
	switch s.Kind {
	case "sqlite":
		store, err := checkpoint.NewSQLiteStore(s.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open sqlite store %s", s.Path)
		}
		return store, nil
	case "redis":
		var opts []checkpoint.RedisOption
		if s.RedisPrefix != "" {
			opts = append(opts, checkpoint.WithRedisPrefix(s.RedisPrefix))
		}
		if s.RedisTTL > 0 {
			opts = append(opts, checkpoint.WithRedisTTL(s.RedisTTL))
		}
		store := checkpoint.NewRedisStore(s.RedisAddr, os.Getenv("FLOWCHAT_REDIS_PASSWORD"), s.RedisDB, opts...)
		if _, err := store.Threads(ctx); err != nil {
			_ = store.Close()
			return nil, errors.Wrapf(err, "connect redis store %s", s.RedisAddr)
		}
		return store, nil
	default:
		return checkpoint.NewMemoryStore(), nil
	}
}

// newRenderer renders prompts as markdown on a terminal and passes them
// through unchanged otherwise.
func newRenderer(w io.Writer, logger *slog.Logger) func(string) (string, error) {
	plain := func(s string) (string, error) { return s, nil }

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return plain
	}
	width := 80
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
		width = cols
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		logger.Warn("markdown renderer unavailable", slog.Any("error", err))
		return plain
	}
	return func(s string) (string, error) {
		out, err := r.Render(s)
		if err != nil {
			return s, nil
		}
		return strings.Trim(out, "\n"), nil
	}
}
