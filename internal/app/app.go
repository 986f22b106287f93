// Package app wires settings into the pieces a workflow run needs: logger,
// model client, checkpoint store, metrics and the terminal.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/internal/workflows/catalog"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/config"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/driver"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
)

// ErrNoModel is returned when a workflow needs a model and none is configured.
var ErrNoModel = errors.New("no language model configured: set OPENAI_API_KEY or llm.api_key")

// App holds everything built from Settings. Close releases it.
type App struct {
	Settings config.Settings
	Logger   *slog.Logger
	LLM      llm.Client
	Store    checkpoint.Store
	Catalog  *catalog.Catalog

	in      driver.Input
	out     io.Writer
	metrics *metrics
	closers []func() error
}

// Option overrides a component New would otherwise build.
type Option func(*options)

type options struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	input   driver.Input
	llm     llm.Client
	store   checkpoint.Store
	catalog *catalog.Catalog
}

// WithStdio sets the terminal streams. Logs go to stderr.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdin, o.stdout, o.stderr = stdin, stdout, stderr
	}
}

// WithInput replaces the terminal with in.
func WithInput(in driver.Input) Option {
	return func(o *options) { o.input = in }
}

// WithLLM uses client instead of building one from settings.
func WithLLM(client llm.Client) Option {
	return func(o *options) { o.llm = client }
}

// WithStore uses store instead of building one. The caller keeps
// ownership; Close does not close it.
func WithStore(store checkpoint.Store) Option {
	return func(o *options) { o.store = store }
}

// WithCatalog replaces the default workflow catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// New builds an App from s.
func New(ctx context.Context, s config.Settings, opts ...Option) (*App, error) {
	o := options{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := newLogger(s.Log, o.stderr)
	if err != nil {
		return nil, err
	}
	a := &App{Settings: s, Logger: logger, out: o.stdout, Catalog: o.catalog}
	if a.Catalog == nil {
		a.Catalog = catalog.Default()
	}

	a.LLM = o.llm
	if a.LLM == nil {
		if a.LLM, err = newLLM(s.LLM); err != nil {
			return nil, err
		}
	}
	if a.LLM != nil {
		a.LLM = wrapLLM(a.LLM, s.LLM, logger)
	}

	a.Store = o.store
	if a.Store == nil {
		store, err := newStore(ctx, s.Store)
		if err != nil {
			return nil, err
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	a.metrics, err = newMetrics(s.Metrics, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.metrics.shutdown)

	a.in = o.input
	if a.in == nil {
		terminal := driver.NewTerminal(o.stdin, o.stdout, driver.WithRenderer(newRenderer(o.stdout, logger)))
		a.in = terminal
		a.closers = append(a.closers, terminal.Close)
	}
	return a, nil
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// MetricsAddr is the Prometheus listen address, or "" when not serving.
func (a *App) MetricsAddr() string {
	return a.metrics.addr
}

// Deps returns the workflow dependencies.
func (a *App) Deps() workflows.Deps {
	return workflows.Deps{
		LLM:       a.LLM,
		Model:     a.Settings.LLM.Model,
		Approvals: a.Settings.Driver.Approvals,
	}
}

func newLogger(s config.LogSettings, w io.Writer) (*slog.Logger, error) {
	level, err := observability.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	return observability.NewLogger(
		observability.WithLevel(level),
		observability.WithFormat(s.Format),
		observability.WithWriter(w),
	), nil
}
