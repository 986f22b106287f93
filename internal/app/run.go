package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/flowchat/internal/workflows/catalog"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/driver"
)

// NewThreadID returns a fresh thread ID prefixed with the workflow name.
func NewThreadID(workflow string) string {
	return workflow + "-" + uuid.NewString()[:8]
}

// Run starts workflow on a new thread, or continues threadID when it is
// not empty. The final summary, or a note on how to resume a suspended
// thread, is written to stdout.
func (a *App) Run(ctx context.Context, workflow, threadID string) (catalog.Report, error) {
	entry, err := a.Catalog.Get(workflow)
	if err != nil {
		return catalog.Report{Workflow: workflow}, err
	}
	if entry.NeedsLLM && a.LLM == nil {
		return catalog.Report{Workflow: workflow}, fmt.Errorf("%s: %w", workflow, ErrNoModel)
	}

	policy, err := driver.ParseMissingCheckpoint(a.Settings.Driver.MissingCheckpoint)
	if err != nil {
		return catalog.Report{Workflow: workflow}, err
	}

	resume := threadID != ""
	if !resume {
		threadID = NewThreadID(workflow)
	}
	logger := a.Logger.With(slog.String("workflow", workflow), slog.String("thread_id", threadID))

	opts := []driver.Option{
		driver.WithThreadID(threadID),
		driver.WithMaxResumes(a.Settings.Driver.MaxResumes),
		driver.WithMissingCheckpoint(policy),
		driver.WithLogger(logger),
		driver.WithContextOptions(flowgraph.WithLLM(a.LLM)),
		driver.WithRunOptions(slices.Concat(a.metrics.runOptions, []flowgraph.RunOption{flowgraph.WithObservabilityLogger(logger)})...),
		driver.WithObserver(func(t driver.Transition) {
			logger.Debug("status", slog.String("from", t.From.String()), slog.String("to", t.To.String()))
		}),
	}

	deps := a.Deps()

	var report catalog.Report
	if resume {
		report, err = entry.Continue(ctx, deps, a.Store, a.in, opts...)
	} else {
		report, err = entry.Start(ctx, deps, a.Store, a.in, opts...)
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(a.out, "\nInterrupted. Resume with: flowchat run %s --thread %s\n", workflow, report.ThreadID)
	}
	if err != nil {
		return report, err
	}

	if report.Finished {
		fmt.Fprintf(a.out, "\n%s\n", report.Summary)
	} else {
		fmt.Fprintf(a.out, "\nPaused. Resume with: flowchat run %s --thread %s\n", workflow, report.ThreadID)
	}
	return report, nil
}

// Thread describes a stored conversation.
type Thread struct {
	ID        string
	Node      string
	Suspended bool
	Prompt    string
	Updated   time.Time
}

// Threads lists stored threads, least recently updated first.
func (a *App) Threads(ctx context.Context) ([]Thread, error) {
	ids, err := a.Store.Threads(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Thread, 0, len(ids))
	for _, id := range ids {
		cp, err := checkpoint.Latest(ctx, a.Store, id)
		if errors.Is(err, checkpoint.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("thread %s: %w", id, err)
		}
		t := Thread{ID: id, Node: cp.NodeID, Suspended: cp.Suspended(), Updated: cp.Timestamp}
		if cp.Pending != nil {
			t.Prompt = cp.Pending.Prompt
		}
		out = append(out, t)
	}
	return out, nil
}

// DeleteThread removes every checkpoint of a thread.
func (a *App) DeleteThread(ctx context.Context, id string) error {
	return a.Store.DeleteThread(ctx, id)
}
