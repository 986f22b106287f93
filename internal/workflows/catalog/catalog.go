// Package catalog registers every workflow behind a type-erased entry so
// callers can list and run them by name.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/internal/workflows/age"
	"github.com/randalmurphal/flowchat/internal/workflows/agecheck"
	"github.com/randalmurphal/flowchat/internal/workflows/agecoach"
	"github.com/randalmurphal/flowchat/internal/workflows/chat"
	"github.com/randalmurphal/flowchat/internal/workflows/finance"
	"github.com/randalmurphal/flowchat/internal/workflows/intake"
	"github.com/randalmurphal/flowchat/internal/workflows/outreach"
	"github.com/randalmurphal/flowchat/internal/workflows/travelinfo"
	"github.com/randalmurphal/flowchat/internal/workflows/tripplanner"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/driver"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/registry"
)

// ErrUnknownWorkflow is returned by Get for unregistered names.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// Report is the outcome of a run, independent of the workflow's state type.
type Report struct {
	Workflow string
	ThreadID string
	Resumes  int
	Finished bool
	// Summary describes the final state; empty while the thread is suspended.
	Summary string
	// Pending is the unanswered prompt of a suspended thread.
	Pending string
}

type runFunc func(ctx context.Context, deps workflows.Deps, store checkpoint.Store, in driver.Input, resume bool, opts ...driver.Option) (Report, error)

// Entry is a registered workflow.
type Entry struct {
	Name        string
	Description string
	NeedsLLM    bool

	run runFunc
}

// Start runs the workflow on a new thread.
func (e Entry) Start(ctx context.Context, deps workflows.Deps, store checkpoint.Store, in driver.Input, opts ...driver.Option) (Report, error) {
	return e.run(ctx, deps, store, in, false, opts...)
}

// Continue picks up the thread named by driver.WithThreadID.
func (e Entry) Continue(ctx context.Context, deps workflows.Deps, store checkpoint.Store, in driver.Input, opts ...driver.Option) (Report, error) {
	return e.run(ctx, deps, store, in, true, opts...)
}

// Catalog is a set of workflows in registration order.
type Catalog struct {
	entries *registry.Registry[Entry]
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: registry.New[Entry]()}
}

// Default returns a catalog with every built-in workflow.
func Default() *Catalog {
	c := New()
	MustRegister(c, age.Name, age.Description, false, age.Build, age.Summary)
	MustRegister(c, agecheck.Name, agecheck.Description, true, agecheck.Build, agecheck.Summary)
	MustRegister(c, agecoach.Name, agecoach.Description, true, agecoach.Build, agecoach.Summary)
	MustRegister(c, chat.Name, chat.Description, true, chat.Build, chat.Summary)
	MustRegister(c, outreach.Name, outreach.Description, true, outreach.Build, outreach.Summary)
	MustRegister(c, intake.Name, intake.Description, true, intake.Build, intake.Summary)
	MustRegister(c, travelinfo.Name, travelinfo.Description, true, travelinfo.Build, travelinfo.Summary)
	MustRegister(c, finance.Name, finance.Description, true, finance.Build, finance.Summary)
	MustRegister(c, tripplanner.Name, tripplanner.Description, true, tripplanner.Build, tripplanner.Summary)
	return c
}

// Register adds a workflow. Runs start from the zero state S.
func Register[S any](
	c *Catalog,
	name, description string,
	needsLLM bool,
	build func(workflows.Deps) (*flowgraph.CompiledGraph[S], error),
	summary func(S) string,
) error {
	return c.entries.Register(name, Entry{
		Name:        name,
		Description: description,
		NeedsLLM:    needsLLM,
		run:         runner(name, build, summary),
	})
}

// MustRegister is Register that panics on duplicate names.
func MustRegister[S any](
	c *Catalog,
	name, description string,
	needsLLM bool,
	build func(workflows.Deps) (*flowgraph.CompiledGraph[S], error),
	summary func(S) string,
) {
	if err := Register(c, name, description, needsLLM, build, summary); err != nil {
		panic(err)
	}
}

// Get looks up a workflow by name.
func (c *Catalog) Get(name string) (Entry, error) {
	e, ok := c.entries.Get(name)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
	return e, nil
}

// List returns the workflows in registration order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, c.entries.Len())
	for _, e := range c.entries.All() {
		out = append(out, e)
	}
	return out
}

func runner[S any](
	name string,
	build func(workflows.Deps) (*flowgraph.CompiledGraph[S], error),
	summary func(S) string,
) runFunc {
	return func(ctx context.Context, deps workflows.Deps, store checkpoint.Store, in driver.Input, resume bool, opts ...driver.Option) (Report, error) {
		if err := ctx.Err(); err != nil {
			return Report{Workflow: name}, err
		}
		graph, err := build(deps)
		if err != nil {
			return Report{Workflow: name}, fmt.Errorf("build %s: %w", name, err)
		}

		d := driver.New(graph, store, opts...)
		var zero S
		var out driver.Outcome[S]
		if resume {
			out, err = d.Continue(ctx, zero, in)
		} else {
			out, err = d.Start(ctx, zero, in)
		}

		r := Report{Workflow: name, ThreadID: d.ThreadID(), Resumes: out.Resumes}
		if out.Pending != nil {
			r.Pending = out.Pending.Prompt
		} else if err == nil {
			r.Finished = true
			r.Summary = summary(out.State)
		}
		return r, err
	}
}
