package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
)

var (
	// ErrUnknownThread is returned by Continue under the Fail policy.
	ErrUnknownThread = errors.New("unknown thread")

	// ErrMaxResumes is returned when a conversation needs more resume
	// cycles than WithMaxResumes allows.
	ErrMaxResumes = errors.New("exceeded maximum resumes")
)

// Outcome is the end of one driven conversation.
type Outcome[S any] struct {
	ThreadID string
	State    S
	// Resumes counts the values delivered to interrupts.
	Resumes int
	// Pending is the last prompt when the driver stopped while awaiting
	// input, for example because the input closed.
	Pending *flowgraph.Pending
}

// Done reports whether the graph reached END.
func (o Outcome[S]) Done() bool {
	return o.Pending == nil
}

type options struct {
	threadID   string
	maxResumes int
	missing    MissingCheckpoint
	logger     *slog.Logger
	observers  []Observer
	ctxOpts    []flowgraph.ContextOption
	runOpts    []flowgraph.RunOption
}

// Option configures a Driver.
type Option func(*options)

// WithThreadID drives an existing or chosen thread instead of a new UUID.
func WithThreadID(id string) Option {
	return func(o *options) {
		o.threadID = id
	}
}

// WithMaxResumes caps resume cycles per conversation. 0, the default,
// means unlimited.
func WithMaxResumes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxResumes = n
		}
	}
}

// WithMissingCheckpoint sets the policy for Continue on unknown threads.
func WithMissingCheckpoint(p MissingCheckpoint) Option {
	return func(o *options) {
		o.missing = p
	}
}

// WithLogger sets the logger for the driver and the graph's nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers fn for status transitions.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

// WithContextOptions passes options to the flowgraph.Context the nodes
// receive, such as flowgraph.WithLLM.
func WithContextOptions(opts ...flowgraph.ContextOption) Option {
	return func(o *options) {
		o.ctxOpts = append(o.ctxOpts, opts...)
	}
}

// WithRunOptions applies run options (metrics, tracing, iteration limits)
// to every invocation.
func WithRunOptions(opts ...flowgraph.RunOption) Option {
	return func(o *options) {
		o.runOpts = append(o.runOpts, opts...)
	}
}

// Driver runs one conversation thread of a graph with state S.
type Driver[S any] struct {
	graph *flowgraph.CompiledGraph[S]
	store checkpoint.Store
	opts  options
}

// New creates a driver for graph that checkpoints into store. A thread ID
// is generated unless WithThreadID is given.
func New[S any](graph *flowgraph.CompiledGraph[S], store checkpoint.Store, opts ...Option) *Driver[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.threadID == "" {
		o.threadID = uuid.NewString()
	}
	return &Driver[S]{graph: graph, store: store, opts: o}
}

// ThreadID returns the thread this driver runs.
func (d *Driver[S]) ThreadID() string {
	return d.opts.threadID
}

// Start runs the thread from the graph's entry point with seed as the
// initial state, answering interrupts from in until the graph reaches END.
//
// If in reports ErrInputClosed the driver stops with the thread suspended;
// the returned Outcome carries the pending prompt and err is nil. The
// thread can be picked up later with Continue.
func (d *Driver[S]) Start(ctx context.Context, seed S, in Input) (Outcome[S], error) {
	fctx := d.context(ctx)
	d.opts.logger.Info("conversation starting", slog.String("thread_id", d.opts.threadID))

	res, err := d.graph.Invoke(fctx, seed, d.runOptions()...)
	return d.drive(ctx, fctx, res, err, in)
}

// Continue resumes the thread from its latest checkpoint. A thread
// suspended on an interrupt first asks in for the pending prompt. A
// finished thread returns its final state.
//
// For a thread the store does not know, FreshStart behaves like Start
// with seed and Fail returns ErrUnknownThread.
func (d *Driver[S]) Continue(ctx context.Context, seed S, in Input) (Outcome[S], error) {
	fctx := d.context(ctx)

	snap, err := d.graph.Snapshot(ctx, d.store, d.opts.threadID)
	if errors.Is(err, flowgraph.ErrNoCheckpoints) {
		if d.opts.missing == Fail {
			return Outcome[S]{ThreadID: d.opts.threadID}, fmt.Errorf("%w: %s", ErrUnknownThread, d.opts.threadID)
		}
		d.opts.logger.Warn("no checkpoint for thread, starting fresh",
			slog.String("thread_id", d.opts.threadID))
		return d.Start(ctx, seed, in)
	}
	if err != nil {
		return Outcome[S]{ThreadID: d.opts.threadID}, err
	}

	d.opts.logger.Info("conversation continuing",
		slog.String("thread_id", d.opts.threadID),
		slog.String("next_node", snap.Next))

	switch {
	case snap.Done():
		d.notify(Running, Done, "")
		return Outcome[S]{ThreadID: d.opts.threadID, State: snap.State}, nil
	case snap.Pending != nil:
		res := flowgraph.Result[S]{State: snap.State, Pending: snap.Pending}
		return d.drive(ctx, fctx, res, nil, in)
	default:
		// Checkpointed between nodes, for example after a crash.
		res, err := d.graph.Resume(fctx, d.store, d.opts.threadID,
			flowgraph.WithRunOptions(d.opts.runOpts...))
		return d.drive(ctx, fctx, res, err, in)
	}
}

// drive is the status loop. res and err are the outcome of the first
// invocation.
func (d *Driver[S]) drive(ctx context.Context, fctx flowgraph.Context, res flowgraph.Result[S], err error, in Input) (Outcome[S], error) {
	out := Outcome[S]{ThreadID: d.opts.threadID}

	for {
		out.State = res.State
		if err != nil {
			return out, err
		}
		if !res.Interrupted() {
			out.Pending = nil
			d.notify(Running, Done, "")
			d.opts.logger.Info("conversation done",
				slog.String("thread_id", d.opts.threadID),
				slog.Int("resumes", out.Resumes))
			return out, nil
		}

		out.Pending = res.Pending
		d.notify(Running, AwaitingInput, res.Pending.Prompt)

		if d.opts.maxResumes > 0 && out.Resumes >= d.opts.maxResumes {
			return out, fmt.Errorf("%w (%d)", ErrMaxResumes, d.opts.maxResumes)
		}

		answer, askErr := in.Ask(ctx, res.Pending.Prompt)
		if errors.Is(askErr, ErrInputClosed) {
			d.opts.logger.Info("input closed while awaiting input",
				slog.String("thread_id", d.opts.threadID),
				slog.String("node_id", res.Pending.NodeID))
			return out, nil
		}
		if askErr != nil {
			return out, askErr
		}

		d.notify(AwaitingInput, Running, "")
		out.Resumes++
		res, err = d.graph.Resume(fctx, d.store, d.opts.threadID,
			flowgraph.WithResumeValue(answer),
			flowgraph.WithRunOptions(d.opts.runOpts...))
	}
}

func (d *Driver[S]) context(ctx context.Context) flowgraph.Context {
	opts := append([]flowgraph.ContextOption{
		flowgraph.WithLogger(d.opts.logger),
		flowgraph.WithContextThreadID(d.opts.threadID),
		flowgraph.WithCheckpointer(d.store),
	}, d.opts.ctxOpts...)
	return flowgraph.NewContext(ctx, opts...)
}

func (d *Driver[S]) runOptions() []flowgraph.RunOption {
	return append([]flowgraph.RunOption{
		flowgraph.WithCheckpointing(d.store),
		flowgraph.WithThreadID(d.opts.threadID),
	}, d.opts.runOpts...)
}

func (d *Driver[S]) notify(from, to Status, prompt string) {
	t := Transition{ThreadID: d.opts.threadID, From: from, To: to, Prompt: prompt}
	for _, fn := range d.opts.observers {
		fn(t)
	}
}
