package flowgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

// Context provides execution context to nodes.
// It extends context.Context with graph services and thread metadata.
//
// Context is immutable after creation. The executor derives a context per
// node carrying the node ID and an enriched logger.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with thread and node
	// fields during execution. Never nil.
	Logger() *slog.Logger

	// LLM returns the text-generation client, or nil if not configured.
	LLM() llm.Client

	// Checkpointer returns the checkpoint store, or nil if not configured.
	Checkpointer() checkpoint.Store

	// ThreadID identifies the conversation being executed.
	ThreadID() string

	// NodeID returns the node being executed, empty outside a node.
	NodeID() string

	// Attempt returns the attempt number (1 = first attempt).
	Attempt() int
}

type executionContext struct {
	context.Context

	logger       *slog.Logger
	llmClient    llm.Client
	checkpointer checkpoint.Store
	threadID     string
	nodeID       string
	attempt      int

	// resume is shared by every node context of one invocation.
	resume *resumeSlot
}

func (c *executionContext) Logger() *slog.Logger           { return c.logger }
func (c *executionContext) LLM() llm.Client                { return c.llmClient }
func (c *executionContext) Checkpointer() checkpoint.Store { return c.checkpointer }
func (c *executionContext) ThreadID() string               { return c.threadID }
func (c *executionContext) NodeID() string                 { return c.nodeID }
func (c *executionContext) Attempt() int                   { return c.attempt }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger. It is enriched with thread_id, node_id and
// attempt during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLLM sets the text-generation client nodes use.
func WithLLM(client llm.Client) ContextOption {
	return func(c *executionContext) {
		c.llmClient = client
	}
}

// WithCheckpointer exposes a checkpoint store to nodes.
func WithCheckpointer(store checkpoint.Store) ContextOption {
	return func(c *executionContext) {
		c.checkpointer = store
	}
}

// WithContextThreadID sets the thread identifier used for logging.
// A UUID is generated when unset. For checkpointing pass WithThreadID
// to Run or Invoke.
func WithContextThreadID(id string) ContextOption {
	return func(c *executionContext) {
		c.threadID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background(),
//	    flowgraph.WithLogger(logger),
//	    flowgraph.WithLLM(client))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context:  ctx,
		logger:   slog.Default(),
		threadID: uuid.NewString(),
		attempt:  1,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// forInvocation copies ctx into a fresh executionContext bound to one
// invocation of threadID. Contexts implemented outside this package are
// adapted through the interface.
func forInvocation(ctx Context, threadID string, slot *resumeSlot) *executionContext {
	ec := &executionContext{
		Context:      ctx,
		logger:       ctx.Logger(),
		llmClient:    ctx.LLM(),
		checkpointer: ctx.Checkpointer(),
		threadID:     ctx.ThreadID(),
		attempt:      ctx.Attempt(),
		resume:       slot,
	}
	if inner, ok := ctx.(*executionContext); ok {
		ec.Context = inner.Context
	}
	if threadID != "" {
		ec.threadID = threadID
	}
	if ec.logger == nil {
		ec.logger = slog.Default()
	}
	return ec
}

func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context:      c.Context,
		logger:       c.logger.With("thread_id", c.threadID, "node_id", nodeID, "attempt", c.attempt),
		llmClient:    c.llmClient,
		checkpointer: c.checkpointer,
		threadID:     c.threadID,
		nodeID:       nodeID,
		attempt:      c.attempt,
		resume:       c.resume,
	}
}
