package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/registry"
)

// ToolHandler executes a tool call with raw JSON arguments and returns the
// text sent back to the model.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// ToolFunc is a tool definition bound to its handler.
type ToolFunc struct {
	Def    Tool
	Handle ToolHandler
}

// NewTool defines a tool whose arguments decode into Args. The parameter
// schema is generated from Args; field descriptions come from
// `jsonschema:"..."` tags.
//
//	type expenseArgs struct {
//	    Amount   float64 `json:"amount" jsonschema:"amount spent"`
//	    Category string  `json:"category" jsonschema:"spending category"`
//	}
//	addExpense, err := llm.NewTool("add_expense", "Record an expense",
//	    func(ctx context.Context, a expenseArgs) (string, error) { ... })
func NewTool[Args any](name, description string, fn func(ctx context.Context, args Args) (string, error)) (*ToolFunc, error) {
	params, err := SchemaFor[Args]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return &ToolFunc{
		Def: Tool{Name: name, Description: description, Parameters: params},
		Handle: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args Args
			if len(raw) > 0 {
				if err := DecodeJSON(string(raw), &args); err != nil {
					return "", err
				}
			}
			return fn(ctx, args)
		},
	}, nil
}

// MustTool is NewTool for package-level tool definitions.
func MustTool[Args any](name, description string, fn func(ctx context.Context, args Args) (string, error)) *ToolFunc {
	t, err := NewTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Toolbox dispatches tool calls by name.
type Toolbox struct {
	tools *registry.Registry[*ToolFunc]
}

// NewToolbox registers tools. Tool names must be unique.
func NewToolbox(tools ...*ToolFunc) (*Toolbox, error) {
	tb := &Toolbox{tools: registry.New[*ToolFunc]()}
	for _, t := range tools {
		if err := tb.tools.Register(t.Def.Name, t); err != nil {
			return nil, fmt.Errorf("toolbox: %w", err)
		}
	}
	return tb, nil
}

// Definitions returns the tool definitions in registration order.
func (tb *Toolbox) Definitions() []Tool {
	defs := make([]Tool, 0, tb.tools.Len())
	for _, t := range tb.tools.All() {
		defs = append(defs, t.Def)
	}
	return defs
}

// Names returns the tool names in registration order.
func (tb *Toolbox) Names() []string {
	return tb.tools.Names()
}

// Call runs one tool call and returns its result message. Unknown tools and
// handler errors become error text for the model to read, so a bad call
// never ends the conversation. A *errors.HumanInterventionError becomes an
// instruction to put its question to the user.
func (tb *Toolbox) Call(ctx context.Context, call ToolCall) Message {
	t, ok := tb.tools.Get(call.Name)
	if !ok {
		return ToolResultMessage(call.ID, call.Name, fmt.Sprintf("error: unknown tool %q", call.Name))
	}
	out, err := t.Handle(ctx, call.Arguments)
	var human *flowerrors.HumanInterventionError
	switch {
	case errors.As(err, &human):
		return ToolResultMessage(call.ID, call.Name, humanPrompt(human))
	case err != nil:
		return ToolResultMessage(call.ID, call.Name, "error: "+err.Error())
	}
	return ToolResultMessage(call.ID, call.Name, out)
}

func humanPrompt(e *flowerrors.HumanInterventionError) string {
	out := "needs user input: ask the user: " + e.Question
	if len(e.Options) > 0 {
		out += fmt.Sprintf(" (options: %s)", strings.Join(e.Options, ", "))
	}
	return out
}

// Run executes calls in order.
func (tb *Toolbox) Run(ctx context.Context, calls []ToolCall) []Message {
	out := make([]Message, 0, len(calls))
	for _, c := range calls {
		out = append(out, tb.Call(ctx, c))
	}
	return out
}

// DefaultMaxToolSteps bounds RunTools when maxSteps is not positive.
const DefaultMaxToolSteps = 8

// RunTools calls the model with the toolbox's tools, executes requested
// tool calls, and calls again until the model answers without tools or
// maxSteps model calls have been made.
//
// It returns the final response and every message produced along the way
// (assistant tool requests, tool results and the final answer), ready to
// append to the transcript.
func RunTools(ctx context.Context, client Client, req CompletionRequest, tb *Toolbox, maxSteps int) (*CompletionResponse, []Message, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxToolSteps
	}
	req.Tools = tb.Definitions()
	req.Messages = slices.Clone(req.Messages)

	var produced []Message
	for step := 0; step < maxSteps; step++ {
		resp, err := client.Complete(ctx, req)
		if err != nil {
			return nil, produced, err
		}
		msg := resp.Message()
		produced = append(produced, msg)
		if len(resp.ToolCalls) == 0 {
			return resp, produced, nil
		}

		results := tb.Run(ctx, resp.ToolCalls)
		produced = append(produced, results...)
		req.Messages = append(req.Messages, msg)
		req.Messages = append(req.Messages, results...)
	}
	return nil, produced, fmt.Errorf("tool loop exceeded %d steps", maxSteps)
}
