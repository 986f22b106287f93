package workflows

import (
	"context"
	"errors"
	"slices"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

// ErrNoLLM is returned by Build for workflows that need a model when
// Deps.LLM is nil.
var ErrNoLLM = errors.New("workflow requires an LLM client")

// DefaultApprovals is the approval vocabulary used when Deps.Approvals is
// empty.
var DefaultApprovals = []string{"yes", "y", "ok", "good", "send"}

// DefaultSystemPrompt is the chat system prompt used when
// Deps.SystemPrompt is empty.
const DefaultSystemPrompt = "You are a helpful assistant."

// Deps are the services a workflow is built with.
type Deps struct {
	// LLM generates text. Callers wrap it with timeouts and retries.
	LLM llm.Client
	// Model is sent with every request; empty uses the client's default.
	Model string
	// Approvals are the replies accepted as approval.
	Approvals []string
	// SystemPrompt steers the open chat workflow.
	SystemPrompt string
	// Sender signs outreach emails.
	Sender string
}

// RequireLLM returns ErrNoLLM when no client is configured.
func (d Deps) RequireLLM() error {
	if d.LLM == nil {
		return ErrNoLLM
	}
	return nil
}

// ApprovalWords returns the configured vocabulary or the default.
func (d Deps) ApprovalWords() []string {
	if len(d.Approvals) == 0 {
		return slices.Clone(DefaultApprovals)
	}
	return slices.Clone(d.Approvals)
}

// System returns the chat system prompt or the default.
func (d Deps) System() string {
	if d.SystemPrompt == "" {
		return DefaultSystemPrompt
	}
	return d.SystemPrompt
}

// Complete sends a request with the configured model and returns the
// generated text.
func (d Deps) Complete(ctx context.Context, system string, msgs ...llm.Message) (string, error) {
	resp, err := d.LLM.Complete(ctx, d.Request(system, msgs...))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Request builds a completion request with the configured model.
func (d Deps) Request(system string, msgs ...llm.Message) llm.CompletionRequest {
	return llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     msgs,
		Model:        d.Model,
	}
}
