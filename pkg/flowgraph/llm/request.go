package llm

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// CompletionRequest configures an LLM completion call.
type CompletionRequest struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`

	// Model overrides the client's default model.
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`

	Tools []Tool `json:"tools,omitempty"`
}

// Message is a conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the tool name on tool results.
	Name string `json:"name,omitempty"`

	// ToolCalls is set on assistant messages that request tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool result to its call.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Role identifies the message sender.
type Role string

// Standard message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// UserMessage returns a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SystemMessage returns a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ToolResultMessage returns the result of tool call id.
func ToolResultMessage(id, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: id, Name: name, Content: content}
}

// Tool defines an available tool for the LLM.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// CompletionResponse is the output of a completion call.
type CompletionResponse struct {
	Content      string        `json:"content"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	Usage        TokenUsage    `json:"usage"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
	Duration     time.Duration `json:"duration"`
}

// Message returns the response as an assistant turn, tool calls included.
func (r *CompletionResponse) Message() Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: slices.Clone(r.ToolCalls)}
}

// ToolCall represents a tool invocation request from the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// Transcript is an append-only, ordered list of turns. It serializes as a
// JSON array so it can live in checkpointed state.
type Transcript []Message

// Append returns t with msgs added. The receiver's backing array is never
// written, so earlier copies of a transcript are unaffected.
func (t Transcript) Append(msgs ...Message) Transcript {
	return append(slices.Clip(t), msgs...)
}

// Last returns the final turn.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// LastOf returns the final turn with the given role.
func (t Transcript) LastOf(role Role) (Message, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == role {
			return t[i], true
		}
	}
	return Message{}, false
}

// Count returns the number of turns with the given role.
func (t Transcript) Count(role Role) int {
	n := 0
	for _, m := range t {
		if m.Role == role {
			n++
		}
	}
	return n
}

// String renders "role: content" lines, skipping tool plumbing.
func (t Transcript) String() string {
	var b strings.Builder
	for _, m := range t {
		if m.Role == RoleTool || (m.Content == "" && len(m.ToolCalls) > 0) {
			continue
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
