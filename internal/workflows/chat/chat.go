// Package chat is an open conversation with the model. Each user line is
// answered with the configured system prompt; "quit" or "exit" ends it.
package chat

import (
	"fmt"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	Name        = "chat"
	Description = "Open chat with the model; type quit to leave"
)

// Node IDs.
const (
	NodeListen = "listen"
	NodeReply  = "reply"
)

// Greeting is the first prompt.
const Greeting = "Hi! Ask me anything (type 'quit' to exit)."

// State is the conversation state.
type State struct {
	Messages llm.Transcript `json:"messages"`
	Done     bool           `json:"done"`
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	return flowgraph.NewGraph[State]().
		AddNode(NodeListen, listen).
		AddNode(NodeReply, reply(deps)).
		AddConditionalEdge(NodeListen, afterListen, NodeReply, flowgraph.END).
		AddEdge(NodeReply, NodeListen).
		SetEntry(NodeListen).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	return fmt.Sprintf("Goodbye! (%d messages exchanged)", s.Messages.Count(llm.RoleUser)+s.Messages.Count(llm.RoleAssistant))
}

func listen(ctx flowgraph.Context, s State) (State, error) {
	line, err := flowgraph.Interrupt(ctx, workflows.PendingReply(s.Messages, Greeting))
	if err != nil {
		return s, err
	}
	if workflows.IsQuit(line) {
		s.Done = true
		return s, nil
	}
	s.Messages = s.Messages.Append(llm.UserMessage(line))
	return s, nil
}

func afterListen(_ flowgraph.Context, s State) string {
	if s.Done {
		return flowgraph.END
	}
	return NodeReply
}

func reply(deps workflows.Deps) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		text, err := deps.Complete(ctx, deps.System(), s.Messages...)
		if err != nil {
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "chat_reply", err))
			return s, nil
		}
		s.Messages = s.Messages.Append(llm.AssistantMessage(text))
		return s, nil
	}
}
