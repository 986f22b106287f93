// Package agecoach collects an age and, when the answer is not a
// non-negative integer, has the model explain the problem. The
// explanation becomes the next prompt and both sides of the exchange are
// kept in the transcript.
package agecoach

import (
	"fmt"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	Name        = "agecoach"
	Description = "Collect an age; the model explains invalid answers"
)

// Node IDs.
const (
	NodeAskAge    = "ask_age"
	NodeCheckAge  = "check_age"
	NodeReportAge = "report_age"
)

// FirstPrompt is the first question asked.
const FirstPrompt = "Please enter your age:"

const explainSystem = "You are a helpful assistant. The user was asked to enter their age as a " +
	"non-negative integer, but they entered an invalid value. Kindly explain to the user why " +
	"their input is not valid, then ask for their age again."

// State is the conversation state.
type State struct {
	Age      int            `json:"age"`
	Valid    bool           `json:"valid"`
	Prompt   string         `json:"prompt,omitempty"`
	Messages llm.Transcript `json:"messages"`
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	return flowgraph.NewGraph[State]().
		AddNode(NodeAskAge, askAge).
		AddNode(NodeCheckAge, checkAge(deps)).
		AddNode(NodeReportAge, reportAge).
		AddEdge(NodeAskAge, NodeCheckAge).
		AddConditionalEdge(NodeCheckAge, routeAge, NodeAskAge, NodeReportAge).
		AddEdge(NodeReportAge, flowgraph.END).
		SetEntry(NodeAskAge).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	if last, ok := s.Messages.LastOf(llm.RoleAssistant); ok && s.Valid {
		return last.Content
	}
	return "No age collected."
}

func askAge(ctx flowgraph.Context, s State) (State, error) {
	p := s.Prompt
	if p == "" {
		p = FirstPrompt
	}
	answer, err := flowgraph.Interrupt(ctx, p)
	if err != nil {
		return s, err
	}
	s.Messages = s.Messages.Append(llm.UserMessage(answer))
	return s, nil
}

func checkAge(deps workflows.Deps) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		last, _ := s.Messages.LastOf(llm.RoleUser)
		if age, err := workflows.ParseAge(last.Content); err == nil {
			s.Age, s.Valid = age, true
			return s, nil
		}

		s.Valid = false
		explanation, err := deps.Complete(ctx, explainSystem,
			llm.UserMessage(fmt.Sprintf("The user entered: '%s'.", last.Content)))
		if err != nil {
			// The plain re-prompt still tells the user what is wrong.
			ctx.Logger().Warn("explain invalid age failed", "error", err)
		}
		if err != nil || explanation == "" {
			explanation = workflows.InvalidAgePrompt(last.Content)
		}
		reply := llm.AssistantMessage(explanation)
		s.Messages = s.Messages.Append(reply)
		s.Prompt = reply.Content
		return s, nil
	}
}

func routeAge(_ flowgraph.Context, s State) string {
	if s.Valid {
		return NodeReportAge
	}
	return NodeAskAge
}

func reportAge(_ flowgraph.Context, s State) (State, error) {
	s.Messages = s.Messages.Append(llm.AssistantMessage(fmt.Sprintf("Human is %d years old.", s.Age)))
	return s, nil
}
