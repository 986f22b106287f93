// Package agecheck collects an age with help from a model. The user may
// answer in free text ("I turned 30 last week"); the model extracts the
// number and the graph loops back with an explanation when it cannot.
package agecheck

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/prompt"
)

const (
	Name        = "agecheck"
	Description = "Ask for an age in free text and let the model extract it"
)

// Node IDs.
const (
	NodeAskForInput   = "ask_for_input"
	NodeValidateInput = "validate_input"
)

// FirstPrompt is the prompt used until validation fails.
const FirstPrompt = "Please enter your age:"

var (
	extractPrompt = prompt.New("extract_age",
		"Extract the age from the following text: ${input}\n"+
			"Reply with the age as digits only, or NONE if there is no age.")

	rejectPrompt = prompt.New("reject_age",
		"'${input}' is not valid. Please enter a non-negative integer for age. (The model read: ${extracted})")
)

// State is the conversation state.
type State struct {
	Age             int    `json:"age"`
	Prompt          string `json:"prompt,omitempty"`
	UserInput       string `json:"user_input,omitempty"`
	Extracted       string `json:"extracted,omitempty"`
	ValidationError string `json:"validation_error,omitempty"`
	Attempts        int    `json:"attempts"`
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	return flowgraph.NewGraph[State]().
		AddNode(NodeAskForInput, askForInput).
		AddNode(NodeValidateInput, validateInput(deps)).
		AddEdge(NodeAskForInput, NodeValidateInput).
		AddConditionalEdge(NodeValidateInput, shouldContinue, NodeAskForInput, flowgraph.END).
		SetEntry(NodeAskForInput).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	return fmt.Sprintf("Final age: %d (after %d attempt(s)).", s.Age, s.Attempts)
}

func askForInput(ctx flowgraph.Context, s State) (State, error) {
	p := s.Prompt
	if p == "" {
		p = FirstPrompt
	}
	answer, err := flowgraph.Interrupt(ctx, p)
	if err != nil {
		return s, err
	}
	s.UserInput = answer
	s.Attempts++
	return s, nil
}

func validateInput(deps workflows.Deps) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		vars := map[string]any{"input": s.UserInput}

		reply, err := deps.Complete(ctx, "", llm.UserMessage(extractPrompt.MustRender(vars)))
		if err != nil {
			msg := workflows.FailureReply(ctx, ctx.Logger(), "extract_age", err)
			s.ValidationError = msg.Content
			s.Prompt = msg.Content + "\n\n" + FirstPrompt
			return s, nil
		}

		s.Extracted = strings.TrimSpace(reply)
		age, err := workflows.ParseAge(s.Extracted)
		if err != nil {
			vars["extracted"] = s.Extracted
			s.ValidationError = rejectPrompt.MustRender(vars)
			s.Prompt = s.ValidationError
			return s, nil
		}

		s.Age = age
		s.ValidationError = ""
		return s, nil
	}
}

func shouldContinue(_ flowgraph.Context, s State) string {
	if s.ValidationError != "" {
		return NodeAskForInput
	}
	return flowgraph.END
}
