// Package age collects a human's age. A single node loops on an interrupt
// until it gets a non-negative integer, then reports it. No model is used.
package age

import (
	"fmt"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
)

// Name is the catalog name.
const Name = "age"

// Description is shown by the catalog.
const Description = "Ask for an age until the answer is a non-negative integer"

// Node IDs.
const (
	NodeGetValidAge = "get_valid_age"
	NodeReportAge   = "report_age"
)

// FirstPrompt is the first question asked.
const FirstPrompt = "Please enter your age:"

// State is the conversation state.
type State struct {
	Age    int    `json:"age"`
	Valid  bool   `json:"valid"`
	Report string `json:"report,omitempty"`
}

// Build compiles the graph. deps is unused.
func Build(_ workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	return flowgraph.NewGraph[State]().
		AddNode(NodeGetValidAge, getValidAge).
		AddNode(NodeReportAge, reportAge).
		AddEdge(NodeGetValidAge, NodeReportAge).
		AddEdge(NodeReportAge, flowgraph.END).
		SetEntry(NodeGetValidAge).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	if s.Report != "" {
		return s.Report
	}
	return "No age collected."
}

func getValidAge(ctx flowgraph.Context, s State) (State, error) {
	prompt := FirstPrompt
	for {
		answer, err := flowgraph.Interrupt(ctx, prompt)
		if err != nil {
			return s, err
		}
		n, err := workflows.ParseAge(answer)
		if err == nil {
			s.Age, s.Valid = n, true
			return s, nil
		}
		ctx.Logger().Debug("rejected age", "input", answer, "reason", err)
		prompt = workflows.InvalidAgePrompt(answer)
	}
}

func reportAge(_ flowgraph.Context, s State) (State, error) {
	s.Report = fmt.Sprintf("Human is %d years old.", s.Age)
	return s, nil
}
