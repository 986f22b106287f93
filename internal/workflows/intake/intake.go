// Package intake collects a project's title and budget. Missing fields are
// asked for with predefined questions; the model fills a structured form
// from the whole conversation and only empty fields are ever filled.
package intake

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	Name        = "intake"
	Description = "Collect a project title and budget with structured extraction"
)

// Node IDs.
const (
	NodeAskQuestions = "ask_questions"
	NodeCollectInfo  = "collect_info"
	NodeExtractInfo  = "extract_info"
	NodeComplete     = "complete"
)

// Questions for missing fields.
const (
	QuestionBudget = "What is your budget for this project?"
	QuestionTitle  = "What is the title/name of your project?"
)

const extractSystem = "You fill in a project intake form from a conversation. " +
	"Only use information the user stated. Leave a field empty if it was not mentioned."

// CustomerInfo is the form the model fills.
type CustomerInfo struct {
	Budget       string `json:"budget,omitempty" jsonschema:"The budget for the project. If not mentioned, leave this field empty."`
	ProjectTitle string `json:"project_title,omitempty" jsonschema:"The title of the project. If not mentioned, leave this field empty."`
}

// State is the conversation state.
type State struct {
	Messages     llm.Transcript `json:"messages"`
	Budget       string         `json:"budget,omitempty"`
	ProjectTitle string         `json:"project_title,omitempty"`
	Interactions int            `json:"interaction_count"`
}

// Complete reports whether every field is collected.
func (s State) Complete() bool {
	return strings.TrimSpace(s.Budget) != "" && strings.TrimSpace(s.ProjectTitle) != ""
}

// Missing lists the fields still needed.
func (s State) Missing() []string {
	var missing []string
	if strings.TrimSpace(s.Budget) == "" {
		missing = append(missing, "budget")
	}
	if strings.TrimSpace(s.ProjectTitle) == "" {
		missing = append(missing, "project title")
	}
	return missing
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	return flowgraph.NewGraph[State]().
		AddNode(NodeAskQuestions, askQuestions).
		AddNode(NodeCollectInfo, collectInfo).
		AddNode(NodeExtractInfo, extractInfo(deps)).
		AddNode(NodeComplete, complete).
		AddEdge(NodeAskQuestions, NodeCollectInfo).
		AddEdge(NodeCollectInfo, NodeExtractInfo).
		AddConditionalEdge(NodeExtractInfo, checkAndRoute, NodeAskQuestions, NodeComplete).
		AddEdge(NodeComplete, flowgraph.END).
		SetEntry(NodeAskQuestions).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	if last, ok := s.Messages.LastOf(llm.RoleAssistant); ok && s.Complete() {
		return last.Content
	}
	return "Missing: " + strings.Join(s.Missing(), ", ")
}

func askQuestions(ctx flowgraph.Context, s State) (State, error) {
	s.Interactions++

	var questions []string
	if strings.TrimSpace(s.Budget) == "" {
		questions = append(questions, QuestionBudget)
	}
	if strings.TrimSpace(s.ProjectTitle) == "" {
		questions = append(questions, QuestionTitle)
	}

	var b strings.Builder
	if s.Interactions == 1 {
		b.WriteString("Hello! I need to collect some information about your project.\n")
	} else {
		b.WriteString("I still need some additional information.\n")
	}
	for i, q := range questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q)
	}

	ctx.Logger().Debug("asking questions", "missing", s.Missing(), "interaction", s.Interactions)
	s.Messages = s.Messages.Append(llm.AssistantMessage(b.String()))
	return s, nil
}

func collectInfo(ctx flowgraph.Context, s State) (State, error) {
	answer, err := flowgraph.Interrupt(ctx, workflows.PendingReply(s.Messages, "Tell me about your project."))
	if err != nil {
		return s, err
	}
	s.Messages = s.Messages.Append(llm.UserMessage(answer))
	return s, nil
}

func extractInfo(deps workflows.Deps) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		info, _, err := llm.Extract[CustomerInfo](ctx, deps.LLM, deps.Request(extractSystem, s.Messages...))
		if err != nil {
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "extract_info", err))
			return s, nil
		}

		// Only fill fields that are still empty.
		if s.Budget == "" && strings.TrimSpace(info.Budget) != "" {
			s.Budget = strings.TrimSpace(info.Budget)
			ctx.Logger().Info("extracted budget", "budget", s.Budget)
		}
		if s.ProjectTitle == "" && strings.TrimSpace(info.ProjectTitle) != "" {
			s.ProjectTitle = strings.TrimSpace(info.ProjectTitle)
			ctx.Logger().Info("extracted project title", "title", s.ProjectTitle)
		}
		return s, nil
	}
}

func checkAndRoute(_ flowgraph.Context, s State) string {
	if s.Complete() {
		return NodeComplete
	}
	return NodeAskQuestions
}

func complete(_ flowgraph.Context, s State) (State, error) {
	summary := fmt.Sprintf("Thank you! I've collected all the required information:\n\n"+
		"Project Title: %s\nBudget: %s\n\nWe can now proceed with your project!", s.ProjectTitle, s.Budget)
	s.Messages = s.Messages.Append(llm.AssistantMessage(summary))
	return s, nil
}
