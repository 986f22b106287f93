// Package tripplanner is a supervised pair of agents. A supervisor reads
// the conversation and hands each trip request to a budget agent, a
// planner agent, or back to the user once the request is answered.
package tripplanner

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	Name        = "tripplanner"
	Description = "Supervisor routing trip requests between a budget agent and a planner agent"
)

// Node IDs. The agent node IDs double as supervisor decisions.
const (
	NodeListen     = "listen"
	NodeSupervisor = "supervisor"
	NodeBudget     = "budget_agent"
	NodePlanner    = "planner_agent"
)

// Finish is the supervisor decision that hands control back to the user.
const Finish = "FINISH"

// MaxAgentSteps caps agent turns per user request.
const MaxAgentSteps = 4

// Greeting is the first prompt.
const Greeting = "Where would you like to go? Tell me the destination, how many days and how many people (type 'quit' to exit)."

const supervisorSystem = `You are a supervisor managing a travel team with these workers:
- budget_agent: calculates trip costs and compares destinations.
- planner_agent: plans day-by-day itineraries and suggests activities.

Given the conversation so far, choose who should act next. Answer with a
JSON object {"next": "<worker>"}. Answer {"next": "FINISH"} once the user's
latest request is fully answered.`

const budgetSystem = "You are a travel budget specialist. Use your tools to estimate and compare trip costs, then summarise the numbers briefly."

const plannerSystem = "You are a travel planner. Use your tools to build itineraries and suggest activities, then present the plan briefly."

// State is the conversation state.
type State struct {
	Messages llm.Transcript `json:"messages"`
	Next     string         `json:"next,omitempty"`
	Steps    int            `json:"steps"`
	Done     bool           `json:"done"`
}

type decision struct {
	Next string `json:"next"`
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	budget, err := llm.NewToolbox(budgetTools...)
	if err != nil {
		return nil, err
	}
	planner, err := llm.NewToolbox(plannerTools...)
	if err != nil {
		return nil, err
	}

	return flowgraph.NewGraph[State]().
		AddNode(NodeListen, listen).
		AddNode(NodeSupervisor, supervise(deps)).
		AddNode(NodeBudget, agent(deps, NodeBudget, budgetSystem, budget)).
		AddNode(NodePlanner, agent(deps, NodePlanner, plannerSystem, planner)).
		AddConditionalEdge(NodeListen, afterListen, NodeSupervisor, flowgraph.END).
		AddConditionalEdge(NodeSupervisor, route, NodeBudget, NodePlanner, NodeListen).
		AddEdge(NodeBudget, NodeSupervisor).
		AddEdge(NodePlanner, NodeSupervisor).
		SetEntry(NodeListen).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	return fmt.Sprintf("Safe travels! (%d trip request(s) handled)", s.Messages.Count(llm.RoleUser))
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
	s.Steps = 0
	s.Next = ""
	return s, nil
}

func afterListen(_ flowgraph.Context, s State) string {
	if s.Done {
		return flowgraph.END
	}
	return NodeSupervisor
}

func supervise(deps workflows.Deps) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		if s.Steps >= MaxAgentSteps {
			ctx.Logger().Warn("agent step limit reached", slog.Int("steps", s.Steps))
			s.Next = Finish
			return s, nil
		}

		d, _, err := llm.Extract[decision](ctx, deps.LLM, deps.Request(supervisorSystem, s.Messages...))
		if err != nil {
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "supervisor", err))
			s.Next = Finish
			return s, nil
		}

		s.Next = normalizeDecision(d.Next)
		if s.Next == "" {
			ctx.Logger().Warn("unknown supervisor decision", slog.String("next", d.Next))
			s.Next = Finish
		}
		return s, nil
	}
}

func normalizeDecision(next string) string {
	next = strings.TrimSpace(next)
	for _, option := range []string{NodeBudget, NodePlanner, Finish} {
		if strings.EqualFold(next, option) {
			return option
		}
	}
	return ""
}

func route(_ flowgraph.Context, s State) string {
	if slices.Contains([]string{NodeBudget, NodePlanner}, s.Next) {
		return s.Next
	}
	return NodeListen
}

func agent(deps workflows.Deps, name, system string, tools *llm.Toolbox) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		s.Steps++
		_, produced, err := llm.RunTools(ctx, deps.LLM, deps.Request(system, s.Messages...), tools, 0)
		s.Messages = s.Messages.Append(produced...)
		if err != nil {
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), name, err))
		}
		return s, nil
	}
}
