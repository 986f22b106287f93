// Package finance is a personal finance assistant. The model answers each
// request with tools that record expenses and budgets in a Ledger the
// caller owns; "quit" ends the conversation.
package finance

import (
	"context"
	"fmt"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	Name        = "finance"
	Description = "Personal finance assistant that tracks expenses and budgets"
)

// Node IDs.
const (
	NodeListen    = "listen"
	NodeAssistant = "assistant"
)

// Greeting is the first prompt.
const Greeting = "Hi! I can track expenses and budgets. Try 'Set food budget to $500' (type 'quit' to exit)."

const systemPrompt = "You are a personal finance assistant. Help track expenses and budgets. " +
	"Use the tools to record and look up data; never make up numbers."

// State is the conversation state. The ledger itself is not part of it.
type State struct {
	Messages llm.Transcript `json:"messages"`
	Done     bool           `json:"done"`
}

type expenseArgs struct {
	Amount      float64 `json:"amount" jsonschema:"Amount spent in dollars."`
	Category    string  `json:"category" jsonschema:"Spending category, for example food."`
	Description string  `json:"description" jsonschema:"What the money was spent on."`
}

type budgetArgs struct {
	Category string  `json:"category" jsonschema:"Spending category."`
	Amount   float64 `json:"amount" jsonschema:"Budget in dollars."`
}

type categoryArgs struct {
	Category string `json:"category" jsonschema:"Spending category."`
}

type noArgs struct{}

// Tools returns the finance tools bound to ledger.
func Tools(ledger *Ledger) (*llm.Toolbox, error) {
	addExpense, err := llm.NewTool("add_expense", "Add an expense to the tracker.",
		func(_ context.Context, a expenseArgs) (string, error) {
			e, err := ledger.AddExpense(a.Amount, a.Category, a.Description)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Added expense: $%.2f for %s in %s category", e.Amount, e.Description, e.Category), nil
		})
	if err != nil {
		return nil, err
	}

	setBudget, err := llm.NewTool("set_budget", "Set budget for a category.",
		func(_ context.Context, a budgetArgs) (string, error) {
			if err := ledger.SetBudget(a.Category, a.Amount); err != nil {
				return "", err
			}
			return fmt.Sprintf("Set budget for %s: $%.2f", a.Category, a.Amount), nil
		})
	if err != nil {
		return nil, err
	}

	remaining, err := llm.NewTool("budget_remaining", "Calculate remaining budget for a category.",
		func(_ context.Context, a categoryArgs) (string, error) {
			budget, spent, left, ok := ledger.Remaining(a.Category)
			if !ok {
				return fmt.Sprintf("No budget set for %s category.", normalize(a.Category)), nil
			}
			return fmt.Sprintf("Budget: $%.2f, Spent: $%.2f, Remaining: $%.2f", budget, spent, left), nil
		})
	if err != nil {
		return nil, err
	}

	summary, err := llm.NewTool("spending_summary", "Get spending summary.",
		func(context.Context, noArgs) (string, error) {
			return ledger.Summary(), nil
		})
	if err != nil {
		return nil, err
	}

	return llm.NewToolbox(addExpense, setBudget, remaining, summary)
}

// Build compiles the graph with a new ledger.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	return BuildWithLedger(deps, NewLedger())
}

// BuildWithLedger compiles the graph around ledger. It requires deps.LLM.
// The ledger lives in memory only; it is not checkpointed with the thread.
func BuildWithLedger(deps workflows.Deps, ledger *Ledger) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	tools, err := Tools(ledger)
	if err != nil {
		return nil, err
	}

	return flowgraph.NewGraph[State]().
		AddNode(NodeListen, listen).
		AddNode(NodeAssistant, assistant(deps, tools)).
		AddConditionalEdge(NodeListen, afterListen, NodeAssistant, flowgraph.END).
		AddEdge(NodeAssistant, NodeListen).
		SetEntry(NodeListen).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	return fmt.Sprintf("Goodbye! Handled %d request(s).", s.Messages.Count(llm.RoleUser))
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
	return NodeAssistant
}

func assistant(deps workflows.Deps, tools *llm.Toolbox) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		_, produced, err := llm.RunTools(ctx, deps.LLM, deps.Request(systemPrompt, s.Messages...), tools, 0)
		// Keep whatever the tools already did, even if the final answer failed.
		s.Messages = s.Messages.Append(produced...)
		if err != nil {
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "finance_assistant", err))
		}
		return s, nil
	}
}
