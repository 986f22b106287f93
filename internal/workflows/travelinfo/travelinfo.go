// Package travelinfo is a tool-calling agent that collects a traveller's
// name, destination and departure date. When it has all three it calls
// save_user_info; until then each of its questions suspends the thread for
// the user's reply.
package travelinfo

import (
	"context"
	"fmt"
	"strings"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

const (
	Name        = "travelinfo"
	Description = "Travel assistant that collects trip details and saves them with a tool"
)

// Node IDs.
const (
	NodeAgent  = "agent"
	NodeAction = "action"
	NodeListen = "listen"
)

// ToolSaveUserInfo is the name of the save tool.
const ToolSaveUserInfo = "save_user_info"

const systemPrompt = `You are a helpful travel assistant. Your goal is to collect the user's full name, their destination city, and their desired departure date for a flight.

Ask questions to the user to get this information. Be friendly and conversational. Ask one question at a time.

Once you have all three pieces of information (full name, destination, departure date), you MUST call the ` + "`" + ToolSaveUserInfo + "`" + ` tool with the collected information.

Do not ask for any other information. After calling the tool, tell the user that the information has been saved and conclude the conversation.`

// TravelInfo is what the agent saves.
type TravelInfo struct {
	Name          string `json:"name" jsonschema:"The user's full name."`
	Destination   string `json:"destination" jsonschema:"The city the user wants to travel to."`
	DepartureDate string `json:"departure_date" jsonschema:"The desired date of departure."`
}

func (t TravelInfo) missing() []string {
	var out []string
	if strings.TrimSpace(t.Name) == "" {
		out = append(out, "full name")
	}
	if strings.TrimSpace(t.Destination) == "" {
		out = append(out, "destination")
	}
	if strings.TrimSpace(t.DepartureDate) == "" {
		out = append(out, "departure date")
	}
	return out
}

// State is the conversation state.
type State struct {
	Messages llm.Transcript `json:"messages"`
	Saved    *TravelInfo    `json:"saved,omitempty"`
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	// Definitions only; the handler that records into state is bound per call.
	defs, err := toolbox(new(TravelInfo))
	if err != nil {
		return nil, err
	}

	return flowgraph.NewGraph[State]().
		AddNode(NodeAgent, runAgent(deps, defs.Definitions())).
		AddNode(NodeAction, runTools).
		AddNode(NodeListen, listen).
		AddConditionalEdge(NodeAgent, checkForToolCalls, NodeAction, NodeListen, flowgraph.END).
		AddEdge(NodeAction, NodeAgent).
		AddEdge(NodeListen, NodeAgent).
		SetEntry(NodeAgent).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	if s.Saved == nil {
		return "No travel information saved."
	}
	saved := fmt.Sprintf("Saved: %s travelling to %s on %s.", s.Saved.Name, s.Saved.Destination, s.Saved.DepartureDate)
	if reply := workflows.PendingReply(s.Messages, ""); reply != "" {
		return reply + "\n\n" + saved
	}
	return saved
}

// toolbox binds save_user_info to record into dst.
func toolbox(dst *TravelInfo) (*llm.Toolbox, error) {
	save, err := llm.NewTool(ToolSaveUserInfo, "Saves the user's travel information.",
		func(_ context.Context, info TravelInfo) (string, error) {
			if missing := info.missing(); len(missing) > 0 {
				return "", &flowerrors.HumanInterventionError{
					Question: "What is the traveller's " + strings.Join(missing, " and ") + "?",
				}
			}
			*dst = info
			return fmt.Sprintf("OK! I have saved the following information: Name: %s, Destination: %s, Departure Date: %s.",
				info.Name, info.Destination, info.DepartureDate), nil
		})
	if err != nil {
		return nil, err
	}
	return llm.NewToolbox(save)
}

func runAgent(deps workflows.Deps, tools []llm.Tool) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		req := deps.Request(systemPrompt, s.Messages...)
		req.Tools = tools

		resp, err := deps.LLM.Complete(ctx, req)
		if err != nil {
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "travel_agent", err))
			return s, nil
		}
		s.Messages = s.Messages.Append(resp.Message())
		return s, nil
	}
}

func runTools(ctx flowgraph.Context, s State) (State, error) {
	last, _ := s.Messages.Last()

	var saved TravelInfo
	tb, err := toolbox(&saved)
	if err != nil {
		return s, err
	}
	s.Messages = s.Messages.Append(tb.Run(ctx, last.ToolCalls)...)
	if saved.Name != "" {
		s.Saved = &saved
	}
	return s, nil
}

func checkForToolCalls(_ flowgraph.Context, s State) string {
	last, ok := s.Messages.Last()
	switch {
	case ok && len(last.ToolCalls) > 0:
		return NodeAction
	case s.Saved != nil:
		return flowgraph.END
	default:
		return NodeListen
	}
}

func listen(ctx flowgraph.Context, s State) (State, error) {
	answer, err := flowgraph.Interrupt(ctx, workflows.PendingReply(s.Messages, "Hello! Where would you like to travel?"))
	if err != nil {
		return s, err
	}
	s.Messages = s.Messages.Append(llm.UserMessage(answer))
	return s, nil
}
