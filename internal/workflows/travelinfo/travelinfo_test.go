package travelinfo_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/internal/workflows/travelinfo"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/driver"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) *llm.CompletionResponse {
	return &llm.CompletionResponse{Content: s}
}

func saveCall(id, args string) *llm.CompletionResponse {
	return &llm.CompletionResponse{ToolCalls: []llm.ToolCall{{
		ID: id, Name: travelinfo.ToolSaveUserInfo, Arguments: json.RawMessage(args),
	}}}
}

func run(t *testing.T, client llm.Client, answers ...string) (driver.Outcome[travelinfo.State], *driver.Script) {
	t.Helper()
	graph, err := travelinfo.Build(workflows.Deps{LLM: client})
	require.NoError(t, err)

	store := checkpoint.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	in := driver.NewScript(answers...)
	out, err := driver.New(graph, store, driver.WithLogger(observability.Discard())).
		Start(context.Background(), travelinfo.State{}, in)
	require.NoError(t, err)
	return out, in
}

func TestTravelInfo_CollectsAndSaves(t *testing.T) {
	client := llm.NewMockClient("").WithReplies(
		text("Hi! What's your full name?"),
		text("Thanks Ada! Where are you flying, and when?"),
		saveCall("call_1", `{"name": "Ada Lovelace", "destination": "Paris", "departure_date": "2026-11-02"}`),
		text("All saved. Have a wonderful trip!"),
	)

	out, in := run(t, client, "Ada Lovelace", "Paris on 2026-11-02")

	assert.True(t, out.Done())
	require.NotNil(t, out.State.Saved)
	assert.Equal(t, travelinfo.TravelInfo{Name: "Ada Lovelace", Destination: "Paris", DepartureDate: "2026-11-02"}, *out.State.Saved)
	assert.Equal(t, []string{"Hi! What's your full name?", "Thanks Ada! Where are you flying, and when?"}, in.Prompts())
	assert.Equal(t, "All saved. Have a wonderful trip!\n\nSaved: Ada Lovelace travelling to Paris on 2026-11-02.",
		travelinfo.Summary(out.State))

	// The tool result reached the model with the call ID.
	require.Equal(t, 4, client.CallCount())
	final := client.LastCall()
	require.NotEmpty(t, final.Messages)
	toolMsg := final.Messages[len(final.Messages)-1]
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "OK! I have saved")

	require.Len(t, final.Tools, 1)
	assert.Equal(t, travelinfo.ToolSaveUserInfo, final.Tools[0].Name)
	assert.Contains(t, string(final.Tools[0].Parameters), "departure_date")
}

func TestTravelInfo_IncompleteToolCallIsReportedToModel(t *testing.T) {
	client := llm.NewMockClient("").WithReplies(
		saveCall("call_1", `{"name": "Ada"}`),
		text("Sorry, where are you headed?"),
	)

	out, in := run(t, client)

	assert.False(t, out.Done())
	assert.Nil(t, out.State.Saved)
	assert.Equal(t, []string{"Sorry, where are you headed?"}, in.Prompts())

	var toolResult llm.Message
	for _, m := range out.State.Messages {
		if m.Role == llm.RoleTool {
			toolResult = m
		}
	}
	assert.Equal(t, "needs user input: ask the user: What is the traveller's destination and departure date?", toolResult.Content)
	assert.Equal(t, "No travel information saved.", travelinfo.Summary(out.State))
}
