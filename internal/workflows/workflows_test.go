package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/flowchat/internal/workflows"
	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{" 30 ", 30, false},
		{"0", 0, false},
		{"\t42\n", 42, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"3.5", 0, true},
		{"thirty", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := workflows.ParseAge(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := workflows.ParseAge("-7")
	assert.ErrorIs(t, err, workflows.ErrNegativeAge)
}

func TestIsApproval(t *testing.T) {
	vocab := workflows.DefaultApprovals
	for _, yes := range []string{"yes", "YES", " y ", "Ok", "good", "send\n"} {
		assert.True(t, workflows.IsApproval(yes, vocab), yes)
	}
	for _, no := range []string{"no", "", "yes please", "sure", "nope", "sends"} {
		assert.False(t, workflows.IsApproval(no, vocab), no)
	}

	assert.True(t, workflows.IsApproval("ship it", []string{"Ship It"}))
	assert.False(t, workflows.IsApproval("yes", []string{"ship it"}))
}

func TestIsQuit(t *testing.T) {
	assert.True(t, workflows.IsQuit(" Quit "))
	assert.True(t, workflows.IsQuit("exit"))
	assert.False(t, workflows.IsQuit("quite"))
}

func TestDeps_Defaults(t *testing.T) {
	var d workflows.Deps
	assert.ErrorIs(t, d.RequireLLM(), workflows.ErrNoLLM)
	assert.Equal(t, workflows.DefaultApprovals, d.ApprovalWords())
	assert.Equal(t, workflows.DefaultSystemPrompt, d.System())

	d = workflows.Deps{LLM: llm.NewMockClient("hi"), Approvals: []string{"send it"}, SystemPrompt: "be brief", Model: "m"}
	require.NoError(t, d.RequireLLM())
	assert.Equal(t, []string{"send it"}, d.ApprovalWords())
	assert.Equal(t, "be brief", d.System())

	got, err := d.Complete(context.Background(), "sys", llm.UserMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	req := d.LLM.(*llm.MockClient).LastCall()
	assert.Equal(t, "sys", req.SystemPrompt)
	assert.Equal(t, "m", req.Model)
}

func TestFailureReply(t *testing.T) {
	logger := observability.Discard()

	transient := workflows.FailureReply(context.Background(), logger, "extract", flowerrors.Transient(errors.New("503"), "completion"))
	assert.Equal(t, llm.RoleAssistant, transient.Role)
	assert.Contains(t, transient.Content, "trouble reaching")

	permanent := workflows.FailureReply(context.Background(), logger, "extract", errors.New("bad key"))
	assert.Contains(t, permanent.Content, "something went wrong")
	assert.NotContains(t, permanent.Content, "bad key")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	canceled := workflows.FailureReply(ctx, logger, "extract", ctx.Err())
	assert.Contains(t, canceled.Content, "stopped")
}

func TestPendingReply(t *testing.T) {
	var tr llm.Transcript
	assert.Equal(t, "fallback", workflows.PendingReply(tr, "fallback"))

	tr = tr.Append(
		llm.AssistantMessage("old"),
		llm.UserMessage("hi"),
		llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "1", Name: "x"}}},
		llm.ToolResultMessage("1", "x", "done"),
		llm.AssistantMessage("first"),
		llm.AssistantMessage("second"),
	)
	assert.Equal(t, "first\n\nsecond", workflows.PendingReply(tr, "fallback"))

	tr = tr.Append(llm.UserMessage("next"))
	assert.Equal(t, "fallback", workflows.PendingReply(tr, "fallback"))
}
