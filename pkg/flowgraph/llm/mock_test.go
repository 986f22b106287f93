package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ask(t *testing.T, c llm.Client, text string) string {
	t.Helper()
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.Message{llm.UserMessage(text)}})
	require.NoError(t, err)
	return resp.Content
}

func TestMockClient_ScriptCycles(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("first", "second")

	got := []string{ask(t, mock, "a"), ask(t, mock, "b"), ask(t, mock, "c")}
	assert.Equal(t, []string{"first", "second", "first"}, got)

	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "c", mock.LastCall().Messages[0].Content)
	assert.Equal(t, "a", mock.Calls[0].Messages[0].Content)

	mock.Reset()
	assert.Nil(t, mock.LastCall())
	assert.Equal(t, "first", ask(t, mock, "again"))
}

func TestMockClient_FixedResponseHasUsage(t *testing.T) {
	resp, err := llm.NewMockClient("Hello, world!").Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "be nice",
		Messages:     []llm.Message{llm.UserMessage("Hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Positive(t, resp.Usage.OutputTokens)
}

func TestMockClient_Errors(t *testing.T) {
	boom := errors.New("boom")
	mock := llm.NewMockClient("unused").WithError(boom)
	_, err := mock.Complete(context.Background(), llm.CompletionRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount(), "failed calls are still recorded")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = llm.NewMockClient("x").Complete(ctx, llm.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockClient_CompleteFunc(t *testing.T) {
	mock := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "Echo: " + req.Messages[0].Content}, nil
	})
	assert.Equal(t, "Echo: test", ask(t, mock, "test"))
}

func TestMockClient_Replies(t *testing.T) {
	mock := llm.NewMockClient("").WithReplies(
		&llm.CompletionResponse{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "lookup"}}, FinishReason: "tool_calls"},
		&llm.CompletionResponse{Content: "done", FinishReason: "stop"},
	)

	resp, err := mock.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "lookup", resp.Message().ToolCalls[0].Name)

	assert.Equal(t, "done", ask(t, mock, "next"))
}
