package llm_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

func blockingClient() llm.Client {
	return llm.ClientFunc(func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func TestWithTimeout(t *testing.T) {
	client := llm.WithTimeout(blockingClient(), 10*time.Millisecond)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})

	var timeout *flowerrors.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 10*time.Millisecond, timeout.After)
	assert.True(t, flowerrors.IsRetryable(err))
}

func TestWithTimeout_CallerCancellation(t *testing.T) {
	client := llm.WithTimeout(blockingClient(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Complete(ctx, llm.CompletionRequest{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, flowerrors.IsRetryable(err))
}

func TestWithTimeout_Passthrough(t *testing.T) {
	mock := llm.NewMockClient("fine")
	assert.Same(t, llm.Client(mock), llm.WithTimeout(mock, 0))

	resp, err := llm.WithTimeout(mock, time.Second).Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fine", resp.Content)
}

func TestWithRetry(t *testing.T) {
	calls := 0
	flaky := llm.ClientFunc(func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
		calls++
		if calls < 3 {
			return nil, llm.NewError("test", "complete", &flowerrors.HTTPError{StatusCode: 503})
		}
		return &llm.CompletionResponse{Content: "third time"}, nil
	})

	cfg := flowerrors.NewRetryConfig(flowerrors.WithMaxAttempts(3), flowerrors.WithInitialBackoff(time.Millisecond))
	resp, err := llm.WithRetry(flaky, cfg).Complete(context.Background(), llm.CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "third time", resp.Content)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_PermanentFailsFast(t *testing.T) {
	mock := llm.NewMockClient("").WithError(&flowerrors.HTTPError{StatusCode: 401, Message: "bad key"})

	cfg := flowerrors.NewRetryConfig(flowerrors.WithMaxAttempts(5), flowerrors.WithInitialBackoff(time.Millisecond))
	_, err := llm.WithRetry(mock, cfg).Complete(context.Background(), llm.CompletionRequest{})

	var httpErr *flowerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithRetry_TimeoutsRetried(t *testing.T) {
	calls := 0
	slowOnce := llm.ClientFunc(func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &llm.CompletionResponse{Content: "ok"}, nil
	})

	cfg := flowerrors.NewRetryConfig(flowerrors.WithMaxAttempts(2), flowerrors.WithInitialBackoff(time.Millisecond))
	client := llm.WithRetry(llm.WithTimeout(slowOnce, 5*time.Millisecond), cfg)

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, calls)
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := llm.WithLogging(llm.NewMockClient("hi"), logger).Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"llm call"`)

	buf.Reset()
	_, err = llm.WithLogging(llm.NewMockClient("").WithError(errors.New("nope")), logger).
		Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"llm call failed"`)
	assert.Contains(t, buf.String(), `"category":"permanent"`)
}
