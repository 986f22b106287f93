package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests.
//
// Responses are returned in order and cycle when exhausted. WithError makes
// every call fail; WithCompleteFunc replaces the script entirely.
type MockClient struct {
	mu        sync.Mutex
	responses []*CompletionResponse
	index     int
	err       error
	fn        func(context.Context, CompletionRequest) (*CompletionResponse, error)

	// Calls records every request in order.
	Calls []CompletionRequest
}

// NewMockClient returns a mock that always answers content.
func NewMockClient(content string) *MockClient {
	return &MockClient{responses: []*CompletionResponse{textResponse(content)}}
}

// WithResponses scripts plain text answers.
func (m *MockClient) WithResponses(contents ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = m.responses[:0]
	for _, c := range contents {
		m.responses = append(m.responses, textResponse(c))
	}
	m.index = 0
	return m
}

// WithReplies scripts full responses, for example tool calls.
func (m *MockClient) WithReplies(replies ...*CompletionResponse) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses[:0], replies...)
	m.index = 0
	return m
}

// WithError makes every call return err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithCompleteFunc answers every call with fn.
func (m *MockClient) WithCompleteFunc(fn func(context.Context, CompletionRequest) (*CompletionResponse, error)) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	fn, err := m.fn, m.err
	var resp *CompletionResponse
	if fn == nil && err == nil && len(m.responses) > 0 {
		resp = m.responses[m.index%len(m.responses)]
		m.index++
	}
	m.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if resp == nil {
		return textResponse(""), nil
	}

	out := *resp
	out.Usage = estimateUsage(req, out.Content)
	return &out, nil
}

// CallCount returns the number of calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or nil.
func (m *MockClient) LastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	last := m.Calls[len(m.Calls)-1]
	return &last
}

// Reset clears recorded calls and rewinds the script.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.index = 0
}

func textResponse(content string) *CompletionResponse {
	return &CompletionResponse{Content: content, Model: "mock", FinishReason: "stop"}
}

// estimateUsage approximates four characters per token.
func estimateUsage(req CompletionRequest, output string) TokenUsage {
	in := len(req.SystemPrompt)
	for _, msg := range req.Messages {
		in += len(msg.Content)
	}
	u := TokenUsage{InputTokens: in/4 + 1, OutputTokens: len(output)/4 + 1}
	u.TotalTokens = u.InputTokens + u.OutputTokens
	return u
}
