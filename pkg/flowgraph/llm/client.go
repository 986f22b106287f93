// Package llm is the boundary between conversation nodes and
// text-generation services.
//
// Nodes depend only on Client. Providers (OpenAI, LangChain) adapt a vendor
// SDK to it, middleware adds per-call timeouts and retries, and MockClient
// scripts responses for tests:
//
//	client := llm.WithRetry(
//	    llm.WithTimeout(llm.NewOpenAI(key, llm.WithOpenAIModel("gpt-4o-mini")), 30*time.Second),
//	    flowerrors.DefaultRetry,
//	)
//	resp, err := client.Complete(ctx, llm.CompletionRequest{
//	    SystemPrompt: "Extract the user's age.",
//	    Messages:     []llm.Message{llm.UserMessage("I'm 35")},
//	})
package llm

import "context"

// Client generates one assistant message from an ordered conversation.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}
