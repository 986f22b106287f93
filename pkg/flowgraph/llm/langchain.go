package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

var _ Client = (*LangChain)(nil)

// LangChain implements Client over any langchaingo model, which gives
// access to every provider langchaingo supports.
type LangChain struct {
	model    llms.Model
	defaults []llms.CallOption
}

// NewLangChain wraps model. defaults apply to every call before
// request-specific options.
func NewLangChain(model llms.Model, defaults ...llms.CallOption) *LangChain {
	return &LangChain{model: model, defaults: defaults}
}

// NewLangChainOpenAI builds a LangChain client backed by langchaingo's
// OpenAI model. baseURL may be empty.
func NewLangChainOpenAI(apiKey, model, baseURL string) (*LangChain, error) {
	opts := []lcopenai.Option{lcopenai.WithToken(apiKey)}
	if model != "" {
		opts = append(opts, lcopenai.WithModel(model))
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	m, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain openai: %w", err)
	}
	return NewLangChain(m), nil
}

// Complete implements Client.
func (l *LangChain) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	messages, err := langChainMessages(req)
	if err != nil {
		return nil, NewError("langchain", "complete", err)
	}

	resp, err := l.model.GenerateContent(ctx, messages, l.callOptions(req)...)
	if err != nil {
		return nil, NewError("langchain", "complete", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, NewError("langchain", "complete", errors.New("no choices"))
	}

	choice := resp.Choices[0]
	out := &CompletionResponse{
		Content:      choice.Content,
		FinishReason: choice.StopReason,
		Model:        req.Model,
		Duration:     time.Since(start),
		Usage: TokenUsage{
			InputTokens:  intInfo(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
			TotalTokens:  intInfo(choice.GenerationInfo, "TotalTokens"),
		},
	}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: json.RawMessage(tc.FunctionCall.Arguments),
		})
	}
	return out, nil
}

func (l *LangChain) callOptions(req CompletionRequest) []llms.CallOption {
	opts := append([]llms.CallOption(nil), l.defaults...)
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			var schema any
			if len(t.Parameters) > 0 {
				schema = t.Parameters
			}
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  schema,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
	}
	return opts
}

func langChainMessages(req CompletionRequest) ([]llms.MessageContent, error) {
	var out []llms.MessageContent
	if req.SystemPrompt != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, mc)
		case RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		default:
			return nil, fmt.Errorf("unsupported role %q", msg.Role)
		}
	}
	return out, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
