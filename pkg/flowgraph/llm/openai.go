package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
)

// DefaultOpenAIModel is used when neither the client nor the request names
// a model.
const DefaultOpenAIModel = "gpt-4o-mini"

var _ Client = (*OpenAI)(nil)

// OpenAI implements Client with the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// OpenAIOption configures NewOpenAI.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	model   string
	reqOpts []option.RequestOption
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = model }
}

// WithOpenAIBaseURL points the client at a compatible endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.reqOpts = append(c.reqOpts, option.WithBaseURL(url)) }
}

// WithOpenAIHTTPClient sets the HTTP client.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIConfig) { c.reqOpts = append(c.reqOpts, option.WithHTTPClient(hc)) }
}

// NewOpenAI creates an OpenAI client. The SDK's own retries are disabled;
// wrap the client with WithRetry instead.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	cfg := openAIConfig{model: DefaultOpenAIModel}
	for _, opt := range opts {
		opt(&cfg)
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, cfg.reqOpts...)

	return &OpenAI{client: openai.NewClient(reqOpts...), model: cfg.model}
}

// Complete implements Client.
func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	params, err := o.params(req)
	if err != nil {
		return nil, NewError("openai", "complete", err)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, NewError("openai", "complete", convertOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return nil, NewError("openai", "complete", errors.New("no choices"))
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, NewError("openai", "complete", &flowerrors.ValidationError{Message: "refused: " + choice.Message.Refusal})
	}

	out := &CompletionResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Duration:     time.Since(start),
		Usage: TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

func (o *OpenAI) params(req CompletionRequest) (openai.ChatCompletionNewParams, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := openai.ChatCompletionNewParams{Model: model}
	if req.SystemPrompt != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		mp, err := openAIMessage(msg)
		if err != nil {
			return params, err
		}
		params.Messages = append(params.Messages, mp)
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	for _, tool := range req.Tools {
		var schema openai.FunctionParameters
		if len(tool.Parameters) > 0 {
			if err := json.Unmarshal(tool.Parameters, &schema); err != nil {
				return params, fmt.Errorf("tool %s schema: %w", tool.Name, err)
			}
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: param.NewOpt(tool.Description),
				Parameters:  schema,
			},
		})
	}
	return params, nil
}

func openAIMessage(msg Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case RoleUser:
		return openai.UserMessage(msg.Content), nil
	case RoleTool:
		return openai.ToolMessage(msg.Content, msg.ToolCallID), nil
	case RoleAssistant:
		if len(msg.ToolCalls) == 0 {
			return openai.AssistantMessage(msg.Content), nil
		}
		am := openai.ChatCompletionAssistantMessageParam{}
		if msg.Content != "" {
			am.Content.OfString = param.NewOpt(msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &am}, nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role %q", msg.Role)
	}
}

// convertOpenAIError maps API errors onto HTTPError so they categorize.
func convertOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &flowerrors.HTTPError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			Endpoint:   "chat/completions",
		}
	}
	return err
}
