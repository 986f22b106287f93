package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaFor returns the JSON Schema of T.
func SchemaFor[T any]() (json.RawMessage, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for %T: %w", *new(T), err)
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Extract asks the model to answer req with a JSON object matching T's
// schema and decodes the answer with DecodeJSON. The schema instruction is
// appended to req.SystemPrompt.
func Extract[T any](ctx context.Context, client Client, req CompletionRequest) (T, *CompletionResponse, error) {
	var out T
	schema, err := SchemaFor[T]()
	if err != nil {
		return out, nil, err
	}

	instruction := "Respond only with a JSON object that matches this JSON Schema:\n" + string(schema)
	if req.SystemPrompt != "" {
		req.SystemPrompt += "\n\n" + instruction
	} else {
		req.SystemPrompt = instruction
	}

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return out, nil, err
	}
	if err := DecodeJSON(resp.Content, &out); err != nil {
		return out, resp, err
	}
	return out, resp, nil
}
