package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
)

// DecodeJSON decodes a model's JSON answer into v.
//
// Models wrap JSON in prose or markdown fences and sometimes emit trailing
// commas or single quotes. DecodeJSON extracts the outermost object or
// array, repairs it if needed, and returns a *errors.JSONParseError when
// nothing usable remains.
func DecodeJSON(text string, v any) error {
	raw := extractJSON(text)
	if raw == "" {
		return &flowerrors.JSONParseError{Input: text, Message: "no JSON object found"}
	}

	err := json.Unmarshal([]byte(raw), v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return &flowerrors.JSONParseError{Input: text, Message: err.Error()}
	}

	fixed, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return &flowerrors.JSONParseError{Input: text, Message: repairErr.Error()}
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return &flowerrors.JSONParseError{Input: text, Message: err.Error()}
	}
	return nil
}

func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		// Unterminated; let the repair pass close it.
		return s[start:]
	}
	return s[start : end+1]
}
