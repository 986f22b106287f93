package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile reads a YAML (.yaml, .yml) or JSON (.json) file. ${VAR}
// references are expanded from the environment before parsing, so secrets
// can stay out of the file:
//
//	llm:
//	  api_key: ${OPENAI_API_KEY}
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	data = []byte(expandEnv(string(data), os.LookupEnv))

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// expandEnv replaces ${VAR} with its value. Unset variables expand to
// the empty string; a bare $ without braces is left alone.
func expandEnv(s string, lookup func(string) (string, bool)) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			break
		}
		b.WriteString(s[:start])
		v, _ := lookup(s[start+2 : start+end])
		b.WriteString(v)
		s = s[start+end+1:]
	}
	b.WriteString(s)
	return b.String()
}

// FromYAML parses YAML. Empty input is an empty Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a JSON object.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}
