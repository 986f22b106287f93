package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := config.Defaults()

	require.NoError(t, s.Validate())
	assert.Equal(t, "openai", s.LLM.Provider)
	assert.Equal(t, "memory", s.Store.Kind)
	assert.Equal(t, "fresh-start", s.Driver.MissingCheckpoint)
	assert.Equal(t, []string{"yes", "y", "ok", "good", "send"}, s.Driver.Approvals)

	// Defaults never share the package vocabulary slice.
	s.Driver.Approvals[0] = "changed"
	assert.Equal(t, "yes", config.DefaultApprovals[0])
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
llm:
  model: gpt-4o
  timeout: 45s
  retries: "5"
store:
  kind: sqlite
  path: /tmp/threads.db
driver:
  approvals: [si, ja]
  max_resumes: 0
`))
	require.NoError(t, err)

	s, err := config.FromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", s.LLM.Model)
	assert.Equal(t, 45*time.Second, s.LLM.Timeout)
	assert.Equal(t, 5, s.LLM.Retries)
	assert.Equal(t, "openai", s.LLM.Provider, "unset fields keep defaults")
	assert.Equal(t, "sqlite", s.Store.Kind)
	assert.Equal(t, "/tmp/threads.db", s.Store.Path)
	assert.Equal(t, []string{"si", "ja"}, s.Driver.Approvals)
	assert.Equal(t, 0, s.Driver.MaxResumes)
}

func TestFromConfig_CommaSeparatedApprovals(t *testing.T) {
	s, err := config.FromConfig(config.New(map[string]any{
		"driver": map[string]any{"approvals": "yes,send"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"yes", "send"}, s.Driver.Approvals)
}

func TestFromConfig_Invalid(t *testing.T) {
	_, err := config.FromConfig(config.New(map[string]any{
		"store":  map[string]any{"kind": "postgres"},
		"log":    map[string]any{"format": "xml"},
		"driver": map[string]any{"missing_checkpoint": "guess"},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.kind")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "driver.missing_checkpoint")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":      "sk-test",
		"FLOWCHAT_MODEL":      "gpt-test",
		"FLOWCHAT_STORE":      "redis",
		"FLOWCHAT_REDIS_ADDR": "redis:6379",
		"FLOWCHAT_LOG_FORMAT": "json",
		"FLOWCHAT_PROVIDER":   "",
	}
	s := config.Defaults()
	s.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "sk-test", s.LLM.APIKey)
	assert.Equal(t, "gpt-test", s.LLM.Model)
	assert.Equal(t, "redis", s.Store.Kind)
	assert.Equal(t, "redis:6379", s.Store.RedisAddr)
	assert.Equal(t, "json", s.Log.Format)
	assert.Equal(t, "openai", s.LLM.Provider, "empty values are ignored")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: from-file\nlog:\n  level: debug\n"), 0o600))

	t.Setenv("FLOWCHAT_MODEL", "from-env")
	t.Setenv("FLOWCHAT_LOG_LEVEL", "")

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.LLM.Model)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("FLOWCHAT_STORE", "sqlite")
	t.Setenv("FLOWCHAT_STORE_PATH", "")

	s, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Store.Kind)
	assert.Equal(t, "flowchat.db", s.Store.Path)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("FLOWCHAT_STORE", "cassandra")
	_, err = config.Load("")
	assert.ErrorContains(t, err, "store.kind")
}

func TestPathLookup(t *testing.T) {
	cfg := config.New(map[string]any{
		"llm":       map[string]any{"model": "m", "timeout": "5s", "nested": map[string]any{"depth": 2}},
		"plain.key": "literal",
	})

	assert.Equal(t, "m", cfg.String("llm.model", ""))
	assert.Equal(t, 5*time.Second, cfg.Duration("llm.timeout", 0))
	assert.Equal(t, 2, cfg.Int("llm.nested.depth", 0))
	assert.Equal(t, "literal", cfg.String("plain.key", ""))
	assert.Equal(t, "d", cfg.String("llm.missing", "d"))
	assert.Equal(t, "d", cfg.String("llm.model.deeper", "d"))
	assert.True(t, cfg.Has("llm.nested"))

	section := cfg.Section("llm")
	assert.Equal(t, "m", section.String("model", ""))
	assert.Empty(t, cfg.Section("nope").Raw())
	assert.Empty(t, cfg.Section("llm.model").Raw())
}
