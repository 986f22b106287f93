package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "FLOWCHAT_STORE", "FLOWCHAT_METRICS"} {
		t.Setenv(name, "")
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "flowchat.yaml")
	content := "store:\n  kind: sqlite\n  path: " + filepath.Join(dir, "threads.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestList(t *testing.T) {
	out, err := execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "age")
	assert.Contains(t, out, "tripplanner")
	assert.Contains(t, out, "(model)")
}

func TestRun_Age(t *testing.T) {
	out, err := execute(t, "abc\n30\n", "run", "age")
	require.NoError(t, err)
	assert.Contains(t, out, "Please enter your age:\n> ")
	assert.Contains(t, out, "'abc' is not valid. Please enter a non-negative integer for age.")
	assert.Contains(t, out, "Human is 30 years old.")
}

func TestShortcut(t *testing.T) {
	out, err := execute(t, "8\n", "age")
	require.NoError(t, err)
	assert.Contains(t, out, "Human is 8 years old.")
}

func TestRun_NeedsModel(t *testing.T) {
	_, err := execute(t, "", "run", "chat")
	assert.ErrorContains(t, err, "no language model configured")
}

func TestRun_UnknownWorkflow(t *testing.T) {
	_, err := execute(t, "", "run", "nope")
	assert.ErrorContains(t, err, "unknown workflow")
}

func TestThreads_PauseResumeRemove(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := execute(t, "", "--config", cfg, "run", "age")
	require.NoError(t, err)
	m := regexp.MustCompile(`--thread (age-\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	thread := m[1]

	out, err = execute(t, "", "--config", cfg, "threads")
	require.NoError(t, err)
	assert.Contains(t, out, thread)
	assert.Contains(t, out, "waiting")

	out, err = execute(t, "44\n", "--config", cfg, "run", "age", "--thread", thread)
	require.NoError(t, err)
	assert.Contains(t, out, "Human is 44 years old.")

	out, err = execute(t, "", "--config", cfg, "threads", "rm", thread)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed thread "+thread)

	out, err = execute(t, "", "--config", cfg, "threads")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored threads.")
}

func TestVersion(t *testing.T) {
	version = "v1.2.3"
	t.Cleanup(func() { version = "" })

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "flowchat version v1.2.3\n", out)
}
