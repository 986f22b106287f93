package agecoach_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/internal/workflows/agecoach"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/driver"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, client llm.Client, answers ...string) (driver.Outcome[agecoach.State], *driver.Script) {
	t.Helper()
	graph, err := agecoach.Build(workflows.Deps{LLM: client})
	require.NoError(t, err)

	store := checkpoint.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	in := driver.NewScript(answers...)
	out, err := driver.New(graph, store, driver.WithLogger(observability.Discard())).
		Start(context.Background(), agecoach.State{}, in)
	require.NoError(t, err)
	return out, in
}

func TestAgeCoach_ValidFirstTimeSkipsModel(t *testing.T) {
	client := llm.NewMockClient("unused")
	out, _ := run(t, client, "35")

	assert.True(t, out.Done())
	assert.Equal(t, 35, out.State.Age)
	assert.Zero(t, client.CallCount())
	assert.Equal(t, "Human is 35 years old.", agecoach.Summary(out.State))
}

func TestAgeCoach_ExplanationBecomesPrompt(t *testing.T) {
	client := llm.NewMockClient("Ages are whole numbers like 25. How old are you?")
	out, in := run(t, client, "twenty-five", "25")

	assert.True(t, out.Done())
	assert.Equal(t, 25, out.State.Age)
	assert.Equal(t, []string{
		agecoach.FirstPrompt,
		"Ages are whole numbers like 25. How old are you?",
	}, in.Prompts())

	roles := make([]llm.Role, 0, len(out.State.Messages))
	for _, m := range out.State.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []llm.Role{llm.RoleUser, llm.RoleAssistant, llm.RoleUser, llm.RoleAssistant}, roles)
	assert.Equal(t, "twenty-five", out.State.Messages[0].Content)

	req := client.LastCall()
	require.NotNil(t, req)
	assert.Contains(t, req.SystemPrompt, "non-negative integer")
	assert.Equal(t, "The user entered: 'twenty-five'.", req.Messages[0].Content)
}

func TestAgeCoach_ModelFailureFallsBack(t *testing.T) {
	client := llm.NewMockClient("").WithError(errors.New("connection refused"))
	out, in := run(t, client, "-2", "x", "8")

	assert.Equal(t, 8, out.State.Age)
	assert.Equal(t, []string{
		agecoach.FirstPrompt,
		"'-2' is not valid. Please enter a non-negative integer for age.",
		"'x' is not valid. Please enter a non-negative integer for age.",
	}, in.Prompts())
	assert.Equal(t, 3, out.State.Messages.Count(llm.RoleUser))
}
