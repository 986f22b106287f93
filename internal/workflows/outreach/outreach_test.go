package outreach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/driver"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel answers by prompt kind so tests don't depend on call order.
type fakeModel struct {
	mu       sync.Mutex
	extract  string
	emails   int
	prompts  []string
	failKind string
}

func (f *fakeModel) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	text := req.Messages[len(req.Messages)-1].Content
	f.prompts = append(f.prompts, text)

	kind := ""
	switch {
	case strings.HasPrefix(text, "Extract the company"):
		kind = "extract"
	case strings.HasPrefix(text, "Generate realistic professional"):
		kind = "profile"
	case strings.HasPrefix(text, "Generate realistic company"):
		kind = "company"
	case strings.HasPrefix(text, "Write a personalized"):
		kind = "email"
	}
	if kind != "" && kind == f.failKind {
		return nil, errors.New("model down")
	}

	switch kind {
	case "extract":
		return &llm.CompletionResponse{Content: f.extract}, nil
	case "profile":
		return &llm.CompletionResponse{Content: "VP Engineering, 12 years"}, nil
	case "company":
		return &llm.CompletionResponse{Content: "Acme builds rockets"}, nil
	case "email":
		f.emails++
		return &llm.CompletionResponse{Content: "Subject: Hello\n\nDraft " + string(rune('0'+f.emails))}, nil
	}
	return &llm.CompletionResponse{Content: "?"}, nil
}

func (f *fakeModel) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func run(t *testing.T, model llm.Client, deps workflows.Deps, answers ...string) (driver.Outcome[State], *driver.Script) {
	t.Helper()
	deps.LLM = model
	graph, err := Build(deps)
	require.NoError(t, err)

	store := checkpoint.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	in := driver.NewScript(answers...)
	out, err := driver.New(graph, store, driver.WithLogger(observability.Discard())).
		Start(context.Background(), State{}, in)
	require.NoError(t, err)
	return out, in
}

func TestParseContact(t *testing.T) {
	tests := []struct {
		in, company, person string
	}{
		{"Company: Acme, Person: Jane Doe", "Acme", "Jane Doe"},
		{"Company: Acme\nPerson: NOT_PROVIDED", "Acme", ""},
		{"person: [Jane Doe]\ncompany: 'Acme Corp'", "Acme Corp", "Jane Doe"},
		{"Company:\nPerson: Bob", "", "Bob"},
		{"Company:   \r\nPerson:\t Bob", "", "Bob"},
		{"Person:\nCompany: Acme", "Acme", ""},
		{"just some text", "", ""},
	}
	for _, tt := range tests {
		c, p := parseContact(tt.in)
		assert.Equal(t, tt.company, c, tt.in)
		assert.Equal(t, tt.person, p, tt.in)
	}
}

func TestOutreach_OneRoundTripCollection(t *testing.T) {
	model := &fakeModel{}
	out, in := run(t, model, workflows.Deps{Sender: "Sam"}, "Company: Acme, Person: Jane Doe", "yes")

	assert.True(t, out.Done())
	assert.True(t, out.State.Approved)
	assert.Equal(t, "Acme", out.State.Company)
	assert.Equal(t, "Jane Doe", out.State.Person)
	assert.Equal(t, 1, out.State.Drafts)

	prompts := in.Prompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, AskBoth, prompts[0])
	assert.Contains(t, prompts[1], "Great! Company: Acme, Person: Jane Doe")
	assert.Contains(t, prompts[1], "Draft 1")
	assert.True(t, strings.HasSuffix(prompts[1], AskApproval))

	assert.Zero(t, model.count("Extract the company"), "formatted input needs no extraction")
	assert.Contains(t, Summary(out.State), "EMAIL SENT to Jane Doe at Acme")

	for _, p := range model.prompts {
		if strings.HasPrefix(p, "Write a personalized") {
			assert.Contains(t, p, `Sign it off as "Sam".`)
			assert.Contains(t, p, "Acme builds rockets")
		}
	}
}

func TestOutreach_CollectsAcrossMessagesWithoutLosingFields(t *testing.T) {
	model := &fakeModel{extract: "Company: Globex\nPerson: NOT_PROVIDED"}
	out, in := run(t, model, workflows.Deps{},
		"I want to reach Globex",
		"no idea",
		"Person: Hank Scorpio",
		"send")

	assert.True(t, out.Done())
	assert.Equal(t, "Globex", out.State.Company)
	assert.Equal(t, "Hank Scorpio", out.State.Person)

	prompts := in.Prompts()
	require.Len(t, prompts, 4)
	assert.Equal(t, AskBoth, prompts[0])
	assert.Equal(t, "Got company: Globex. Still need person name.\n\n"+AskPerson, prompts[1])
	assert.Equal(t, "Got company: Globex. Still need person name.\n\n"+AskPerson, prompts[2])
}

func TestOutreach_BlankExtractedFieldStaysMissing(t *testing.T) {
	model := &fakeModel{extract: "Company:\nPerson: Jane Doe"}
	out, in := run(t, model, workflows.Deps{}, "Jane Doe", "Company: Acme", "yes")

	assert.True(t, out.Done())
	assert.Equal(t, "Jane Doe", out.State.Person)
	assert.Equal(t, "Acme", out.State.Company)

	prompts := in.Prompts()
	require.Len(t, prompts, 3)
	assert.Equal(t, "Got person: Jane Doe. Still need company name.\n\n"+AskCompany, prompts[1])
}

func TestOutreach_RejectionRewrites(t *testing.T) {
	model := &fakeModel{}
	out, in := run(t, model, workflows.Deps{Approvals: []string{"ship it"}},
		"Company: Acme, Person: Jane Doe",
		"yes",
		"make it shorter",
		"Ship It")

	assert.True(t, out.Done())
	assert.Equal(t, 3, out.State.Drafts)
	assert.Contains(t, out.State.Email, "Draft 3")
	assert.Len(t, in.Prompts(), 4)
	assert.Contains(t, in.Prompts()[2], "Email needs revision")

	last := model.prompts[len(model.prompts)-1]
	assert.Contains(t, last, "rejected with this feedback: make it shorter")
}

func TestOutreach_EmailFailureCannotBeApproved(t *testing.T) {
	model := &fakeModel{failKind: "email"}
	out, in := run(t, model, workflows.Deps{}, "Company: Acme, Person: Jane Doe", "yes")

	assert.False(t, out.Done())
	assert.False(t, out.State.Approved)
	prompts := in.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[1], "something went wrong")
	assert.Equal(t, "No email was approved.", Summary(out.State))
}

func TestApprovalRouter(t *testing.T) {
	route := ApprovalRouter(workflows.DefaultApprovals)
	ctx := flowgraph.NewContext(context.Background())
	withReply := func(reply string) State {
		return State{Email: "draft", Messages: llm.Transcript{llm.UserMessage(reply), llm.AssistantMessage("noted")}}
	}

	for _, yes := range []string{"yes", " Y ", "OK", "good", "SEND"} {
		assert.Equal(t, flowgraph.END, route(ctx, withReply(yes)), yes)
	}
	for _, no := range []string{"no", "yes!", "looks good", ""} {
		assert.Equal(t, NodeWriteEmail, route(ctx, withReply(no)), no)
	}
	assert.Equal(t, NodeWriteEmail, route(ctx, State{Messages: llm.Transcript{llm.UserMessage("yes")}}))
}
