// Package outreach drafts a personalized sales email. It collects the
// target company and person (one or both per message), researches both,
// writes the email and loops on a rewrite until the user approves it.
package outreach

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/flowchat/internal/workflows"
	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/prompt"
)

const (
	Name        = "outreach"
	Description = "Research a contact and draft a sales email for approval"
)

// Node IDs.
const (
	NodeAskContact      = "ask_for_company_and_person"
	NodeValidateContact = "validate_company_and_person"
	NodeProfile         = "get_linkedin_data"
	NodeCompanySite     = "get_company_website"
	NodeWriteEmail      = "write_personalized_email"
	NodeAskApproval     = "ask_for_approval"
	NodeValidApproval   = "validate_approval"
)

// DefaultSender signs emails when Deps.Sender is empty.
const DefaultSender = "The flowchat team"

// Prompts shown to the user.
const (
	AskBoth     = "Please provide both the company name and person name (format: 'Company: [name], Person: [name]'):"
	AskCompany  = "Please provide the company name:"
	AskPerson   = "Please provide the person name:"
	AskApproval = "Is this email good to send? (yes/no)"
)

var (
	extractTmpl = prompt.New("extract_contact", `Extract the company name and person name from the following text: '${input}'

Return in this exact format:
Company: [company name]
Person: [person name]

If only one is provided, still use the format but put 'NOT_PROVIDED' for missing information.`)

	profileTmpl = prompt.New("profile", `Generate realistic professional LinkedIn data for a person named '${person}'.
Include: job title, company, years of experience, key skills, and education.
Keep it concise but professional.`)

	companyTmpl = prompt.New("company", `Generate realistic company information for '${company}'.
Include: company description, main products/services, company values, and recent news/achievements.
Keep it concise but informative for email personalization.`)

	emailTmpl = prompt.New("email", `Write a personalized business email to ${person} at ${company}.

Person's LinkedIn data:
${profile}

Company information:
${company_info}

The email should be:
- Professional and personalized
- Reference specific details from their background
- Mention something specific about their company
- Include a clear call-to-action
- Be concise (under 200 words)

Format as a complete email with subject line.
Sign it off as "${sender}".${feedback}`)
)

// State is the conversation state.
type State struct {
	Messages    llm.Transcript `json:"messages"`
	Company     string         `json:"company,omitempty"`
	Person      string         `json:"person,omitempty"`
	Profile     string         `json:"profile,omitempty"`
	CompanyInfo string         `json:"company_info,omitempty"`
	Email       string         `json:"email,omitempty"`
	Drafts      int            `json:"drafts"`
	Approved    bool           `json:"approved"`
}

// Build compiles the graph. It requires deps.LLM.
func Build(deps workflows.Deps) (*flowgraph.CompiledGraph[State], error) {
	if err := deps.RequireLLM(); err != nil {
		return nil, err
	}
	approvals := deps.ApprovalWords()

	return flowgraph.NewGraph[State]().
		AddNode(NodeAskContact, askContact).
		AddNode(NodeValidateContact, validateContact(deps)).
		AddNode(NodeProfile, research(deps, "profile", profileTmpl, func(s *State) *string { return &s.Profile })).
		AddNode(NodeCompanySite, research(deps, "company", companyTmpl, func(s *State) *string { return &s.CompanyInfo })).
		AddNode(NodeWriteEmail, writeEmail(deps)).
		AddNode(NodeAskApproval, askApproval).
		AddNode(NodeValidApproval, validateApproval(approvals)).
		AddEdge(NodeAskContact, NodeValidateContact).
		AddConditionalEdge(NodeValidateContact, continueCollection, NodeAskContact, NodeProfile).
		AddEdge(NodeProfile, NodeCompanySite).
		AddEdge(NodeCompanySite, NodeWriteEmail).
		AddEdge(NodeWriteEmail, NodeAskApproval).
		AddEdge(NodeAskApproval, NodeValidApproval).
		AddConditionalEdge(NodeValidApproval, ApprovalRouter(approvals), NodeWriteEmail, flowgraph.END).
		SetEntry(NodeAskContact).
		Compile()
}

// Summary describes a finished conversation.
func Summary(s State) string {
	if !s.Approved {
		return "No email was approved."
	}
	return fmt.Sprintf("EMAIL SENT to %s at %s (draft %d):\n\n%s", s.Person, s.Company, s.Drafts, s.Email)
}

// ApprovalRouter ends the thread when the latest user reply is in vocab
// and an email exists, and routes to a rewrite otherwise.
func ApprovalRouter(vocab []string) flowgraph.RouterFunc[State] {
	return func(_ flowgraph.Context, s State) string {
		last, ok := s.Messages.LastOf(llm.RoleUser)
		if ok && s.Email != "" && workflows.IsApproval(last.Content, vocab) {
			return flowgraph.END
		}
		return NodeWriteEmail
	}
}

func askContact(ctx flowgraph.Context, s State) (State, error) {
	var question string
	switch {
	case s.Company == "" && s.Person == "":
		question = AskBoth
	case s.Company == "":
		question = AskCompany
	case s.Person == "":
		question = AskPerson
	default:
		return s, nil
	}

	answer, err := flowgraph.Interrupt(ctx, withFeedback(s.Messages, question))
	if err != nil {
		return s, err
	}
	s.Messages = s.Messages.Append(llm.UserMessage(answer))
	return s, nil
}

// withFeedback puts unseen assistant turns in front of question.
func withFeedback(t llm.Transcript, question string) string {
	feedback := workflows.PendingReply(t, "")
	if feedback == "" {
		return question
	}
	return feedback + "\n\n" + question
}

func validateContact(deps workflows.Deps) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		last, ok := s.Messages.LastOf(llm.RoleUser)
		if !ok || strings.TrimSpace(last.Content) == "" {
			s.Messages = s.Messages.Append(llm.AssistantMessage("No input found. Please try again."))
			return s, nil
		}

		company, person := parseContact(last.Content)
		if company == "" || person == "" {
			reply, err := deps.Complete(ctx, "",
				llm.UserMessage(extractTmpl.MustRender(map[string]any{"input": last.Content})))
			if err != nil {
				s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "extract_contact", err))
				return s, nil
			}
			ctx.Logger().Debug("contact extracted", "reply", reply)
			c, p := parseContact(reply)
			company, person = firstNonEmpty(company, c), firstNonEmpty(person, p)
		}

		// Fields already collected are never cleared.
		s.Company = firstNonEmpty(company, s.Company)
		s.Person = firstNonEmpty(person, s.Person)

		var msg string
		switch {
		case s.Company != "" && s.Person != "":
			msg = fmt.Sprintf("Great! Company: %s, Person: %s", s.Company, s.Person)
		case s.Company != "":
			msg = fmt.Sprintf("Got company: %s. Still need person name.", s.Company)
		case s.Person != "":
			msg = fmt.Sprintf("Got person: %s. Still need company name.", s.Person)
		default:
			msg = "Could not extract company or person. Please try again with format 'Company: [name], Person: [name]'"
		}
		s.Messages = s.Messages.Append(llm.AssistantMessage(msg))
		return s, nil
	}
}

func continueCollection(_ flowgraph.Context, s State) string {
	if s.Company != "" && s.Person != "" {
		return NodeProfile
	}
	return NodeAskContact
}

// research fills one background field. A failed lookup leaves a note in
// the field so the email can still be written.
func research(deps workflows.Deps, op string, tmpl *prompt.Template, field func(*State) *string) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, s State) (State, error) {
		text, err := deps.Complete(ctx, "", llm.UserMessage(tmpl.MustRender(map[string]any{
			"person":  s.Person,
			"company": s.Company,
		})))
		if err != nil {
			ctx.Logger().Warn("research failed", "op", op, "error", err)
			text = "(no " + op + " information available)"
		}
		*field(&s) = text
		return s, nil
	}
}

func writeEmail(deps workflows.Deps) flowgraph.NodeFunc[State] {
	sender := deps.Sender
	if sender == "" {
		sender = DefaultSender
	}
	return func(ctx flowgraph.Context, s State) (State, error) {
		feedback := ""
		if s.Drafts > 0 {
			if last, ok := s.Messages.LastOf(llm.RoleUser); ok && !isPlainNo(last.Content) {
				feedback = "\n\nThe previous draft was rejected with this feedback: " + last.Content
			}
		}

		text, err := deps.Complete(ctx, "", llm.UserMessage(emailTmpl.MustRender(map[string]any{
			"person":       s.Person,
			"company":      s.Company,
			"profile":      s.Profile,
			"company_info": s.CompanyInfo,
			"sender":       sender,
			"feedback":     feedback,
		})))
		if err != nil {
			s.Email = ""
			s.Messages = s.Messages.Append(workflows.FailureReply(ctx, ctx.Logger(), "write_email", err))
			return s, nil
		}

		s.Email = text
		s.Drafts++
		s.Messages = s.Messages.Append(llm.AssistantMessage("Here's the personalized email:\n\n" + text))
		return s, nil
	}
}

func askApproval(ctx flowgraph.Context, s State) (State, error) {
	question := AskApproval
	if s.Email == "" {
		question = "Reply with anything to try writing the email again."
	}
	answer, err := flowgraph.Interrupt(ctx, withFeedback(s.Messages, question))
	if err != nil {
		return s, err
	}
	s.Messages = s.Messages.Append(llm.UserMessage(answer))
	return s, nil
}

func validateApproval(vocab []string) flowgraph.NodeFunc[State] {
	return func(_ flowgraph.Context, s State) (State, error) {
		last, _ := s.Messages.LastOf(llm.RoleUser)
		s.Approved = s.Email != "" && workflows.IsApproval(last.Content, vocab)
		if s.Approved {
			s.Messages = s.Messages.Append(llm.AssistantMessage("Email approved for sending!"))
		} else {
			s.Messages = s.Messages.Append(llm.AssistantMessage("Email needs revision. Let me rewrite it..."))
		}
		return s, nil
	}
}

func isPlainNo(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "", "no", "n", "nope", "rewrite", "again":
		return true
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
