package workflows

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/llm"
)

// FailureReply turns a model failure into an assistant turn. The error is
// logged; the user only sees conversational text.
func FailureReply(ctx context.Context, logger *slog.Logger, op string, err error) llm.Message {
	category := flowerrors.Categorize(err)
	logger.WarnContext(ctx, "llm call failed",
		slog.String("op", op),
		slog.String("category", category.String()),
		slog.String("error", err.Error()))

	switch {
	case ctx.Err() != nil:
		return llm.AssistantMessage("I stopped before finishing that. Please try again.")
	case category == flowerrors.CategoryTransient:
		return llm.AssistantMessage("I'm having trouble reaching the language model right now. Please try again in a moment.")
	default:
		return llm.AssistantMessage("Sorry, something went wrong while I was thinking about that. Please try again.")
	}
}

// PendingReply joins the assistant text produced since the last user turn,
// which is what the user has not seen yet. It returns fallback when there
// is none.
func PendingReply(t llm.Transcript, fallback string) string {
	var parts []string
	for i := len(t) - 1; i >= 0; i-- {
		m := t[i]
		if m.Role == llm.RoleUser {
			break
		}
		if m.Role == llm.RoleAssistant && strings.TrimSpace(m.Content) != "" {
			parts = append(parts, m.Content)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	slices.Reverse(parts)
	return strings.Join(parts, "\n\n")
}
