package workflows

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrNegativeAge is returned by ParseAge for negative numbers.
var ErrNegativeAge = errors.New("age must be non-negative")

// ParseAge parses a non-negative integer, ignoring surrounding space.
func ParseAge(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", text)
	}
	if n < 0 {
		return 0, ErrNegativeAge
	}
	return n, nil
}

// InvalidAgePrompt is the re-prompt for a rejected age.
func InvalidAgePrompt(input string) string {
	return fmt.Sprintf("'%s' is not valid. Please enter a non-negative integer for age.", input)
}

// IsApproval reports whether reply is in vocab, ignoring case and
// surrounding space.
func IsApproval(reply string, vocab []string) bool {
	reply = strings.ToLower(strings.TrimSpace(reply))
	return slices.ContainsFunc(vocab, func(w string) bool {
		return strings.ToLower(strings.TrimSpace(w)) == reply
	})
}

// IsQuit reports whether the user asked to end an open conversation.
func IsQuit(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "quit", "exit", "q", "bye":
		return true
	}
	return false
}
