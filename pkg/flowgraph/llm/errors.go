package llm

import (
	"fmt"

	flowerrors "github.com/randalmurphal/flowchat/pkg/flowgraph/errors"
)

// Error is a failed provider call.
type Error struct {
	Provider string
	Op       string
	Err      error
}

// NewError wraps err from a provider operation.
func NewError(provider, op string, err error) *Error {
	return &Error{Provider: provider, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the call may succeed.
func (e *Error) Retryable() bool {
	return flowerrors.IsRetryable(e.Err)
}
