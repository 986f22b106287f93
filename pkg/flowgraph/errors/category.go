// Package errors classifies failures at the LLM boundary and retries the
// transient ones.
//
// Conversation nodes never let an external failure end a thread: they
// categorize the error, retry it when retry can help, and otherwise turn it
// into an assistant turn. The categories are:
//   - Transient: rate limits, timeouts, 5xx responses. Retry.
//   - Permanent: bad credentials, unknown model, cancellation. Report.
//   - Validation: the model answered but the answer is unusable (bad JSON,
//     missing field). Ask again or re-prompt the human.
//   - HumanRequired: only the person at the keyboard can resolve it.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	CategoryPermanent

	// CategoryValidation indicates the output was received but unusable.
	CategoryValidation

	// CategoryHumanRequired indicates the user has to answer something.
	CategoryHumanRequired
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryValidation:
		return "validation"
	case CategoryHumanRequired:
		return "human_required"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	Err      error
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Invalid creates a validation error category wrapper.
func Invalid(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryValidation, context)
}

// HumanRequired creates a human-required error.
func HumanRequired(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryHumanRequired, context)
}

// Categorize determines how an error should be handled.
// Unrecognized errors are permanent.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var humanErr *HumanInterventionError
	if errors.As(err, &humanErr) {
		return CategoryHumanRequired
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return categorizeStatus(httpErr.StatusCode)
	}

	var jsonErr *JSONParseError
	if errors.As(err, &jsonErr) {
		return CategoryValidation
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryValidation
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	// A per-call deadline is worth retrying; a canceled conversation is not.
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}
	if errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTransient
	}

	return CategoryPermanent
}

func categorizeStatus(code int) Category {
	switch code {
	case 408, 409, 429, 503, 504:
		return CategoryTransient
	case 400, 422:
		return CategoryValidation
	case 401, 403, 404:
		return CategoryPermanent
	}
	if code >= 500 {
		return CategoryTransient
	}
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsValidation reports whether the error is an unusable answer.
func IsValidation(err error) bool {
	return Categorize(err) == CategoryValidation
}

// NeedsHuman reports whether human intervention is required.
func NeedsHuman(err error) bool {
	return Categorize(err) == CategoryHumanRequired
}
