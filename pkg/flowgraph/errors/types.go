package errors

import (
	"fmt"
	"time"
)

// HTTPError is a non-2xx response from a model provider.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// JSONParseError indicates the model returned JSON that could not be
// decoded even after repair.
type JSONParseError struct {
	Input   string
	Message string
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Message)
}

// ValidationError indicates a decoded answer is missing or has a bad field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TimeoutError indicates a model call exceeded its per-call deadline.
type TimeoutError struct {
	Operation string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.After, e.Operation)
}

// HumanInterventionError indicates only the user can resolve the failure,
// for example a tool call that needs confirmation.
type HumanInterventionError struct {
	Question string
	Options  []string
	Original error
}

func (e *HumanInterventionError) Error() string {
	return fmt.Sprintf("human intervention required: %s", e.Question)
}

func (e *HumanInterventionError) Unwrap() error {
	return e.Original
}
