package driver

import (
	"fmt"
	"strings"
)

// Status is the position of a conversation in the driver loop.
type Status int

const (
	// Running means the graph is executing nodes.
	Running Status = iota
	// AwaitingInput means the graph is suspended on an interrupt.
	AwaitingInput
	// Done means the graph reached END.
	Done
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingInput:
		return "awaiting_input"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Transition is reported to observers on every status change.
type Transition struct {
	ThreadID string
	From     Status
	To       Status
	// Prompt is set when To is AwaitingInput.
	Prompt string
}

// Observer receives transitions. It is called synchronously from the
// driver loop and must not block.
type Observer func(Transition)

// MissingCheckpoint decides what Continue does with a thread the store
// does not know.
type MissingCheckpoint int

const (
	// FreshStart logs a warning and starts the thread from the entry point.
	FreshStart MissingCheckpoint = iota
	// Fail returns ErrUnknownThread.
	Fail
)

func (p MissingCheckpoint) String() string {
	if p == Fail {
		return "fail"
	}
	return "fresh-start"
}

// ParseMissingCheckpoint parses "fresh-start" or "fail".
func ParseMissingCheckpoint(s string) (MissingCheckpoint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fresh-start":
		return FreshStart, nil
	case "fail":
		return Fail, nil
	default:
		return FreshStart, fmt.Errorf("unknown missing-checkpoint policy %q", s)
	}
}
