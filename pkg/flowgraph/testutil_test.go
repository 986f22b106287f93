package flowgraph

import (
	"context"
	"strconv"
	"strings"
)

// Counter is a minimal state for loop tests.
type Counter struct {
	Value int
}

// State records node visits.
type State struct {
	Progress []string
	Output   string
	Done     bool
	GoLeft   bool
}

// Chat is a conversational state with suspend points.
type Chat struct {
	Turns []string
	Name  string
	Age   int
	Valid bool
}

func increment(_ Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

func passthrough[S any](_ Context, s S) (S, error) {
	return s, nil
}

func trackingNode(name string) NodeFunc[State] {
	return func(_ Context, s State) (State, error) {
		s.Progress = append(s.Progress, name)
		return s, nil
	}
}

func failingNode(err error) NodeFunc[State] {
	return func(_ Context, s State) (State, error) {
		return s, err
	}
}

func panicNode(value any) NodeFunc[State] {
	return func(_ Context, s State) (State, error) {
		panic(value)
	}
}

// askAge loops on an interrupt until it gets a non-negative integer.
func askAge(ctx Context, s Chat) (Chat, error) {
	prompt := "Please enter your age:"
	for {
		answer, err := Interrupt(ctx, prompt)
		if err != nil {
			return s, err
		}
		s.Turns = append(s.Turns, "user:"+answer)
		if n, convErr := strconv.Atoi(strings.TrimSpace(answer)); convErr == nil && n >= 0 {
			s.Age, s.Valid = n, true
			return s, nil
		}
		prompt = "'" + answer + "' is not valid. Please enter a non-negative integer for age."
	}
}

func testCtx() Context {
	return NewContext(context.Background())
}
