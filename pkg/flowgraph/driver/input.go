package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrInputClosed is returned by an Input that has no more lines.
var ErrInputClosed = errors.New("input closed")

// Input supplies the human side of a conversation.
type Input interface {
	// Ask shows prompt and returns one line of input without the trailing
	// newline.
	Ask(ctx context.Context, prompt string) (string, error)
}

// InputFunc adapts a function to Input.
type InputFunc func(ctx context.Context, prompt string) (string, error)

// Ask implements Input.
func (f InputFunc) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Renderer formats a prompt before it is printed.
type Renderer func(string) (string, error)

// Terminal reads answers line by line from a reader and writes prompts to
// a writer, normally stdin and stdout.
//
// Lines are read by a background goroutine started on the first Ask. Call
// Close when the conversation is over; the goroutine then exits after the
// read it is blocked in, if any, returns.
type Terminal struct {
	reader   *bufio.Reader
	writer   io.Writer
	renderer Renderer
	marker   string

	lines     chan lineResult
	startOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
	exited    chan struct{}
}

type lineResult struct {
	text string
	err  error
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithRenderer formats prompts, for example as markdown. Prompts that fail
// to render are printed as is.
func WithRenderer(r Renderer) TerminalOption {
	return func(t *Terminal) {
		t.renderer = r
	}
}

// WithInputMarker sets the text printed before reading a line. Default "> ".
func WithInputMarker(marker string) TerminalOption {
	return func(t *Terminal) {
		t.marker = marker
	}
}

// NewTerminal creates a Terminal. Nil r and w default to stdin and stdout.
func NewTerminal(r io.Reader, w io.Writer, opts ...TerminalOption) *Terminal {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	t := &Terminal{
		reader: bufio.NewReader(r),
		writer: w,
		marker: "> ",
		lines:  make(chan lineResult),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ask implements Input. A canceled ctx returns immediately; the line being
// read, if any, is delivered to the next Ask. After Close, Ask returns
// ErrInputClosed.
func (t *Terminal) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-t.done:
		return "", ErrInputClosed
	default:
	}
	t.startOnce.Do(func() { go t.pump() })

	out := prompt
	if t.renderer != nil {
		if rendered, err := t.renderer(prompt); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(t.writer, strings.TrimRight(out, "\n"))
	fmt.Fprint(t.writer, t.marker)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.done:
		return "", ErrInputClosed
	case res, ok := <-t.lines:
		if !ok {
			return "", ErrInputClosed
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

// Close stops the reader goroutine. It does not close the underlying
// reader.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

// pump reads lines until the reader fails or the Terminal is closed. A
// final line without a newline is still delivered.
func (t *Terminal) pump() {
	defer close(t.exited)
	defer close(t.lines)
	for {
		text, err := t.reader.ReadString('\n')
		if text != "" && !t.send(lineResult{text: text}) {
			return
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.send(lineResult{err: fmt.Errorf("read input: %w", err)})
			return
		}
	}
}

func (t *Terminal) send(res lineResult) bool {
	select {
	case t.lines <- res:
		return true
	case <-t.done:
		return false
	}
}

// Script answers prompts from a fixed list, then reports ErrInputClosed.
// It records every prompt it was asked.
type Script struct {
	mu      sync.Mutex
	answers []string
	prompts []string
}

// NewScript creates a Script that returns answers in order.
func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

// Ask implements Input.
func (s *Script) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", ErrInputClosed
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Prompts returns the prompts asked so far.
func (s *Script) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Remaining reports how many answers are left.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
