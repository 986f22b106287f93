package flowgraph

import "sync"

// Interrupt suspends the current node to ask a human for input.
//
// When the thread is being resumed with a value for this node, Interrupt
// returns that value and nil. The value is delivered once: a second call in
// the same execution of the node suspends again with its own prompt.
//
// Otherwise Interrupt returns an *InterruptError, which the node must
// return as its error. The executor then checkpoints the state the node
// received, records the prompt, and stops. On resume the node runs again
// from its first line.
//
//	name, err := flowgraph.Interrupt(ctx, "What is your name?")
//	if err != nil {
//	    return s, err
//	}
func Interrupt(ctx Context, prompt string) (string, error) {
	if ec, ok := ctx.(*executionContext); ok && ec.resume != nil {
		if v, ok := ec.resume.take(ec.nodeID); ok {
			return v, nil
		}
	}
	return "", &InterruptError{NodeID: ctx.NodeID(), Prompt: prompt}
}

// resumeSlot holds the value a resumed thread delivers to its suspended
// node. It is valid only for the first execution of that node.
type resumeSlot struct {
	mu       sync.Mutex
	nodeID   string
	value    string
	consumed bool
}

func newResumeSlot(nodeID, value string) *resumeSlot {
	return &resumeSlot{nodeID: nodeID, value: value}
}

func (r *resumeSlot) take(nodeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.consumed || r.nodeID != nodeID {
		return "", false
	}
	r.consumed = true
	return r.value, true
}

// expire drops an unconsumed value once its node has run, so a later
// visit to the same node in this invocation asks again.
func (r *resumeSlot) expire(nodeID string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nodeID == nodeID {
		r.consumed = true
	}
}
