package flowgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
var (
	// ErrNoEntryPoint indicates SetEntry() was not called before Compile().
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry point references a non-existent node.
	ErrEntryNotFound = errors.New("entry point node not found")

	// ErrNodeNotFound indicates an edge references a non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPathToEnd indicates no path exists from the entry point to END.
	ErrNoPathToEnd = errors.New("no path to END from entry")

	// ErrNoRouterTargets indicates a conditional edge declared no targets.
	ErrNoRouterTargets = errors.New("conditional edge declares no targets")
)

// Sentinel errors for execution.
var (
	ErrMaxIterations        = errors.New("exceeded maximum iterations")
	ErrNilContext           = errors.New("context cannot be nil")
	ErrInvalidRouterResult  = errors.New("router returned empty string")
	ErrRouterTargetNotFound = errors.New("router returned undeclared target")
)

// Sentinel errors for checkpointing and resume.
var (
	// ErrThreadIDRequired indicates checkpointing was enabled without a thread ID.
	ErrThreadIDRequired = errors.New("thread ID required for checkpointing")

	ErrSerializeState   = errors.New("failed to serialize state")
	ErrDeserializeState = errors.New("failed to deserialize state")

	// ErrNoCheckpoints indicates the thread is unknown to the store.
	ErrNoCheckpoints = errors.New("no checkpoints found for thread")

	// ErrInvalidResumeNode indicates the resume node doesn't exist in the graph.
	ErrInvalidResumeNode = errors.New("invalid resume node")

	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")
)

// InterruptError is returned by Interrupt when a node must suspend for
// human input. Nodes return it unchanged; the executor checkpoints the
// thread and stops. It is not a failure.
type InterruptError struct {
	// NodeID is the suspended node. It re-runs from the start on resume.
	NodeID string
	// Prompt is the text to show the human.
	Prompt string
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("interrupted at node %s: %s", e.NodeID, e.Prompt)
}

// IsInterrupt reports whether err is or wraps an *InterruptError.
func IsInterrupt(err error) bool {
	var ie *InterruptError
	return errors.As(err, &ie)
}

// CheckpointError wraps errors from checkpoint operations.
type CheckpointError struct {
	NodeID string
	// Op is the operation that failed ("serialize", "marshal", "save").
	Op  string
	Err error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// NodeError wraps an error returned by a node function.
type NodeError struct {
	NodeID string
	// Op is the operation that failed ("execute", "lookup", "routing").
	Op  string
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic recovered from a node function.
type PanicError struct {
	NodeID string
	Value  any
	Stack  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError reports that the context was canceled between nodes.
type CancellationError struct {
	// NodeID is the node that would have run next.
	NodeID string
	// State is the state at cancellation time.
	State any
	Cause error
	// WasExecuting is true if cancellation was observed inside a node.
	WasExecuting bool
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("canceled before node %s: %v", e.NodeID, e.Cause)
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// RouterError reports an invalid router result.
type RouterError struct {
	FromNode string
	Returned string
	Err      error
}

func (e *RouterError) Error() string {
	return fmt.Sprintf("router from %s returned %q: %v", e.FromNode, e.Returned, e.Err)
}

func (e *RouterError) Unwrap() error {
	return e.Err
}

// MaxIterationsError reports that an invocation ran more nodes than allowed.
type MaxIterationsError struct {
	Max        int
	LastNodeID string
	State      any
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded maximum iterations (%d) at node %s", e.Max, e.LastNodeID)
}

func (e *MaxIterationsError) Unwrap() error {
	return ErrMaxIterations
}
