package flowgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
)

// Pending describes a thread suspended on an interrupt.
type Pending struct {
	// NodeID is the node that will re-run when the thread resumes.
	NodeID string
	// Prompt is the text to show the human.
	Prompt string
}

// Result is the outcome of Invoke, Resume or ResumeFrom.
type Result[S any] struct {
	// State is the final state when the thread reached END, or the state
	// the suspended node received when it interrupted.
	State S
	// Pending is non-nil when the thread is awaiting input.
	Pending *Pending
}

// Interrupted reports whether the thread is awaiting input.
func (r Result[S]) Interrupted() bool {
	return r.Pending != nil
}

func resultOf[S any](state S, err error) (Result[S], error) {
	var ie *InterruptError
	if errors.As(err, &ie) {
		return Result[S]{State: state, Pending: &Pending{NodeID: ie.NodeID, Prompt: ie.Prompt}}, nil
	}
	return Result[S]{State: state}, err
}

// Snapshot is the stored position of a thread.
type Snapshot[S any] struct {
	State S
	// Next is the node that runs when the thread continues; END when the
	// thread is finished.
	Next    string
	Pending *Pending
	// Sequence is the sequence number of the checkpoint.
	Sequence int
}

// Done reports whether the thread has reached END.
func (s Snapshot[S]) Done() bool {
	return s.Next == END
}

// Snapshot returns the latest stored position of threadID without
// executing anything. Returns ErrNoCheckpoints for unknown threads.
func (cg *CompiledGraph[S]) Snapshot(ctx context.Context, store checkpoint.Store, threadID string) (Snapshot[S], error) {
	cp, err := checkpoint.Latest(ctx, store, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return Snapshot[S]{}, fmt.Errorf("%w: %s", ErrNoCheckpoints, threadID)
	}
	if err != nil {
		return Snapshot[S]{}, err
	}

	state, err := decodeState[S](cp)
	if err != nil {
		return Snapshot[S]{}, err
	}

	snap := Snapshot[S]{State: state, Next: cp.NextNode, Sequence: cp.Sequence}
	if cp.Pending != nil {
		snap.Pending = &Pending{NodeID: cp.Pending.NodeID, Prompt: cp.Pending.Prompt}
	}
	return snap, nil
}

func decodeState[S any](cp *checkpoint.Checkpoint) (S, error) {
	var state S
	if cp.Version != checkpoint.Version {
		return state, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return state, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	return state, nil
}
