package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Version is the current checkpoint format version.
// Version 2 added thread scoping and pending interrupts.
const Version = 2

// Checkpoint is the persisted snapshot of a thread after a node ran or
// suspended. It holds everything needed to continue the conversation.
type Checkpoint struct {
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`

	Attempt    int    `json:"attempt"`
	PrevNodeID string `json:"prev_node_id,omitempty"`

	// Pending is set when the thread is suspended waiting for input.
	// NextNode then names the suspended node, which re-runs on resume.
	Pending *Pending `json:"pending,omitempty"`
}

// Pending describes an interrupt awaiting a resume value.
type Pending struct {
	NodeID string `json:"node_id"`
	Prompt string `json:"prompt"`
}

// Suspended reports whether the thread stopped on an interrupt.
func (c *Checkpoint) Suspended() bool {
	return c.Pending != nil
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// New creates a checkpoint. State must already be JSON-serialized.
func New(threadID, nodeID string, sequence int, state []byte, nextNode string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ThreadID:  threadID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
		Attempt:   1,
	}
}

// WithAttempt sets the attempt number for retry tracking.
func (c *Checkpoint) WithAttempt(attempt int) *Checkpoint {
	c.Attempt = attempt
	return c
}

// WithPrevNode sets the previous node ID for debugging.
func (c *Checkpoint) WithPrevNode(prevNodeID string) *Checkpoint {
	c.PrevNodeID = prevNodeID
	return c
}

// WithPending marks the checkpoint as suspended on nodeID.
func (c *Checkpoint) WithPending(nodeID, prompt string) *Checkpoint {
	c.Pending = &Pending{NodeID: nodeID, Prompt: prompt}
	return c
}

// Latest loads and decodes the most recent checkpoint of a thread.
// Returns ErrNotFound when the thread has no checkpoints.
func Latest(ctx context.Context, store Store, threadID string) (*Checkpoint, error) {
	infos, err := store.List(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}

	data, err := store.Load(ctx, threadID, infos[len(infos)-1].NodeID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	cp, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}
