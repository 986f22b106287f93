// Package checkpoint persists conversation threads between graph
// invocations so a suspended thread can be resumed later.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// Store persists checkpoints keyed by thread and node.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a checkpoint for a thread at a specific node, overwriting
	// any previous checkpoint for (threadID, nodeID). The saved checkpoint
	// receives the highest sequence number in the thread.
	Save(ctx context.Context, threadID, nodeID string, data []byte) error

	// Load retrieves a checkpoint. Returns ErrNotFound if it doesn't exist.
	Load(ctx context.Context, threadID, nodeID string) ([]byte, error)

	// List returns all checkpoints for a thread, ordered by sequence.
	// Returns an empty slice (not an error) for unknown threads.
	List(ctx context.Context, threadID string) ([]Info, error)

	// Threads returns the IDs of all stored threads, least recently
	// updated first.
	Threads(ctx context.Context) ([]string, error)

	// Delete removes a specific checkpoint. Missing checkpoints are not an error.
	Delete(ctx context.Context, threadID, nodeID string) error

	// DeleteThread removes all checkpoints for a thread.
	DeleteThread(ctx context.Context, threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading full state.
type Info struct {
	ThreadID  string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
