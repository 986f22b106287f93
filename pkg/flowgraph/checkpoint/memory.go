package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps checkpoints in process memory.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*memoryThread
	clock   int64
	closed  bool
}

type memoryThread struct {
	nodes   map[string]memoryEntry
	touched int64
}

type memoryEntry struct {
	data      []byte
	sequence  int
	timestamp time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*memoryThread)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, threadID, nodeID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	th := m.threads[threadID]
	if th == nil {
		th = &memoryThread{nodes: make(map[string]memoryEntry)}
		m.threads[threadID] = th
	}

	seq := 1
	for _, e := range th.nodes {
		if e.sequence >= seq {
			seq = e.sequence + 1
		}
	}

	m.clock++
	th.touched = m.clock
	th.nodes[nodeID] = memoryEntry{
		data:      append([]byte(nil), data...),
		sequence:  seq,
		timestamp: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, threadID, nodeID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	th, ok := m.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	e, ok := th.nodes[nodeID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.data...), nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, threadID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	th, ok := m.threads[threadID]
	if !ok {
		return nil, nil
	}

	infos := make([]Info, 0, len(th.nodes))
	for nodeID, e := range th.nodes {
		infos = append(infos, Info{
			ThreadID:  threadID,
			NodeID:    nodeID,
			Sequence:  e.sequence,
			Timestamp: e.timestamp,
			Size:      int64(len(e.data)),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})
	return infos, nil
}

// Threads implements Store.
func (m *MemoryStore) Threads(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0, len(m.threads))
	for id := range m.threads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.threads[ids[i]].touched < m.threads[ids[j]].touched
	})
	return ids, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, threadID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if th, ok := m.threads[threadID]; ok {
		delete(th.nodes, nodeID)
		if len(th.nodes) == 0 {
			delete(m.threads, threadID)
		}
	}
	return nil
}

// DeleteThread implements Store.
func (m *MemoryStore) DeleteThread(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.threads, threadID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.threads = nil
	return nil
}

// Len returns the total number of checkpoints across all threads.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, th := range m.threads {
		n += len(th.nodes)
	}
	return n
}
