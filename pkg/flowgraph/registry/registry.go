package registry

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
)

// ErrDuplicate is returned when a name is registered twice.
var ErrDuplicate = errors.New("already registered")

// Registry is a thread-safe set of named values that remembers
// registration order.
type Registry[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	order   []string
}

// New creates a new empty registry.
func New[V any]() *Registry[V] {
	return &Registry[V]{
		entries: make(map[string]V),
	}
}

// Register adds value under name. Names are unique.
func (r *Registry[V]) Register(name string, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.entries[name] = value
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for init-time wiring. It panics on duplicates.
func (r *Registry[V]) MustRegister(name string, value V) {
	if err := r.Register(name, value); err != nil {
		panic(err)
	}
}

// Get returns the value for name and whether it exists.
func (r *Registry[V]) Get(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// Has reports whether name is registered.
func (r *Registry[V]) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Delete removes name. Deleting an unknown name is a no-op.
func (r *Registry[V]) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
}

// Names returns registered names in registration order.
func (r *Registry[V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of entries.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All iterates over a snapshot of the entries in registration order. The
// registry may be modified during iteration.
func (r *Registry[V]) All() iter.Seq2[string, V] {
	r.mu.RLock()
	names := slices.Clone(r.order)
	values := make([]V, len(names))
	for i, n := range names {
		values[i] = r.entries[n]
	}
	r.mu.RUnlock()

	return func(yield func(string, V) bool) {
		for i, n := range names {
			if !yield(n, values[i]) {
				return
			}
		}
	}
}
