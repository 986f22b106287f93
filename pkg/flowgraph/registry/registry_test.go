package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[int]()
	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())
}

func TestRegisterAndGet(t *testing.T) {
	r := New[int]()

	require.NoError(t, r.Register("one", 1))
	require.NoError(t, r.Register("two", 2))

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)

	assert.True(t, r.Has("two"))
	assert.False(t, r.Has("three"))
}

func TestRegisterDuplicate(t *testing.T) {
	r := New[string]()

	require.NoError(t, r.Register("key", "old"))
	err := r.Register("key", "new")
	assert.ErrorIs(t, err, ErrDuplicate)

	v, _ := r.Get("key")
	assert.Equal(t, "old", v)
	assert.Panics(t, func() { r.MustRegister("key", "again") })
}

func TestOrder(t *testing.T) {
	r := New[int]()
	for i, name := range []string{"zeta", "alpha", "mid"} {
		r.MustRegister(name, i)
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Names())

	r.Delete("alpha")
	r.Delete("missing")
	assert.Equal(t, []string{"zeta", "mid"}, r.Names())
	assert.Equal(t, 2, r.Len())

	r.MustRegister("alpha", 9)
	assert.Equal(t, []string{"zeta", "mid", "alpha"}, r.Names())
}

func TestAll(t *testing.T) {
	r := New[int]()
	r.MustRegister("a", 1)
	r.MustRegister("b", 2)
	r.MustRegister("c", 3)

	var names []string
	sum := 0
	for name, v := range r.All() {
		names = append(names, name)
		sum += v
		// Mutation during iteration does not affect the snapshot.
		r.Delete("c")
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Equal(t, 6, sum)
	assert.Equal(t, 2, r.Len())

	count := 0
	for range r.All() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestConcurrentAccess(t *testing.T) {
	r := New[int]()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(fmt.Sprintf("k%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_ = r.Names()
			_, _ = r.Get(fmt.Sprintf("k%d", i))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}
