package checkpoint

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract verifies that a Store implementation honours the
// behaviour the graph executor and driver rely on. newStore must return a
// fresh, empty store on every call.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		data := []byte(`{"age":35}`)
		require.NoError(t, store.Save(ctx, "thread-1", "ask_age", data))

		loaded, err := store.Load(ctx, "thread-1", "ask_age")
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run("load missing", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Load(ctx, "no-such-thread", "ask_age")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.Save(ctx, "thread-1", "ask_age", []byte("x")))
		_, err = store.Load(ctx, "thread-1", "no-such-node")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("overwrite moves node to the end", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, "thread-1", "ask", []byte("first")))
		require.NoError(t, store.Save(ctx, "thread-1", "validate", []byte("v")))
		require.NoError(t, store.Save(ctx, "thread-1", "ask", []byte("second")))

		loaded, err := store.Load(ctx, "thread-1", "ask")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)

		infos, err := store.List(ctx, "thread-1")
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "validate", infos[0].NodeID)
		assert.Equal(t, "ask", infos[1].NodeID)
		assert.Greater(t, infos[1].Sequence, infos[0].Sequence)
	})

	t.Run("list empty", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		infos, err := store.List(ctx, "no-such-thread")
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("list ordered with metadata", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for i, node := range []string{"a", "b", "c"} {
			require.NoError(t, store.Save(ctx, "thread-1", node, make([]byte, i+1)))
		}

		infos, err := store.List(ctx, "thread-1")
		require.NoError(t, err)
		require.Len(t, infos, 3)
		for i, info := range infos {
			assert.Equal(t, "thread-1", info.ThreadID)
			assert.Equal(t, string(rune('a'+i)), info.NodeID)
			assert.Equal(t, i+1, info.Sequence)
			assert.Equal(t, int64(i+1), info.Size)
			assert.False(t, info.Timestamp.IsZero())
		}
	})

	t.Run("threads are isolated", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, "thread-a", "n", []byte("a")))
		require.NoError(t, store.Save(ctx, "thread-b", "n", []byte("b")))

		a, err := store.Load(ctx, "thread-a", "n")
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), a)

		infos, err := store.List(ctx, "thread-b")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, 1, infos[0].Sequence)

		threads, err := store.Threads(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"thread-a", "thread-b"}, threads)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, "thread-1", "a", []byte("a")))
		require.NoError(t, store.Save(ctx, "thread-1", "b", []byte("b")))
		require.NoError(t, store.Delete(ctx, "thread-1", "a"))
		require.NoError(t, store.Delete(ctx, "thread-1", "missing"))

		_, err := store.Load(ctx, "thread-1", "a")
		assert.ErrorIs(t, err, ErrNotFound)

		infos, err := store.List(ctx, "thread-1")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "b", infos[0].NodeID)
	})

	t.Run("delete thread", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for i := 0; i < 3; i++ {
			require.NoError(t, store.Save(ctx, "doomed", fmt.Sprintf("n%d", i), []byte("x")))
		}
		require.NoError(t, store.Save(ctx, "kept", "n0", []byte("y")))
		require.NoError(t, store.DeleteThread(ctx, "doomed"))
		require.NoError(t, store.DeleteThread(ctx, "never-existed"))

		infos, err := store.List(ctx, "doomed")
		require.NoError(t, err)
		assert.Empty(t, infos)

		threads, err := store.Threads(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, threads)
	})

	t.Run("latest", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := Latest(ctx, store, "thread-1")
		assert.ErrorIs(t, err, ErrNotFound)

		first, err := New("thread-1", "ask", 1, []byte(`{}`), "validate").Marshal()
		require.NoError(t, err)
		second, err := New("thread-1", "validate", 2, []byte(`{}`), "ask").
			WithPending("ask", "Please enter your age:").Marshal()
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, "thread-1", "ask", first))
		require.NoError(t, store.Save(ctx, "thread-1", "validate", second))

		cp, err := Latest(ctx, store, "thread-1")
		require.NoError(t, err)
		assert.Equal(t, "validate", cp.NodeID)
		require.True(t, cp.Suspended())
		assert.Equal(t, "Please enter your age:", cp.Pending.Prompt)
	})

	t.Run("closed", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.Save(ctx, "t", "n", []byte("x")), ErrStoreClosed)
		_, err := store.Load(ctx, "t", "n")
		assert.ErrorIs(t, err, ErrStoreClosed)
		_, err = store.List(ctx, "t")
		assert.ErrorIs(t, err, ErrStoreClosed)
		_, err = store.Threads(ctx)
		assert.ErrorIs(t, err, ErrStoreClosed)
	})
}
