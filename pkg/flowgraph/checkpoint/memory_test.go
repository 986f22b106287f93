package checkpoint_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	checkpoint.RunStoreContract(t, func(t *testing.T) checkpoint.Store {
		return checkpoint.NewMemoryStore()
	})
}

func TestMemoryStore_Len(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	assert.Equal(t, 0, store.Len())
	require.NoError(t, store.Save(ctx, "thread-1", "a", []byte("a")))
	require.NoError(t, store.Save(ctx, "thread-1", "b", []byte("b")))
	require.NoError(t, store.Save(ctx, "thread-2", "a", []byte("x")))
	assert.Equal(t, 3, store.Len())

	require.NoError(t, store.Delete(ctx, "thread-1", "a"))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.DeleteThread(ctx, "thread-1"))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ThreadsOrderedByLastSave(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Save(ctx, "older", "n", []byte("1")))
	require.NoError(t, store.Save(ctx, "newer", "n", []byte("2")))
	require.NoError(t, store.Save(ctx, "older", "m", []byte("3")))

	threads, err := store.Threads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer", "older"}, threads)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	data := []byte("original")
	require.NoError(t, store.Save(ctx, "t", "n", data))
	data[0] = 'X'

	loaded, err := store.Load(ctx, "t", "n")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), loaded)

	loaded[0] = 'Y'
	again, err := store.Load(ctx, "t", "n")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	const workers = 20
	const ops = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			thread := fmt.Sprintf("thread-%d", w)
			for i := 0; i < ops; i++ {
				node := fmt.Sprintf("node-%d", i%5)
				assert.NoError(t, store.Save(ctx, thread, node, []byte(node)))
				_, err := store.Load(ctx, thread, node)
				assert.NoError(t, err)
				_, err = store.List(ctx, thread)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*5, store.Len())
}
