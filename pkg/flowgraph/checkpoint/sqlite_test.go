package checkpoint_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	checkpoint.RunStoreContract(t, func(t *testing.T) checkpoint.Store {
		store, err := checkpoint.NewSQLiteStore(filepath.Join(t.TempDir(), "threads.db"))
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := checkpoint.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "t", "n", []byte("x")))
	data, err := store.Load(ctx, "t", "n")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "threads.db")

	first, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "thread-1", "ask_age", []byte("persistent")))
	require.NoError(t, first.Close())

	second, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	data, err := second.Load(ctx, "thread-1", "ask_age")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), data)

	threads, err := second.Threads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"thread-1"}, threads)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := checkpoint.NewSQLiteStore("/nonexistent/path/threads.db")
	assert.Error(t, err)
}

func TestSQLiteStore_CanceledContext(t *testing.T) {
	store, err := checkpoint.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, "t", "n", []byte("x")))
}
