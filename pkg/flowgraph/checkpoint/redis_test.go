package checkpoint_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, opts ...checkpoint.RedisOption) (*checkpoint.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return checkpoint.NewRedisStoreFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	checkpoint.RunStoreContract(t, func(t *testing.T) checkpoint.Store {
		store, _ := newRedisStore(t)
		return store
	})
}

func TestRedisStore_Prefix(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, checkpoint.WithRedisPrefix("test:"))
	defer store.Close()

	require.NoError(t, store.Save(ctx, "thread-1", "ask", []byte("x")))

	assert.True(t, mr.Exists("test:thread:thread-1"))
	assert.True(t, mr.Exists("test:threads"))
	assert.False(t, mr.Exists("flowchat:thread:thread-1"))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, checkpoint.WithRedisTTL(time.Minute))
	defer store.Close()

	require.NoError(t, store.Save(ctx, "thread-1", "ask", []byte("x")))
	assert.Equal(t, time.Minute, mr.TTL("flowchat:thread:thread-1"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "thread-1", "ask")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestRedisStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	defer store.Close()

	mr.Close()

	err := store.Save(ctx, "thread-1", "ask", []byte("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, checkpoint.ErrNotFound)
}
