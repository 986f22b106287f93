package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoints in Redis so several processes can share
// conversation threads.
//
// Layout per thread (with the default prefix):
//
//	flowchat:thread:<id>          hash   node -> checkpoint bytes
//	flowchat:thread:<id>:ts       hash   node -> saved-at (unix nanos)
//	flowchat:thread:<id>:seq      zset   node scored by sequence
//	flowchat:thread:<id>:counter  string sequence counter
//	flowchat:threads              zset   thread scored by last save
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	closed atomic.Bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default "flowchat:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisTTL expires a thread's keys ttl after its last save.
// Zero (the default) keeps threads forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisStoreFromClient wraps an existing client. The store owns the
// client and closes it on Close.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "flowchat:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) dataKey(threadID string) string    { return s.prefix + "thread:" + threadID }
func (s *RedisStore) tsKey(threadID string) string      { return s.dataKey(threadID) + ":ts" }
func (s *RedisStore) seqKey(threadID string) string     { return s.dataKey(threadID) + ":seq" }
func (s *RedisStore) counterKey(threadID string) string { return s.dataKey(threadID) + ":counter" }
func (s *RedisStore) indexKey() string                  { return s.prefix + "threads" }

func (s *RedisStore) threadKeys(threadID string) []string {
	return []string{s.dataKey(threadID), s.tsKey(threadID), s.seqKey(threadID), s.counterKey(threadID)}
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, threadID, nodeID string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	seq, err := s.client.Incr(ctx, s.counterKey(threadID)).Result()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey(threadID), nodeID, data)
		pipe.HSet(ctx, s.tsKey(threadID), nodeID, strconv.FormatInt(now.UnixNano(), 10))
		pipe.ZAdd(ctx, s.seqKey(threadID), backend.Z{Score: float64(seq), Member: nodeID})
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: float64(now.UnixNano()), Member: threadID})
		if s.ttl > 0 {
			for _, key := range s.threadKeys(threadID) {
				pipe.Expire(ctx, key, s.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, threadID, nodeID string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	data, err := s.client.HGet(ctx, s.dataKey(threadID), nodeID).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, threadID string) ([]Info, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	entries, err := s.client.ZRangeWithScores(ctx, s.seqKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	stamps := make([]*backend.StringCmd, len(entries))
	sizes := make([]*backend.IntCmd, len(entries))
	for i, z := range entries {
		node := z.Member.(string)
		stamps[i] = pipe.HGet(ctx, s.tsKey(threadID), node)
		sizes[i] = pipe.HStrLen(ctx, s.dataKey(threadID), node)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("read checkpoint metadata: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for i, z := range entries {
		info := Info{
			ThreadID: threadID,
			NodeID:   z.Member.(string),
			Sequence: int(z.Score),
			Size:     sizes[i].Val(),
		}
		if nanos, err := strconv.ParseInt(stamps[i].Val(), 10, 64); err == nil {
			info.Timestamp = time.Unix(0, nanos).UTC()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Threads implements Store. Threads whose keys expired are pruned from
// the index lazily.
func (s *RedisStore) Threads(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	if s.ttl > 0 {
		cutoff := time.Now().Add(-s.ttl).UnixNano()
		if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			return nil, fmt.Errorf("prune expired threads: %w", err)
		}
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return ids, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, threadID, nodeID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	var remaining *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HDel(ctx, s.dataKey(threadID), nodeID)
		pipe.HDel(ctx, s.tsKey(threadID), nodeID)
		pipe.ZRem(ctx, s.seqKey(threadID), nodeID)
		remaining = pipe.ZCard(ctx, s.seqKey(threadID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	if remaining.Val() == 0 {
		return s.DeleteThread(ctx, threadID)
	}
	return nil
}

// DeleteThread implements Store.
func (s *RedisStore) DeleteThread(ctx context.Context, threadID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.threadKeys(threadID)...)
		pipe.ZRem(ctx, s.indexKey(), threadID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete thread checkpoints: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}
