package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go driver
)

var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS thread_checkpoints (
	thread_id  TEXT NOT NULL,
	node_id    TEXT NOT NULL,
	sequence   INTEGER NOT NULL,
	saved_at   TEXT NOT NULL,
	data       BLOB NOT NULL,
	PRIMARY KEY (thread_id, node_id)
)`, `
CREATE INDEX IF NOT EXISTS idx_thread_checkpoints_seq
	ON thread_checkpoints(thread_id, sequence)`,
}

// SQLiteStore persists checkpoints to a SQLite database file.
// Suitable for a single process that must survive restarts.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) the database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection, so ":memory:" databases are shared by every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, threadID, nodeID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thread_checkpoints (thread_id, node_id, sequence, saved_at, data)
		VALUES (
			?1, ?2,
			COALESCE((SELECT MAX(sequence) FROM thread_checkpoints WHERE thread_id = ?1), 0) + 1,
			?3, ?4
		)
		ON CONFLICT(thread_id, node_id) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM thread_checkpoints WHERE thread_id = excluded.thread_id) + 1,
			saved_at = excluded.saved_at,
			data = excluded.data
	`, threadID, nodeID, time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, threadID, nodeID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM thread_checkpoints
		WHERE thread_id = ? AND node_id = ?
	`, threadID, nodeID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, threadID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, sequence, saved_at, LENGTH(data)
		FROM thread_checkpoints
		WHERE thread_id = ?
		ORDER BY sequence
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info    Info
			savedAt string
		)
		if err := rows.Scan(&info.NodeID, &info.Sequence, &savedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan checkpoint info: %w", err)
		}
		info.ThreadID = threadID
		info.Timestamp, _ = time.Parse(time.RFC3339Nano, savedAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return infos, nil
}

// Threads implements Store.
func (s *SQLiteStore) Threads(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id FROM thread_checkpoints
		GROUP BY thread_id
		ORDER BY MAX(saved_at), thread_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan thread id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, threadID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM thread_checkpoints WHERE thread_id = ? AND node_id = ?`,
		threadID, nodeID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// DeleteThread implements Store.
func (s *SQLiteStore) DeleteThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM thread_checkpoints WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete thread checkpoints: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
