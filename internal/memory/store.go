// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/council-engine/council/lib/clock"
	"github.com/council-engine/council/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS member_memory (
	member_id   TEXT NOT NULL,
	id          TEXT NOT NULL,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	summary     TEXT NOT NULL,
	importance  INTEGER NOT NULL,
	confidence  REAL NOT NULL,
	evidence    TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (member_id, id)
);

CREATE TABLE IF NOT EXISTS council_memory (
	id          TEXT NOT NULL PRIMARY KEY,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	summary     TEXT NOT NULL,
	importance  INTEGER NOT NULL,
	confidence  REAL NOT NULL,
	evidence    TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_digest (
	member_id  TEXT NOT NULL,
	session_id TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (member_id, session_id)
);
`

// Store is the SQLite-backed memory store. member_id "" identifies
// council-scoped session digest rows; member and council records live
// in separate tables since their prune bounds and query shapes differ.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Config holds the parameters for opening a memory store.
type Config struct {
	// MemoryDir is the directory containing the store's SQLite file
	// and the rendered markdown/JSON snapshots. Created if absent.
	MemoryDir string
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Open creates or opens the memory store at cfg.MemoryDir/memory.db.
func Open(cfg Config) (*Store, error) {
	if cfg.MemoryDir == "" {
		return nil, fmt.Errorf("memory: MemoryDir is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("memory: Clock is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(cfg.MemoryDir, "memory.db"),
		PoolSize: 1,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}

	return &Store{pool: pool, clock: cfg.Clock, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	return conn, nil
}
