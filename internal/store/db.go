// Package store persists sources, push history and digests in a single
// sqlite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS push_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url_hash TEXT NOT NULL UNIQUE,
		title_hash TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		digest_type TEXT NOT NULL,
		pushed_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_push_history_title_hash ON push_history(title_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_push_history_pushed_at ON push_history(pushed_at)`,
	`CREATE TABLE IF NOT EXISTS digests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL
	)`,
}

// DB wraps the sqlite handle and serializes writes in-process. sqlite's
// unique constraint provides idempotent insert across processes.
type DB struct {
	sql *sql.DB

	// writeMu guards all write statements; sqlite tolerates one writer.
	writeMu sync.Mutex
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, stmt := range schemaStmts {
		if _, err := sqlDB.Exec(stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &DB{sql: sqlDB}, nil
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.sql.Close()
}
