// Package store provides storage backends for FlowState.
//
// This file implements an SQLite-backed expiring store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BTreeMap/FlowState/internal/lockfile"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

var sqliteQueries = sqlQueries{
	upsert: `INSERT INTO conversation_states (state_key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(state_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
	selectOne:    `SELECT value, expires_at FROM conversation_states WHERE state_key = ?`,
	deleteOne:    `DELETE FROM conversation_states WHERE state_key = ?`,
	evictOne:     `DELETE FROM conversation_states WHERE state_key = ? AND expires_at <= ?`,
	deleteBefore: `DELETE FROM conversation_states WHERE expires_at <= ?`,
}

// SQLiteStore keeps conversation state in a local SQLite file so it survives restarts.
type SQLiteStore struct {
	sqlStore
	lock *lockfile.Lock
}

// sqliteLockTarget returns the database file a DSN points at, or "" for in-memory databases.
func sqliteLockTarget(dsn string) string {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	cfg := applyOptions(opts)
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	var lock *lockfile.Lock
	if target := sqliteLockTarget(dsn); target != "" {
		l, err := lockfile.Acquire(target)
		if err != nil {
			return nil, err
		}
		lock = l
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		lock.Release()
		return nil, err
	}
	// A single writer avoids "database is locked" errors under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		lock.Release()
		return nil, err
	}
	slog.Debug("SQLite ping successful")

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		lock.Release()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	s := &SQLiteStore{sqlStore: sqlStore{name: "SQLiteStore", db: db, q: sqliteQueries, clock: cfg.Clock}, lock: lock}
	s.sweeper = startSweeper("sqlite", s, cfg.SweepInterval, cfg.Clock)
	return s, nil
}

// Close closes the database and releases the state file lock.
func (s *SQLiteStore) Close() error {
	err := s.sqlStore.Close()
	if rerr := s.lock.Release(); err == nil {
		err = rerr
	}
	return err
}
