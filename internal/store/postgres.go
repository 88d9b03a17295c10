// Package store provides storage backends for FlowState.
//
// This file implements a PostgreSQL-backed expiring store, shareable between processes.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

var postgresQueries = sqlQueries{
	upsert: `INSERT INTO conversation_states (state_key, value, expires_at, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (state_key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
	selectOne:    `SELECT value, expires_at FROM conversation_states WHERE state_key = $1`,
	deleteOne:    `DELETE FROM conversation_states WHERE state_key = $1`,
	evictOne:     `DELETE FROM conversation_states WHERE state_key = $1 AND expires_at <= $2`,
	deleteBefore: `DELETE FROM conversation_states WHERE expires_at <= $1`,
}

// PostgresStore keeps conversation state in PostgreSQL.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	cfg := applyOptions(opts)
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	slog.Debug("Postgres ping successful")

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	s := &PostgresStore{sqlStore{name: "PostgresStore", db: db, q: postgresQueries, clock: cfg.Clock}}
	s.sweeper = startSweeper("postgres", s, cfg.SweepInterval, cfg.Clock)
	return s, nil
}
