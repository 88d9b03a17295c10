// Package store provides expiring key-value storage backends for FlowState.
//
// Every backend honors the same contract: values carry a TTL, reads evict expired
// entries, and a background sweeper bounds memory held by entries nobody re-reads.
// The in-memory store is the default; SQLite, PostgreSQL and DynamoDB backends let
// conversation state survive a restart or be shared between processes.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Default configuration constants
const (
	// DefaultSweepInterval is how often expired entries are proactively deleted
	DefaultSweepInterval = 5 * time.Minute
	// DefaultDynamoTable is the DynamoDB table used when none is configured
	DefaultDynamoTable = "conversation_states"
)

// ErrInvalidTTL is returned by Put when the TTL is not positive.
var ErrInvalidTTL = errors.New("ttl must be positive")

// Store is an expiring key-value store.
type Store interface {
	// Put writes value under key, replacing any previous value and TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value under key. Expired entries are deleted and reported absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close stops background work and releases resources.
	Close() error
}

// Sweeper is implemented by backends that can proactively delete expired entries.
type Sweeper interface {
	// ClearExpired deletes every entry expired at now and returns how many were removed.
	ClearExpired(ctx context.Context, now time.Time) (int, error)
}

// Backend names a storage implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendDynamoDB Backend = "dynamodb"
)

// Opts holds configuration shared by all backends.
type Opts struct {
	DSN           string
	SweepInterval time.Duration
	Clock         func() time.Time
	TableName     string
}

// Option configures a store.
type Option func(*Opts)

// WithDSN sets the database DSN for SQL backends.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return WithDSN(dsn)
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return WithDSN(dsn)
}

// WithSweepInterval sets the background sweep period. A negative interval disables the sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(o *Opts) { o.SweepInterval = d }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// WithTableName sets the DynamoDB table name.
func WithTableName(name string) Option {
	return func(o *Opts) { o.TableName = name }
}

func applyOptions(opts []Option) Opts {
	cfg := Opts{SweepInterval: DefaultSweepInterval, Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return cfg
}

// DetectDSNType returns "postgres" for PostgreSQL URLs or key/value DSNs and "sqlite" otherwise.
func DetectDSNType(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
