package store

import (
	"context"
	"fmt"
	"log/slog"
)

// Open constructs the named backend. An empty backend selects the in-memory store.
func Open(ctx context.Context, backend Backend, opts ...Option) (Store, error) {
	slog.Debug("store.Open", "backend", backend)
	switch backend {
	case "", BackendMemory:
		return NewInMemoryStore(opts...), nil
	case BackendSQLite:
		return NewSQLiteStore(opts...)
	case BackendPostgres:
		return NewPostgresStore(opts...)
	case BackendDynamoDB:
		return NewDynamoStoreFromEnv(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// BackendForDSN picks the SQL backend matching a DSN.
func BackendForDSN(dsn string) Backend {
	if DetectDSNType(dsn) == "postgres" {
		return BackendPostgres
	}
	return BackendSQLite
}
