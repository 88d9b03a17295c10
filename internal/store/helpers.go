package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// sqlQueries holds the dialect-specific statements of a SQL-backed store.
type sqlQueries struct {
	upsert       string
	selectOne    string
	deleteOne    string
	evictOne     string
	deleteBefore string
}

// sqlStore implements Store on database/sql. SQLiteStore and PostgresStore embed it.
type sqlStore struct {
	name    string
	db      *sql.DB
	q       sqlQueries
	clock   func() time.Time
	sweeper *sweepRunner
}

// toMillis converts a timestamp to the epoch milliseconds stored in expires_at.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func (s *sqlStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("put %s: %w", key, ErrInvalidTTL)
	}
	now := s.clock()
	_, err := s.db.ExecContext(ctx, s.q.upsert, key, value, toMillis(now.Add(ttl)), toMillis(now))
	if err != nil {
		slog.Error(s.name+" Put failed", "error", err, "key", key)
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	slog.Debug(s.name+" Put succeeded", "key", key, "ttl", ttl)
	return nil
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.q.selectOne, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		slog.Error(s.name+" Get failed", "error", err, "key", key)
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	now := toMillis(s.clock())
	if expiresAt <= now {
		// The expires_at guard keeps a concurrent refresh from being deleted.
		if _, err := s.db.ExecContext(ctx, s.q.evictOne, key, now); err != nil {
			slog.Error(s.name+" Get eviction failed", "error", err, "key", key)
			return nil, false, fmt.Errorf("failed to evict %s: %w", key, err)
		}
		slog.Debug(s.name+" Get evicted expired entry", "key", key)
		return nil, false, nil
	}
	return value, true, nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.deleteOne, key); err != nil {
		slog.Error(s.name+" Delete failed", "error", err, "key", key)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	slog.Debug(s.name+" Delete succeeded", "key", key)
	return nil
}

func (s *sqlStore) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q.deleteBefore, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared entries: %w", err)
	}
	return int(n), nil
}

// Close stops the sweeper and closes the database connection.
func (s *sqlStore) Close() error {
	s.sweeper.stop()
	slog.Debug("Closing " + s.name + " database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close "+s.name+" database", "error", err)
	} else {
		slog.Debug(s.name + " database connection closed successfully")
	}
	return err
}
