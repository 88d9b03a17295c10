package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

// memoryShardCount is the number of independently locked partitions of the in-memory store.
const memoryShardCount = 32

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryShard struct {
	mu    sync.Mutex
	items map[string]memoryEntry
}

// InMemoryStore is a process-local expiring store. Keys are spread over shards,
// each with its own lock, so the sweeper never holds more than one shard at a time.
type InMemoryStore struct {
	shards  [memoryShardCount]*memoryShard
	clock   func() time.Time
	sweeper *sweepRunner
}

// NewInMemoryStore creates an in-memory store and starts its background sweeper.
// Call Close to stop the sweeper.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	cfg := applyOptions(opts)
	s := &InMemoryStore{clock: cfg.Clock}
	for i := range s.shards {
		s.shards[i] = &memoryShard{items: make(map[string]memoryEntry)}
	}
	slog.Debug("NewInMemoryStore created", "shards", memoryShardCount, "sweepInterval", cfg.SweepInterval)
	s.sweeper = startSweeper("memory", s, cfg.SweepInterval, cfg.Clock)
	return s
}

func (s *InMemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShardCount]
}

// Put stores a copy of value under key for ttl.
func (s *InMemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("put %s: %w", key, ErrInvalidTTL)
	}
	entry := memoryEntry{value: append([]byte(nil), value...), expiresAt: s.clock().Add(ttl)}

	sh := s.shard(key)
	sh.mu.Lock()
	sh.items[key] = entry
	sh.mu.Unlock()
	return nil
}

// Get returns a copy of the value under key, evicting it if it has expired.
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.clock()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.items[key]
	if !ok {
		return nil, false, nil
	}
	if !now.Before(entry.expiresAt) {
		delete(sh.items, key)
		slog.Debug("InMemoryStore.Get evicted expired entry", "key", key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Delete removes key.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()
	return nil
}

// ClearExpired deletes expired entries shard by shard.
func (s *InMemoryStore) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		sh.mu.Lock()
		for key, entry := range sh.items {
			if !now.Before(entry.expiresAt) {
				delete(sh.items, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (s *InMemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.items)
		sh.mu.Unlock()
	}
	return n
}

// Close stops the background sweeper.
func (s *InMemoryStore) Close() error {
	s.sweeper.stop()
	slog.Debug("InMemoryStore closed")
	return nil
}
