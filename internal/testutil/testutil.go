// Package testutil provides shared helpers for FlowState tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/FlowState/internal/store"
)

// Epoch is the instant every Clock starts at.
var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the simulated time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// NewMemoryStore returns an in-memory store driven by clock with the background
// sweeper disabled. The store is closed when the test ends.
func NewMemoryStore(t testing.TB, clock *Clock) *store.InMemoryStore {
	t.Helper()
	st := store.NewInMemoryStore(store.WithClock(clock.Now), store.WithSweepInterval(-1))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// FailingStore returns Err from every operation except Close.
type FailingStore struct {
	Err error
}

func (f FailingStore) Put(context.Context, string, []byte, time.Duration) error { return f.Err }
func (f FailingStore) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, f.Err }
func (f FailingStore) Delete(context.Context, string) error                     { return f.Err }
func (f FailingStore) Close() error                                             { return nil }
