package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sweepRunner periodically calls ClearExpired on a backend until stopped.
type sweepRunner struct {
	name     string
	target   Sweeper
	interval time.Duration
	clock    func() time.Time

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// startSweeper launches the sweep loop. A non-positive interval returns a runner that does nothing.
func startSweeper(name string, target Sweeper, interval time.Duration, clock func() time.Time) *sweepRunner {
	r := &sweepRunner{name: name, target: target, interval: interval, clock: clock, done: make(chan struct{})}
	if interval <= 0 {
		slog.Debug("sweepRunner disabled", "store", name)
		close(r.done)
		return r
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.run(ctx)
	return r
}

func (r *sweepRunner) run(ctx context.Context) {
	defer close(r.done)
	slog.Info("sweepRunner.run: starting", "store", r.name, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweepRunner.run: stopping", "store", r.name)
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *sweepRunner) sweep(ctx context.Context) {
	removed, err := r.target.ClearExpired(ctx, r.clock())
	if err != nil {
		slog.Error("sweepRunner.sweep: clear expired failed", "store", r.name, "error", err)
		return
	}
	if removed > 0 {
		slog.Debug("sweepRunner.sweep: removed expired entries", "store", r.name, "count", removed)
	}
}

// stop cancels the loop and waits for it to exit. Safe to call more than once.
func (r *sweepRunner) stop() {
	r.stopOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
	<-r.done
}
