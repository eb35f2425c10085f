package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. State is lost on restart
// and is not shared between instances.
type MemoryLimiter struct {
	Options
	Logger        *slog.Logger
	SweepInterval time.Duration

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMemoryLimiter creates a limiter. If sweepInterval is 0 or negative it
// defaults to 30 minutes.
func NewMemoryLimiter(opts Options, sweepInterval time.Duration, logger *slog.Logger) *MemoryLimiter {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryLimiter{
		Options:       opts,
		Logger:        logger,
		SweepInterval: sweepInterval,
		Now:           time.Now,
		entries:       make(map[string]*entry),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

func (l *MemoryLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *MemoryLimiter) Check(_ context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(l.window())}
		l.entries[key] = e
		return Result{Allowed: true, ResetAt: e.resetAt}, nil
	}

	if e.count >= l.Max {
		return Result{Allowed: false, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Result{Allowed: true, ResetAt: e.resetAt}, nil
}

func (l *MemoryLimiter) Remaining(_ context.Context, key string) (int, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		return l.Max, nil
	}
	return remaining(l.Max, e.count), nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
	return nil
}

// Sweep drops every entry whose window has elapsed and reports how many
// went. Check treats elapsed entries as absent anyway, so this only bounds
// memory.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Start begins the background sweeper. It is non-blocking; call Stop to
// shut it down.
func (l *MemoryLimiter) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
	l.Logger.Info("rate limit sweeper started", "interval", l.SweepInterval)
}

// Stop shuts down the sweeper and blocks until it has exited. Safe to call
// more than once, or without Start.
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		if l.started.Load() {
			<-l.doneCh
		}
		l.Logger.Info("rate limit sweeper stopped")
	})
}

func (l *MemoryLimiter) run() {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.Logger.Debug("swept expired rate limit entries", "removed", n)
			}
		case <-l.stopCh:
			return
		}
	}
}
