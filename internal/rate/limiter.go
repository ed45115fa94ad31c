// Package rate holds the fixed-window limiter used to throttle scan requests per client.
package rate

import (
	"sync"
	"time"
)

// WindowLimiter allows at most limit calls per key within each window. A limit of zero or
// less disables limiting.
type WindowLimiter struct {
	mu              sync.Mutex
	limit           int
	window          time.Duration
	items           map[string]*windowEntry
	lastCleanup     time.Time
	cleanupInterval time.Duration
	now             func() time.Time
}

type windowEntry struct {
	start time.Time
	count int
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return NewWindowLimiterWithClock(limit, window, time.Now)
}

// NewWindowLimiterWithClock is NewWindowLimiter with an injected clock.
func NewWindowLimiterWithClock(limit int, window time.Duration, now func() time.Time) *WindowLimiter {
	if now == nil {
		now = time.Now
	}
	return &WindowLimiter{
		limit:           limit,
		window:          window,
		items:           make(map[string]*windowEntry),
		lastCleanup:     now(),
		cleanupInterval: window,
		now:             now,
	}
}

// Allow records a call for key and reports whether it fits in the current window.
func (l *WindowLimiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeCleanup(now)

	entry, ok := l.items[key]
	if !ok {
		l.items[key] = &windowEntry{start: now, count: 1}
		return true
	}
	if now.Sub(entry.start) >= l.window {
		entry.start = now
		entry.count = 1
		return true
	}
	if entry.count >= l.limit {
		return false
	}
	entry.count++
	return true
}

// Len returns the number of keys currently tracked.
func (l *WindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *WindowLimiter) maybeCleanup(now time.Time) {
	if l.cleanupInterval <= 0 || l.window <= 0 {
		return
	}
	if !l.lastCleanup.IsZero() && now.Sub(l.lastCleanup) < l.cleanupInterval {
		return
	}
	for key, entry := range l.items {
		if now.Sub(entry.start) >= l.window {
			delete(l.items, key)
		}
	}
	l.lastCleanup = now
}
