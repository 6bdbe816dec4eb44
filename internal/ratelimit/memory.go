package ratelimit

import (
	"sync"
	"time"
)

// MemoryFixedWindow is the single-instance limiter used when Redis is not
// configured. Counts reset at fixed window boundaries.
type MemoryFixedWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	counts map[string]int
	slot   int64
}

// NewMemoryFixedWindow creates an in-process limiter.
func NewMemoryFixedWindow(limit int, window time.Duration) *MemoryFixedWindow {
	return &MemoryFixedWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
		counts: make(map[string]int),
	}
}

// Allow returns true when the key is within quota for the current window.
func (l *MemoryFixedWindow) Allow(key string) (bool, time.Duration) {
	nowMs := l.now().UTC().UnixMilli()
	windowMs := l.window.Milliseconds()
	slot := nowMs / windowMs
	retryAfter := time.Duration((slot+1)*windowMs-nowMs) * time.Millisecond

	l.mu.Lock()
	defer l.mu.Unlock()
	if slot != l.slot {
		l.slot = slot
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= l.limit, retryAfter
}

var _ Limiter = (*RedisFixedWindow)(nil)
var _ Limiter = (*MemoryFixedWindow)(nil)
