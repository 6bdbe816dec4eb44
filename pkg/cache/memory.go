package cache

import (
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Expiry is checked lazily on Get and a
// background sweep reclaims memory from expired entries that are never read
// again. Safe for concurrent use.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewMemory builds a cache sweeping at the given interval. A non-positive
// interval uses the default of one minute.
func NewMemory[T any](sweepInterval time.Duration) *Memory[T] {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	m := &Memory[T]{
		entries: make(map[string]entry[T]),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go m.sweepLoop(sweepInterval)
	return m
}

// Get returns the cached value if present and unexpired. An expired entry is
// deleted and reported as a miss.
func (m *Memory[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if cur, still := m.entries[key]; still && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores the value with the given TTL.
func (m *Memory[T]) Set(key string, value T, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = entry[T]{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
}

// Delete removes a key.
func (m *Memory[T]) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len returns the current entry count, expired entries included until swept.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the background sweep. The cache remains usable afterward but
// relies solely on lazy expiry.
func (m *Memory[T]) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory[T]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory[T]) sweep() {
	now := m.now()
	m.mu.Lock()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}
