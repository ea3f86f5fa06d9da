package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// entry is one stored value with its expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore implements Store with an in-process map.
//
// A background goroutine evicts expired entries every minute to bound memory.
// Reads also check expiry, so eviction lag never serves stale values.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore creates an in-process store. Call Close to stop the
// eviction goroutine.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go m.cleanup()
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern (path.Match syntax,
// same semantics as the Redis implementation for the patterns we use).
func (m *MemoryStore) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close stops the eviction goroutine. Safe to call multiple times.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *MemoryStore) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
