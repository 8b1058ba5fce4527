// Package cache provides the result cache that shields the aggregation
// pipeline from repeated recomputation. The cache is an injected dependency
// of the service layer so tests can substitute their own implementation.
package cache

import (
	"sync"
	"time"
)

// Cache is the key/value contract the service layer depends on. Values are
// serialized payloads; TTL semantics are owned by the implementation.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Invalidate(key string)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Cache with per-entry TTLs. Expired entries are
// dropped lazily on read and swept by a janitor goroutine.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	stop    chan struct{}
}

// NewMemory returns a Memory cache whose janitor sweeps at the given
// interval. A non-positive interval disables the sweep.
func NewMemory(sweep time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	if sweep > 0 {
		go m.janitor(sweep)
	}
	return m
}

// Get returns the cached value for key if present and unexpired.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.Invalidate(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl is a no-op.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Invalidate removes key if present.
func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// InvalidateAll drops every entry.
func (m *Memory) InvalidateAll() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// Close stops the janitor.
func (m *Memory) Close() {
	close(m.stop)
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
