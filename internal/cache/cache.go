// Package cache provides a small in-process TTL cache used to serve stale
// reads between ingestion runs. It is an acceptable-staleness optimization
// only; the database remains the source of truth.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value  any
	expiry time.Time
}

// Memory is a mutex-guarded map with per-entry expiry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemory returns an empty cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

// Get returns the value stored under key, or ok=false on a miss or an
// expired entry.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expiry) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expiry: time.Now().Add(ttl)}
}

// Delete removes key from the cache.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}
