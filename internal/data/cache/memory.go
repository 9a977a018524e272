package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process TTL cache used when no Redis address is
// configured. Expired entries are reaped lazily on read and evicted LRU
// once the entry budget is reached.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	maxEntries int
}

type memoryEntry struct {
	value    []byte
	expires  time.Time
	accessed time.Time
}

// NewMemory creates an in-process cache bounded to maxEntries.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Memory{
		entries:    make(map[string]*memoryEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the cached bytes and whether the key was present and fresh.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(m.entries, key)
		return nil, false
	}

	entry.accessed = time.Now()
	return entry.value, true
}

// Set stores bytes under a TTL, evicting the least recently used entry
// when the budget is full.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLRU()
	}

	now := time.Now()
	m.entries[key] = &memoryEntry{
		value:    value,
		expires:  now.Add(ttl),
		accessed: now,
	}
}

// evictLRU removes the least recently accessed entry. Caller holds the
// lock.
func (m *Memory) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range m.entries {
		if oldestKey == "" || entry.accessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.accessed
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
