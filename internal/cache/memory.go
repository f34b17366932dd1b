// Package cache provides the two caching tiers used by the server: an
// in-process TTL map for hot responses (Memory) and a durable byte-key
// store for expensive aggregates (Store, with bolt and sqlite backends).
package cache

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the ephemeral tier when no capacity is configured.
const DefaultCapacity = 1024

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a capacity-bounded in-process cache with a per-entry TTL.
// Entries past their deadline are treated as absent and removed on read.
// When full, a write evicts one expired entry if any exists, otherwise an
// arbitrary entry. All methods are safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	enabled  bool
	capacity int
	entries  map[string]memoryEntry

	// now is swappable in tests.
	now func() time.Time
}

// NewMemory creates an ephemeral cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity. When enabled is
// false every write is a no-op and every read is a miss.
func NewMemory(capacity int, enabled bool) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		enabled:  enabled,
		capacity: capacity,
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Get returns the cached value for key, or false when the key is absent,
// expired, or caching is disabled. An expired entry is removed.
func (c *Memory) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil, false
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL. Overwriting an existing
// key never triggers eviction. At capacity, one expired entry is evicted
// if present, otherwise an arbitrary entry makes room.
func (c *Memory) Set(key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOneLocked()
	}

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// evictOneLocked removes one entry: the first expired entry found, or
// failing that whichever entry map iteration yields first.
func (c *Memory) evictOneLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			return
		}
	}
	for k := range c.entries {
		delete(c.entries, k)
		return
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
