package rules

import (
	"sync"
	"time"

	"document-reconciliation-backend/internal/models"
)

// SnapshotCache holds one process-local snapshot of the rule list. It
// owns its own clock and TTL so independent instances (one per store,
// one per test) never share state. Concurrent writers race with
// last-writer-wins semantics; only eventual visibility matters.
type SnapshotCache struct {
	mu        sync.Mutex
	rules     []models.MatchingRule
	valid     bool
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewSnapshotCache builds a cache with the given TTL. A zero ttl
// disables caching entirely.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot if it has not expired.
func (c *SnapshotCache) Get() ([]models.MatchingRule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.rules, true
}

// Set replaces the snapshot and restarts the TTL window.
func (c *SnapshotCache) Set(rules []models.MatchingRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return
	}
	c.rules = rules
	c.valid = true
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate drops the snapshot; the next read hits storage.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = nil
	c.valid = false
}
