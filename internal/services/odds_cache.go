package services

import (
	"sync"
	"time"

	"sportsbook-backend/internal/models"
)

// OddsCache holds the last normalized board. There is a single slot: the
// board is never partitioned by league or day.
type OddsCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	matches   []models.Match
	fetchedAt time.Time
}

// NewOddsCache with ttl 0 never serves a cached board. A nil now uses
// time.Now.
func NewOddsCache(ttl time.Duration, now func() time.Time) *OddsCache {
	if now == nil {
		now = time.Now
	}
	return &OddsCache{ttl: ttl, now: now}
}

// Get returns the cached board while it is fresh. An empty board is never
// served so a failed refresh is retried on the next request. The returned
// slice is shared and must not be modified.
func (c *OddsCache) Get() ([]models.Match, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.expiredLocked() || len(c.matches) == 0 {
		return nil, false
	}
	return c.matches, true
}

func (c *OddsCache) Put(matches []models.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.matches = matches
	c.fetchedAt = c.now()
}

func (c *OddsCache) Expired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiredLocked()
}

func (c *OddsCache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

func (c *OddsCache) expiredLocked() bool {
	if c.ttl <= 0 || c.fetchedAt.IsZero() {
		return true
	}
	return c.now().Sub(c.fetchedAt) >= c.ttl
}
