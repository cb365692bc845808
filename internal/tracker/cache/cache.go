// Package cache holds the in-memory TTL caches between the quote fetcher and
// its upstream sources. Two TTL domains: a short one for whole batches and
// single quotes (seconds, sized to stay under upstream rate limits at the
// polling cadence) and a long one for supplementary data (minutes). Failed
// fetches are never cached, so a miss retries immediately.
package cache

import (
	"sync"
	"time"
)

// BatchCache memoizes the latest complete quote batch.
type BatchCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	batch   *Batch
	expires time.Time
}

func NewBatchCache(ttl time.Duration) *BatchCache {
	return &BatchCache{ttl: ttl}
}

func (c *BatchCache) Get() (*Batch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.batch == nil || time.Now().After(c.expires) {
		return nil, false
	}
	return c.batch, true
}

// Set stores a batch. Overlapping populations from concurrent fetches are
// tolerated: batches are idempotent snapshots, last writer wins.
func (c *BatchCache) Set(b *Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = b
	c.expires = time.Now().Add(c.ttl)
}

// QuoteCache memoizes single-symbol quotes under the batch TTL domain.
type QuoteCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]quoteEntry
}

type quoteEntry struct {
	quote   Quote
	expires time.Time
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{ttl: ttl, m: make(map[string]quoteEntry)}
}

func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.m[symbol]
	if !ok || time.Now().After(e.expires) {
		return Quote{}, false
	}
	return e.quote, true
}

func (c *QuoteCache) Set(symbol string, q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[symbol] = quoteEntry{quote: q, expires: time.Now().Add(c.ttl)}
}

// SupplementCache memoizes per-symbol supplementary data. Market cap and
// 52-week ranges move far slower than prices, so the TTL here is minutes.
type SupplementCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]supplementEntry
}

type supplementEntry struct {
	supp    Supplement
	expires time.Time
}

func NewSupplementCache(ttl time.Duration) *SupplementCache {
	return &SupplementCache{ttl: ttl, m: make(map[string]supplementEntry)}
}

func (c *SupplementCache) Get(symbol string) (Supplement, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.m[symbol]
	if !ok || time.Now().After(e.expires) {
		return Supplement{}, false
	}
	return e.supp, true
}

func (c *SupplementCache) Set(symbol string, s Supplement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[symbol] = supplementEntry{supp: s, expires: time.Now().Add(c.ttl)}
}
