// internal/service/cache.go
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"energy_finance/internal/domain"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Value      interface{}
	Expiration int64
}

// Cache provides an in-memory cache with TTL (time to live)
type Cache struct {
	mu    sync.RWMutex
	items map[string]CacheItem
	stop  chan struct{}
	once  sync.Once

	hits   uint64
	misses uint64
}

// NewCache creates a new cache instance
func NewCache(cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]CacheItem),
		stop:  make(chan struct{}),
	}

	go c.cleanupLoop(cleanupInterval)

	return c
}

// Set adds an item to cache with TTL. A zero TTL never expires.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	c.items[key] = CacheItem{
		Value:      value,
		Expiration: expiration,
	}
}

// Get retrieves an item from cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found || (item.Expiration > 0 && time.Now().UnixNano() > item.Expiration) {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	atomic.AddUint64(&c.hits, 1)
	return item.Value, true
}

// Delete removes an item from cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]CacheItem)
}

// Hits returns the number of successful lookups
func (c *Cache) Hits() uint64 {
	return atomic.LoadUint64(&c.hits)
}

// cleanupLoop periodically removes expired items
func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Close stops the cache cleanup goroutine
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(c.items),
		"expired_items": expired,
		"active_items":  len(c.items) - expired,
		"hits":          atomic.LoadUint64(&c.hits),
		"misses":        atomic.LoadUint64(&c.misses),
	}
}

// fingerprint identifies the engine inputs that determine an evaluation.
// Descriptive fields of the project do not affect the numbers and are left out.
func fingerprint(p domain.ProjectDescription, f domain.Financials, a domain.AssumptionSet) string {
	p.ID = ""
	p.Name = ""
	p.Description = ""
	p.Location = ""
	p.Status = ""
	p.CreatedAt = time.Time{}
	p.UpdatedAt = time.Time{}

	data, err := json.Marshal(struct {
		Project     domain.ProjectDescription `json:"p"`
		Financials  domain.Financials         `json:"f"`
		Assumptions domain.AssumptionSet      `json:"a"`
	}{p, f, a})
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(data)
	return "eval:" + hex.EncodeToString(sum[:])
}

func cloneEvaluation(ev *domain.Evaluation) *domain.Evaluation {
	out := *ev
	out.Schedule = append([]domain.CashFlowRecord(nil), ev.Schedule...)
	out.Metrics.DSCRByYear = append([]domain.YearRatio(nil), ev.Metrics.DSCRByYear...)
	return &out
}
