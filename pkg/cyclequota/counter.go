package cyclequota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// UsageCounter counts usage events for a tenant within an inclusive datetime
// range. It is the storage collaborator of the gate: this engine only reads
// counts and never writes. Implementations must be safe for concurrent use;
// read-committed consistency at call time is sufficient.
type UsageCounter interface {
	Count(ctx context.Context, tenantID string, start, end time.Time) (int, error)
}

// UsageCounterFunc adapts a plain function to the UsageCounter interface.
type UsageCounterFunc func(ctx context.Context, tenantID string, start, end time.Time) (int, error)

func (f UsageCounterFunc) Count(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
	return f(ctx, tenantID, start, end)
}

// cacheSweepThreshold triggers an expired-entry sweep on insert.
const cacheSweepThreshold = 4096

type cacheEntry struct {
	count   int
	expires time.Time
}

// CachedCounter memoizes count results per (tenant, range) for a short TTL
// and deduplicates concurrent lookups for the same key. Cycle boundaries are
// stable within a period, so hot tenants hit the same key on every request;
// a few seconds of staleness only widens the already-accepted check-then-act
// overshoot window. Errors are never cached.
type CachedCounter struct {
	inner   UsageCounter
	ttl     time.Duration
	metrics Metrics
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachedCounter wraps a counter with TTL memoization. A zero ttl defaults
// to 10 seconds. metrics may be nil.
func NewCachedCounter(inner UsageCounter, ttl time.Duration, metrics Metrics) *CachedCounter {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &CachedCounter{
		inner:   inner,
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Count implements UsageCounter.
func (c *CachedCounter) Count(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
	key := fmt.Sprintf("%s|%d|%d", tenantID, start.UTC().Unix(), end.UTC().Unix())

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		c.metrics.RecordCacheHit()
		return entry.count, nil
	}
	c.metrics.RecordCacheMiss()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		count, err := c.inner.Count(ctx, tenantID, start, end)
		if err != nil {
			return 0, err
		}
		c.store(key, count)
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Invalidate drops any cached count for the tenant and range. Call after
// recording a usage event when fresh counts matter more than the TTL.
func (c *CachedCounter) Invalidate(tenantID string, start, end time.Time) {
	key := fmt.Sprintf("%s|%d|%d", tenantID, start.UTC().Unix(), end.UTC().Unix())
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *CachedCounter) store(key string, count int) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= cacheSweepThreshold {
		for k, e := range c.entries {
			if !now.Before(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{count: count, expires: now.Add(c.ttl)}
}
