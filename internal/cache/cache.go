// Package cache provides the small in-process caches the view pipeline
// needs: a TTL map for view deduplication and a fixed-window rate
// limiter. Instances are constructed and injected explicitly; nothing
// here is package state, so tests build isolated copies.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a thread-safe map whose entries expire after a fixed
// duration. A background sweep removes expired entries; Stop ends it.
// Expiry is also checked on read, so the sweep is purely for memory.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

func NewTTL(ttl time.Duration, sweep time.Duration) *TTLCache {
	c := &TTLCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	if sweep > 0 {
		go c.sweepLoop(sweep)
	}
	return c
}

func (c *TTLCache) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.Sweep(time.Now())
		case <-c.done:
			return
		}
	}
}

// Sweep removes entries expired as of now.
func (c *TTLCache) Sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Has reports whether key exists and has not expired.
func (c *TTLCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (c *TTLCache) Stop() {
	c.once.Do(func() { close(c.done) })
}
