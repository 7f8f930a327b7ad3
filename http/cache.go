package http

import (
	"sync"
	"time"
)

// PageCache caches rendered pages of the global timeline. It is explicit
// process-wide state: entries expire after a fixed TTL, and the post
// handlers call Invalidate on every create and delete. A page served from
// the cache may therefore be stale with respect to writes that bypass the
// handlers, but never longer than the TTL.
type PageCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]pageEntry
	now     func() time.Time
}

type pageEntry struct {
	body    []byte
	expires time.Time
}

// NewPageCache returns an empty cache whose entries live for ttl.
func NewPageCache(ttl time.Duration) *PageCache {
	return &PageCache{
		ttl:     ttl,
		entries: make(map[string]pageEntry),
		now:     time.Now,
	}
}

// Get returns the cached body for key, if present and not expired.
func (c *PageCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.body, true
}

// Set stores body under key for the cache's TTL.
func (c *PageCache) Set(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = pageEntry{
		body:    body,
		expires: c.now().Add(c.ttl),
	}
}

// Invalidate drops every cached page. Called whenever a post is created or
// deleted, so the global timeline recomputes on the next read.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]pageEntry)
}
