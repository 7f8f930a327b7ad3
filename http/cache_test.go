package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageCacheExpiry(t *testing.T) {
	now := time.Now()
	c := NewPageCache(20 * time.Second)
	c.now = func() time.Time { return now }

	c.Set("index:1", []byte("cached page"))

	body, ok := c.Get("index:1")
	assert.True(t, ok)
	assert.Equal(t, []byte("cached page"), body)

	// Just inside the TTL the entry is still served.
	now = now.Add(19 * time.Second)
	_, ok = c.Get("index:1")
	assert.True(t, ok)

	// Past the TTL it is gone.
	now = now.Add(2 * time.Second)
	_, ok = c.Get("index:1")
	assert.False(t, ok)
}

func TestPageCacheMiss(t *testing.T) {
	c := NewPageCache(time.Minute)
	_, ok := c.Get("index:1")
	assert.False(t, ok)
}

func TestPageCacheInvalidate(t *testing.T) {
	c := NewPageCache(time.Minute)
	c.Set("index:1", []byte("one"))
	c.Set("index:2", []byte("two"))

	c.Invalidate()

	_, ok := c.Get("index:1")
	assert.False(t, ok)
	_, ok = c.Get("index:2")
	assert.False(t, ok)
}

func TestPageCacheSetOverwrites(t *testing.T) {
	c := NewPageCache(time.Minute)
	c.Set("index:1", []byte("old"))
	c.Set("index:1", []byte("new"))

	body, ok := c.Get("index:1")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), body)
}
