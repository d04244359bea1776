package scrape

import (
	"sync"
	"time"
)

// pageCache keeps recently scraped pages in memory so repeated queries over
// the same sources do not re-fetch them within the TTL.
type pageCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	content string
	expires time.Time
}

func newPageCache(ttl time.Duration) *pageCache {
	return &pageCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *pageCache) get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, url)
		return "", false
	}
	return e.content, true
}

func (c *pageCache) put(url, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{content: content, expires: time.Now().Add(c.ttl)}
}
