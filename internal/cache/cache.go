package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds fetched responses for the lifetime of one run
type Cache interface {
	Lookup(kind, url string) (any, bool)
	Store(kind, url string, v any)
}

// Stats counts cache traffic of one run
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// RunCache is a go-cache backed Cache. It runs no janitor goroutine, so it
// can be dropped with its run; expired entries miss on read.
type RunCache struct {
	items  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRunCache creates a cache whose entries live for ttl. A zero ttl keeps
// entries until the cache is dropped.
func NewRunCache(ttl time.Duration) *RunCache {
	return &RunCache{items: gocache.New(ttl, 0)}
}

// Key joins a fetch kind and URL. The same URL fetched directly and through
// the reader proxy are different entries.
func Key(kind, url string) string {
	return kind + "\x00" + url
}

// Lookup returns the value stored for kind and url
func (c *RunCache) Lookup(kind, url string) (any, bool) {
	v, ok := c.items.Get(Key(kind, url))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Store saves v for kind and url with the default ttl
func (c *RunCache) Store(kind, url string, v any) {
	c.items.SetDefault(Key(kind, url), v)
}

// Stats reports hits, misses and the current entry count
func (c *RunCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.items.ItemCount(),
	}
}
