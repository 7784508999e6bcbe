package cache

import "time"

// Default capacity and entry lifetime.
const (
	DefaultSize = 100
	DefaultTTL  = 300 * time.Second
)

// Option configures an LRU cache.
type Option func(*lruCache)

// WithSize sets the maximum number of entries.
func WithSize(size int) Option {
	return func(c *lruCache) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithTTL sets how long an entry stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(c *lruCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}
