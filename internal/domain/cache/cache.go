// Package cache memoizes per-participant score computations with a bounded,
// time-limited LRU.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/okian/lineup/pkg/metrics"
)

// Cached operations.
const (
	OpRatingSamples = "rating_samples"
	OpSkillScores   = "skill_scores"
	OpOverallScore  = "overall_score"
)

// Key identifies one memoized computation. Scope separates sessions that must
// not share results; it is empty for the process-wide scope.
type Key struct {
	Scope       string
	Op          string
	Participant string
	Args        string
}

func (k Key) String() string {
	return fmt.Sprintf("%q %q %q %q", k.Scope, k.Op, k.Participant, k.Args)
}

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) (any, error)

// Cache is a lookup-or-compute store. Errors are never cached.
type Cache interface {
	// GetOrCompute returns the cached value for key, or runs compute once and
	// stores its result. Concurrent callers for the same key share one run.
	GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (any, error)

	// Invalidate drops every entry of participant across scopes and ops and
	// returns how many were removed.
	Invalidate(participant string) int

	Len() int
	Purge()
}

type lruCache struct {
	size  int
	ttl   time.Duration
	store *expirable.LRU[Key, any]
	group singleflight.Group
	// epoch moves on every invalidation; computes that started before it
	// are returned but not stored.
	epoch atomic.Uint64
}

// New returns a concurrency-safe LRU cache with TTL expiry. Expired entries
// are dropped lazily on access and reaped in the background.
func New(opts ...Option) Cache {
	c := &lruCache{size: DefaultSize, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	c.store = expirable.NewLRU[Key, any](c.size, nil, c.ttl)
	return c
}

func (c *lruCache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (any, error) {
	if compute == nil {
		return nil, ErrNilCompute
	}
	if v, ok := c.store.Get(key); ok {
		metrics.RecordCacheHit(key.Op)
		return v, nil
	}
	metrics.RecordCacheMiss(key.Op)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		epoch := c.epoch.Load()
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if c.epoch.Load() == epoch {
			c.store.Add(key, v)
			metrics.UpdateCacheEntries(c.store.Len())
		}
		return v, nil
	})
	return v, err
}

func (c *lruCache) Invalidate(participant string) int {
	c.epoch.Add(1)
	removed := 0
	for _, k := range c.store.Keys() {
		if k.Participant == participant && c.store.Remove(k) {
			removed++
		}
	}
	metrics.UpdateCacheEntries(c.store.Len())
	return removed
}

func (c *lruCache) Len() int { return c.store.Len() }

func (c *lruCache) Purge() {
	c.epoch.Add(1)
	c.store.Purge()
	metrics.UpdateCacheEntries(0)
}

type nopCache struct{}

// Nop returns a Cache that stores nothing; every call computes.
func Nop() Cache { return nopCache{} }

func (nopCache) GetOrCompute(ctx context.Context, _ Key, compute ComputeFunc) (any, error) {
	if compute == nil {
		return nil, ErrNilCompute
	}
	return compute(ctx)
}

func (nopCache) Invalidate(string) int { return 0 }
func (nopCache) Len() int              { return 0 }
func (nopCache) Purge()                {}

// Memo is the typed form of GetOrCompute.
func Memo[T any](ctx context.Context, c Cache, key Key, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrUnexpectedType, key, v)
	}
	return out, nil
}
