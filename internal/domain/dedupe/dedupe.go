// Package dedupe remembers recently seen vote ids so a retried submission is
// applied at most once.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSize is the number of ids remembered when no size is given.
const DefaultMaxSize = 50000

// Deduper records seen ids to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it can be retried, e.g. after the ingestion
	// queue refused it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// lruDeduper forgets the least recently seen ids first once full.
type lruDeduper struct {
	maxSize int
	seen    *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &lruDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	// lru.New only fails for a non-positive size, which the options rule out.
	d.seen, _ = lru.New[string, struct{}](d.maxSize)
	return d
}

func (d *lruDeduper) SeenAndRecord(_ context.Context, id string) bool {
	seen, _ := d.seen.ContainsOrAdd(id, struct{}{})
	return seen
}

func (d *lruDeduper) Unrecord(_ context.Context, id string) {
	d.seen.Remove(id)
}

func (d *lruDeduper) Size() int64 {
	return int64(d.seen.Len())
}
