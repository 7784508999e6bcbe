// Package queue buffers submitted votes between the HTTP handlers and the
// ingestion workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Vote is the payload flowing through the queue.
type Vote = model.Vote

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a vote to the queue.
	// Returns false if the queue is full or closed and the vote was not enqueued.
	Enqueue(ctx context.Context, v Vote) bool

	// Dequeue returns a channel that receives votes as they become available.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Vote

	// Len returns the current number of queued votes.
	Len(ctx context.Context) int

	// Close stops accepting votes; queued votes can still be dequeued.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	votes      chan Vote
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}
	q.votes = make(chan Vote, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a vote to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, v Vote) bool { //nolint:gocritic // hugeParam: Vote is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.votes) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.votes <- v:
		metrics.UpdateQueueSize(len(q.votes))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive votes as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Vote {
	out := make(chan Vote)
	go func() {
		defer close(out)
		for v := range q.votes {
			select {
			case out <- v:
				metrics.UpdateQueueSize(len(q.votes))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued votes.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.votes)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the maximum number of queued votes.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting votes. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.votes)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
