package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/lineup/internal/domain/model"
)

func vote(id string) model.Vote {
	return model.Vote{ID: id, Voter: "ana", Player: "bo", Ratings: map[string]int{"attack": 5}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, vote("v1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "v1" {
		t.Errorf("expected v1, got %v", got.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, vote("v1")) || !q.Enqueue(ctx, vote("v2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, vote("v3")) {
		t.Error("expected enqueue to fail when full")
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !q.Enqueue(ctx, vote(fmt.Sprintf("v%d", i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, vote("late")) {
		t.Error("expected enqueue after close to fail")
	}

	var ids []string
	for v := range q.Dequeue(ctx) {
		ids = append(ids, v.ID)
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 drained votes, got %v", ids)
	}
}

func TestInMemoryQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q.Enqueue(ctx, vote(fmt.Sprintf("g%d-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	if l := q.Len(ctx); l != 500 {
		t.Errorf("expected 500 queued votes, got %d", l)
	}
}

func TestInMemoryQueue_DequeueStopsOnCancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	q.Enqueue(context.Background(), vote("v1"))
	cancel()

	select {
	case _, ok := <-ch:
		// Either the vote raced through or the channel closed; both are fine.
		_ = ok
	case <-time.After(time.Second):
		t.Fatal("dequeue channel did not react to cancellation")
	}
}
