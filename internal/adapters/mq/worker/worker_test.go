package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/lineup/internal/adapters/mq/queue"
	"github.com/okian/lineup/internal/adapters/mq/worker"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan model.Vote
}

func newMockQueue() *mockQueue { return &mockQueue{ch: make(chan model.Vote, 10)} }

func (q *mockQueue) Dequeue(context.Context) <-chan model.Vote { return q.ch }

func (q *mockQueue) Close() error {
	close(q.ch)
	return nil
}

type mockRecorder struct {
	mu    sync.Mutex
	votes []model.Vote
	errs  map[string]error
}

func (r *mockRecorder) RecordVote(_ context.Context, v model.Vote) (model.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs[v.ID]; err != nil {
		return model.Vote{}, err
	}
	r.votes = append(r.votes, v)
	return v, nil
}

func (r *mockRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.votes)
}

type mockInvalidator struct {
	mu      sync.Mutex
	players []string
}

func (i *mockInvalidator) Invalidate(p string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.players = append(i.players, p)
	return 1
}

func (i *mockInvalidator) seen() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.players...)
}

type mockPublisher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (p *mockPublisher) PublishVoteRecorded(_ context.Context, v model.Vote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, v.ID)
	return p.err
}

func (p *mockPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func vote(id, player string) model.Vote {
	return model.Vote{ID: id, Voter: "ana", Player: player, Ratings: map[string]int{"attack": 6}}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with an invalidator and a publisher", t, func() {
		q := newMockQueue()
		rec := &mockRecorder{errs: map[string]error{}}
		inv := &mockInvalidator{}
		pub := &mockPublisher{}
		w := worker.NewInMemoryWorker(q, rec,
			worker.WithName("w-test"),
			worker.WithInvalidator(inv),
			worker.WithPublisher(pub),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When votes arrive", func() {
			q.ch <- vote("v1", "bo")
			q.ch <- vote("v2", "cy")
			_ = q.Close()
			convey.So(waitFor(func() bool { return rec.count() == 2 }), convey.ShouldBeTrue)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then each should be stored, invalidated and published", func() {
				convey.So(inv.seen(), convey.ShouldResemble, []string{"bo", "cy"})
				convey.So(pub.published(), convey.ShouldResemble, []string{"v1", "v2"})
				convey.So(w.Processed(), convey.ShouldEqual, int64(2))
			})
		})

		convey.Convey("When the store reports a duplicate", func() {
			rec.errs["dup"] = repository.ErrAlreadyExists
			q.ch <- vote("dup", "bo")
			q.ch <- vote("v3", "bo")
			_ = q.Close()
			convey.So(waitFor(func() bool { return rec.count() == 1 }), convey.ShouldBeTrue)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then it should be skipped without side effects", func() {
				convey.So(pub.published(), convey.ShouldResemble, []string{"v3"})
				convey.So(w.Processed(), convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When the store fails", func() {
			rec.errs["bad"] = errors.New("disk full")
			q.ch <- vote("bad", "bo")
			q.ch <- vote("v4", "bo")
			_ = q.Close()
			convey.So(waitFor(func() bool { return rec.count() == 1 }), convey.ShouldBeTrue)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the worker should keep going", func() {
				convey.So(pub.published(), convey.ShouldResemble, []string{"v4"})
			})
		})

		convey.Convey("When publishing fails", func() {
			pub.err = errors.New("nats down")
			q.ch <- vote("v5", "bo")
			_ = q.Close()
			convey.So(waitFor(func() bool { return len(pub.published()) == 1 }), convey.ShouldBeTrue)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the vote should still count as processed", func() {
				convey.So(w.Processed(), convey.ShouldEqual, int64(1))
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue and store", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		store := repository.NewMemoryStore()
		inv := &mockInvalidator{}
		pool := worker.NewPool(4, q, store, worker.WithInvalidator(inv))
		pool.Start(context.Background())

		for i := 0; i < 40; i++ {
			convey.So(q.Enqueue(context.Background(), vote(fmt.Sprintf("v-%d", i), "bo")), convey.ShouldBeTrue)
		}

		convey.Convey("When the pool shuts down", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued vote should be drained into the store", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				convey.So(store.Count(context.Background()), convey.ShouldEqual, 40)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(40))
				convey.So(len(inv.seen()), convey.ShouldEqual, 40)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with no explicit size", t, func() {
		pool := worker.NewPool(0, newMockQueue(), &mockRecorder{})
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
