// Package worker persists queued votes asynchronously.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Recorder persists a vote.
type Recorder interface {
	RecordVote(ctx context.Context, v model.Vote) (model.Vote, error)
}

// Invalidator forgets cached results for a participant.
type Invalidator interface {
	Invalidate(participant string) int
}

// Publisher announces a persisted vote.
type Publisher interface {
	PublishVoteRecorded(ctx context.Context, v model.Vote) error
}

// Queue defines how workers receive votes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Vote
}

// Worker processes votes off a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker, waiting until ctx expires.
	Shutdown(ctx context.Context) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) int { return 0 }

type noopPublisher struct{}

func (noopPublisher) PublishVoteRecorded(context.Context, model.Vote) error { return nil }

// InMemoryWorker persists votes, then invalidates and publishes.
type InMemoryWorker struct {
	queue       Queue
	recorder    Recorder
	invalidator Invalidator
	publisher   Publisher
	name        string
	processed   atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       queue,
		recorder:    recorder,
		invalidator: noopInvalidator{},
		publisher:   noopPublisher{},
		name:        "worker",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	votes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case v, ok := <-votes:
			if !ok {
				return
			}
			if err := w.processVote(ctx, v); err != nil {
				w.logger.Error(ctx, "error processing vote", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Processed returns how many votes this worker persisted.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) processVote(ctx context.Context, v model.Vote) error { //nolint:gocritic // hugeParam: Vote is passed by value for channel semantics
	start := time.Now()
	stored, err := w.recorder.RecordVote(ctx, v)
	metrics.RecordWorkerVote(float64(time.Since(start).Microseconds())/1000.0, err)

	if errors.Is(err, repository.ErrAlreadyExists) {
		metrics.RecordVoteDuplicate()
		w.logger.Debug(ctx, "vote already stored", logger.String("vote_id", v.ID))
		return nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("record vote %s: %w", v.ID, err)
	}

	metrics.RecordVoteRecorded()
	w.processed.Add(1)
	dropped := w.invalidator.Invalidate(stored.Player)

	if err := w.publisher.PublishVoteRecorded(ctx, stored); err != nil {
		// The vote is stored; a lost announcement is logged, not retried.
		w.logger.Warn(ctx, "publish vote failed",
			logger.String("vote_id", stored.ID),
			logger.Error(err))
	}

	w.logger.Debug(ctx, "vote recorded",
		logger.String("vote_id", stored.ID),
		logger.String("player", stored.Player),
		logger.Int("cache_entries_dropped", dropped))
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers; a count below one picks a multiple of
// the CPU count. opts apply to every worker.
func NewPool(workerCount int, queue Queue, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Nop(),
	}
	base := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}
	pool.logger = base.logger.Named("worker-pool")

	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, recorder, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of votes persisted by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx (or the pool timeout) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}

	for _, w := range p.workers {
		w.stop()
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", drainCtx.Err())
	}
	return nil
}
