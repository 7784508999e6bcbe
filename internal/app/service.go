// Package service wires the balancing engine to vote ingestion and exposes
// the operations the HTTP API and CLI call.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/lineup/internal/adapters/mq/events"
	"github.com/okian/lineup/internal/adapters/mq/queue"
	"github.com/okian/lineup/internal/adapters/mq/worker"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/cache"
	"github.com/okian/lineup/internal/domain/dedupe"
	"github.com/okian/lineup/internal/domain/matcher"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/scoring"
	"github.com/okian/lineup/internal/platform/otel"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Cache scopes.
const (
	// ScopeProcess shares cached scores across runs until the TTL expires or
	// a vote ingested by this process invalidates them. Votes written to the
	// store by anyone else are not seen until then.
	ScopeProcess = "process"
	// ScopeRequest gives every balance run and score lookup its own cache
	// scope. This is the default.
	ScopeRequest = "request"
)

const (
	defaultQueueSize         = 10000
	defaultMaxCandidates     = 200000
	defaultSearchTimeout     = 5 * time.Second
	defaultWarmupConcurrency = 8
	defaultTolerance         = 0.5
	defaultMaxRelaxCycles    = 20
	stopTimeout              = 10 * time.Second
)

// EventPublisher announces recorded votes and balance outcomes.
type EventPublisher interface {
	PublishVoteRecorded(ctx context.Context, v model.Vote) error
	PublishBalanceCompleted(ctx context.Context, e events.BalanceCompleted) error
}

// Service implements the balancing and vote operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	source     *tracedSource
	agg        *scoring.Aggregator
	cache      cache.Cache
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	workerPool *worker.Pool
	publisher  EventPublisher

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	weights           scoring.Weights
	defaultRating     float64
	ratingRange       model.RatingRange
	cacheSize         int
	cacheTTL          time.Duration
	cacheScope        string
	tolerance         float64
	maxRelaxCycles    int
	relaxStep         float64
	oddPoolScale      float64
	maxCandidates     int
	anchorBudget      int
	searchTimeout     time.Duration
	warmupConcurrency int

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
	tracer trace.Tracer
}

// New constructs a Service. The skill weight table and the remaining settings
// are validated here, so a Service that exists can always balance.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         defaultQueueSize,
		dedupeSize:        dedupe.DefaultMaxSize,
		weights:           scoring.DefaultWeights(),
		defaultRating:     scoring.DefaultRating,
		ratingRange:       model.DefaultRatingRange(),
		cacheSize:         cache.DefaultSize,
		cacheTTL:          cache.DefaultTTL,
		cacheScope:        ScopeRequest,
		tolerance:         defaultTolerance,
		maxRelaxCycles:    defaultMaxRelaxCycles,
		relaxStep:         matcher.DefaultRelaxStep,
		oddPoolScale:      matcher.DefaultOddPoolScale,
		maxCandidates:     defaultMaxCandidates,
		searchTimeout:     defaultSearchTimeout,
		warmupConcurrency: defaultWarmupConcurrency,
		publisher:         events.Nop{},
		logger:            logger.Nop(),
		tracer:            otel.Tracer("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cacheScope != ScopeProcess && s.cacheScope != ScopeRequest {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidCacheScope, s.cacheScope)
	}
	if s.ratingRange.Min > s.ratingRange.Max {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidRatingRange, s.ratingRange.Min, s.ratingRange.Max)
	}
	agg, err := scoring.NewAggregator(s.weights,
		scoring.WithDefaultRating(s.defaultRating),
		scoring.WithLogger(s.logger.Named("scoring")),
	)
	if err != nil {
		return nil, err
	}
	s.agg = agg

	if s.cacheSize > 0 {
		s.cache = cache.New(cache.WithSize(s.cacheSize), cache.WithTTL(s.cacheTTL))
	} else {
		s.cache = cache.Nop()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.source = &tracedSource{store: s.store, tracer: s.tracer}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s, nil
}

// Start launches the vote ingestion queue and workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting lineup service...")

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.workerPool = worker.NewPool(s.workerCount, s.queue, s.store,
		worker.WithLogger(s.logger),
		worker.WithInvalidator(s.cache),
		worker.WithPublisher(s.publisher),
	)
	// Workers outlive the start request; they stop on Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "lineup service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("cacheScope", s.cacheScope),
	)
	return nil
}

// Stop drains queued votes, then closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping lineup service...")

	drainCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.workerPool.Shutdown(drainCtx); err != nil {
		errs = append(errs, err)
	}
	s.cancel()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "lineup service stopped", logger.Int64("votesProcessed", s.workerPool.Processed()))
	return errors.Join(errs...)
}

// Skills returns the rated skill dimensions in order.
func (s *Service) Skills() []string { return s.agg.Skills() }

// RatingRange returns the accepted vote rating bounds.
func (s *Service) RatingRange() model.RatingRange { return s.ratingRange }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"cacheScope":   s.cacheScope,
		"cacheEntries": s.cache.Len(),
		"skills":       s.agg.Skills(),
		"totalVotes":   s.store.Count(ctx),
		"seenVoteIds":  s.deduper.Size(),
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["votesProcessed"] = s.workerPool.Processed()
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdateCacheEntries(s.cache.Len())
	return stats
}

// tracedSource wraps store fetches in spans.
type tracedSource struct {
	store  repository.Store
	tracer trace.Tracer
}

func (t *tracedSource) RatingSamples(ctx context.Context, participant string, skills []string) ([]model.Sample, error) {
	ctx, span := t.tracer.Start(ctx, "store.RatingSamples",
		trace.WithAttributes(
			attribute.String("lineup.player", participant),
			attribute.Int("lineup.skills", len(skills)),
		))
	defer span.End()

	samples, err := t.store.RatingSamples(ctx, participant, skills)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("lineup.samples", len(samples)))
	return samples, nil
}
