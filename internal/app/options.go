package service

import (
	"time"

	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/scoring"
	"github.com/okian/lineup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the vote store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPublisher announces recorded votes and balance outcomes.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued votes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many vote ids are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSkillWeights replaces the skill weight table.
func WithSkillWeights(w scoring.Weights) Option {
	return func(s *Service) {
		if w != nil {
			s.weights = w.Clone()
		}
	}
}

// WithDefaultRating sets the score of a skill nobody has rated yet.
func WithDefaultRating(r float64) Option {
	return func(s *Service) {
		s.defaultRating = r
	}
}

// WithRatingRange sets the accepted rating bounds of a vote.
func WithRatingRange(minRating, maxRating int) Option {
	return func(s *Service) {
		s.ratingRange = model.RatingRange{Min: minRating, Max: maxRating}
	}
}

// WithCache sizes the score cache. A size of zero disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithCacheScope selects ScopeProcess or ScopeRequest.
func WithCacheScope(scope string) Option {
	return func(s *Service) {
		s.cacheScope = scope
	}
}

// WithTolerance sets the default starting tolerance of a balance run.
func WithTolerance(t float64) Option {
	return func(s *Service) {
		s.tolerance = t
	}
}

// WithMaxRelaxCycles sets the default relaxation limit of a balance run.
func WithMaxRelaxCycles(n int) Option {
	return func(s *Service) {
		s.maxRelaxCycles = n
	}
}

// WithRelaxStep sets how much the tolerance grows per relaxation.
func WithRelaxStep(step float64) Option {
	return func(s *Service) {
		if step > 0 {
			s.relaxStep = step
		}
	}
}

// WithOddPoolScale sets the tolerance multiplier applied to odd pools.
func WithOddPoolScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.oddPoolScale = scale
		}
	}
}

// WithMaxCandidates caps how many rosters a pool may enumerate.
func WithMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithAnchorBudget caps anchors sampled per search; zero means unlimited.
func WithAnchorBudget(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.anchorBudget = n
		}
	}
}

// WithSearchTimeout bounds the wall-clock time of one search.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.searchTimeout = d
		}
	}
}

// WithWarmupConcurrency limits concurrent score fetches before a search.
func WithWarmupConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.warmupConcurrency = n
		}
	}
}
