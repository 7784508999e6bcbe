package matcher

import (
	"math"
	"math/rand"

	"github.com/okian/lineup/pkg/logger"
)

// Search defaults.
const (
	// DefaultRelaxStep is added to the tolerance after every exhausted pass.
	DefaultRelaxStep = 1.5

	// DefaultOddPoolScale widens the tolerance for odd pools, where the two
	// rosters differ in size by one member. It is a tuning heuristic, not a
	// derived bound.
	DefaultOddPoolScale = 10.0
)

// Option configures a Searcher.
type Option func(*Searcher)

// WithRand sets the random source used to pick anchors and partners.
func WithRand(r *rand.Rand) Option {
	return func(s *Searcher) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed seeds a fresh random source, making the search reproducible.
func WithSeed(seed int64) Option {
	return func(s *Searcher) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // tie-breaking only
	}
}

// WithRelaxStep sets the tolerance increment per relaxation cycle.
func WithRelaxStep(step float64) Option {
	return func(s *Searcher) {
		if step > 0 && !math.IsInf(step, 0) {
			s.relaxStep = step
		}
	}
}

// WithOddPoolScale sets the tolerance multiplier used for odd pools.
func WithOddPoolScale(scale float64) Option {
	return func(s *Searcher) {
		if scale > 0 && !math.IsInf(scale, 0) {
			s.oddPoolScale = scale
		}
	}
}

// WithAnchorBudget caps the number of anchors sampled across all cycles.
// Zero or less means unlimited.
func WithAnchorBudget(n int) Option {
	return func(s *Searcher) {
		s.anchorBudget = n
	}
}

// WithLogger sets the search logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}
