package scoring

import (
	"math"

	"github.com/okian/lineup/pkg/logger"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDefaultRating sets the score used when a participant has no samples.
func WithDefaultRating(r float64) Option {
	return func(a *Aggregator) {
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			a.defaultRating = r
		}
	}
}

// WithLogger sets the logger used for degraded-confidence warnings.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}
