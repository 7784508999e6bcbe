package team

import (
	"github.com/okian/lineup/internal/domain/cache"
	"github.com/okian/lineup/pkg/logger"
)

// ParticipantOption configures a Participant.
type ParticipantOption func(*Participant)

// WithCache memoizes fetches and scores in c. Without it nothing is cached.
func WithCache(c cache.Cache) ParticipantOption {
	return func(p *Participant) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithScope keys cached entries under scope so separate balancing sessions
// do not share results.
func WithScope(scope string) ParticipantOption {
	return func(p *Participant) {
		p.scope = scope
	}
}

// WithLogger sets the participant logger.
func WithLogger(l logger.Logger) ParticipantOption {
	return func(p *Participant) {
		if l != nil {
			p.log = l
		}
	}
}

// EnumerateOption configures Enumerate.
type EnumerateOption func(*enumerateConfig)

type enumerateConfig struct {
	maxCandidates int
}

// WithMaxCandidates refuses pools that would produce more than n rosters.
// Zero or less means no limit.
func WithMaxCandidates(n int) EnumerateOption {
	return func(c *enumerateConfig) {
		c.maxCandidates = n
	}
}
