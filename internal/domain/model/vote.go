// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Default rating bounds of a vote.
const (
	DefaultRatingMin = 1
	DefaultRatingMax = 10
)

// Vote is one voter's opinion of one player across every skill dimension.
type Vote struct {
	ID        string         // unique id for idempotency
	Voter     string         // who cast the vote; only they may edit it
	Player    string         // who is being rated
	Ratings   map[string]int // skill -> rating
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sample is a single (skill, rating) observation consumed by scoring.
type Sample struct {
	Skill  string
	Rating float64
}

// RatingRange bounds a single rating, inclusive.
type RatingRange struct {
	Min int
	Max int
}

// DefaultRatingRange returns the 1..10 range.
func DefaultRatingRange() RatingRange {
	return RatingRange{Min: DefaultRatingMin, Max: DefaultRatingMax}
}

// Validate reports ErrInvalidInput for blank identities or ratings that do not
// cover exactly skills within r.
func (v Vote) Validate(skills []string, r RatingRange) error {
	if strings.TrimSpace(v.Voter) == "" {
		return fmt.Errorf("%w: vote has no voter", ErrInvalidInput)
	}
	if strings.TrimSpace(v.Player) == "" {
		return fmt.Errorf("%w: vote has no player", ErrInvalidInput)
	}
	return ValidateRatings(v.Ratings, skills, r)
}

// ValidateRatings checks that ratings has one in-range entry per skill and
// nothing else.
func ValidateRatings(ratings map[string]int, skills []string, r RatingRange) error {
	if len(ratings) != len(skills) {
		return fmt.Errorf("%w: expected %d ratings, got %d", ErrInvalidInput, len(skills), len(ratings))
	}
	for _, skill := range skills {
		rating, ok := ratings[skill]
		if !ok {
			return fmt.Errorf("%w: missing rating for %q", ErrInvalidInput, skill)
		}
		if rating < r.Min || rating > r.Max {
			return fmt.Errorf("%w: rating %d for %q outside [%d, %d]", ErrInvalidInput, rating, skill, r.Min, r.Max)
		}
	}
	return nil
}

// Samples flattens the vote into samples ordered by skill name.
func (v Vote) Samples() []Sample {
	skills := make([]string, 0, len(v.Ratings))
	for skill := range v.Ratings {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	out := make([]Sample, len(skills))
	for i, skill := range skills {
		out[i] = Sample{Skill: skill, Rating: float64(v.Ratings[skill])}
	}
	return out
}

// Clone returns a copy that shares no map with v.
func (v Vote) Clone() Vote {
	ratings := make(map[string]int, len(v.Ratings))
	for k, r := range v.Ratings {
		ratings[k] = r
	}
	v.Ratings = ratings
	return v
}
