package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// Weights maps a skill dimension to its positive integer weight.
type Weights map[string]int

// DefaultWeights returns the five football skills, with the ball skills
// counted twice.
func DefaultWeights() Weights {
	return Weights{
		"attack":     2,
		"defense":    2,
		"possession": 2,
		"stamina":    1,
		"mobility":   1,
	}
}

// Validate fails fast on an empty table, a blank skill or a weight <= 0.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return ErrEmptyWeights
	}
	for skill, weight := range w {
		if strings.TrimSpace(skill) == "" {
			return fmt.Errorf("%w: blank skill name", ErrInvalidWeight)
		}
		if weight <= 0 {
			return fmt.Errorf("%w: %q has weight %d", ErrInvalidWeight, skill, weight)
		}
	}
	return nil
}

// Skills returns the skill names in sorted order.
func (w Weights) Skills() []string {
	out := make([]string, 0, len(w))
	for skill := range w {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
