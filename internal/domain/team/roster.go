package team

import (
	"context"
	"math"
	"strings"
)

// Roster is a candidate team of fixed size. Members are shared with other
// rosters and never copied.
type Roster struct {
	name    string
	members []*Participant
	names   map[string]struct{}
}

// NewRoster builds a roster; nil or duplicate members are rejected.
func NewRoster(name string, members []*Participant) (*Roster, error) {
	if len(members) == 0 {
		return nil, ErrEmptyRoster
	}
	r := &Roster{
		name:    name,
		members: make([]*Participant, len(members)),
		names:   make(map[string]struct{}, len(members)),
	}
	for i, m := range members {
		if m == nil {
			return nil, ErrNilParticipant
		}
		if _, dup := r.names[m.name]; dup {
			return nil, duplicateErr(m.name)
		}
		r.names[m.name] = struct{}{}
		r.members[i] = m
	}
	return r, nil
}

// Name returns the optional label.
func (r *Roster) Name() string { return r.name }

// Size returns the number of members.
func (r *Roster) Size() int { return len(r.members) }

// Members returns the members in construction order.
func (r *Roster) Members() []*Participant {
	out := make([]*Participant, len(r.members))
	copy(out, r.members)
	return out
}

// Names returns member names in construction order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.members))
	for i, m := range r.members {
		out[i] = m.name
	}
	return out
}

// Has reports whether name is a member.
func (r *Roster) Has(name string) bool {
	_, ok := r.names[name]
	return ok
}

// AggregateScore sums member overall scores. It is recomputed on every call;
// member scores themselves are memoized by each participant.
func (r *Roster) AggregateScore(ctx context.Context) (float64, error) {
	var sum float64
	for _, m := range r.members {
		s, err := m.OverallScore(ctx, nil)
		if err != nil {
			return 0, err
		}
		sum += s
	}
	return sum, nil
}

// Intersects reports whether the rosters share any member name.
func (r *Roster) Intersects(other *Roster) bool {
	small, large := r, other
	if len(large.names) < len(small.names) {
		small, large = large, small
	}
	for n := range small.names {
		if _, ok := large.names[n]; ok {
			return true
		}
	}
	return false
}

// ScoreGap returns |AggregateScore(r) - AggregateScore(other)|.
func (r *Roster) ScoreGap(ctx context.Context, other *Roster) (float64, error) {
	a, err := r.AggregateScore(ctx)
	if err != nil {
		return 0, err
	}
	b, err := other.AggregateScore(ctx)
	if err != nil {
		return 0, err
	}
	return math.Abs(a - b), nil
}

// StrongestMember returns the member with the highest overall score. Ties go
// to the first maximum in member order.
func (r *Roster) StrongestMember(ctx context.Context) (*Participant, error) {
	var best *Participant
	bestScore := math.Inf(-1)
	for _, m := range r.members {
		s, err := m.OverallScore(ctx, nil)
		if err != nil {
			return nil, err
		}
		if s > bestScore {
			best, bestScore = m, s
		}
	}
	return best, nil
}

func (r *Roster) String() string {
	label := r.name
	if label == "" {
		label = "roster"
	}
	return label + "[" + strings.Join(r.Names(), ", ") + "]"
}
