package team_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/lineup/internal/domain/cache"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/scoring"
	"github.com/okian/lineup/internal/domain/team"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeSource serves every skill at a fixed rating per player and counts fetches.
type fakeSource struct {
	ratings map[string]float64
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) RatingSamples(_ context.Context, participant string, skills []string) ([]model.Sample, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.ratings[participant]
	if !ok {
		return nil, nil
	}
	out := make([]model.Sample, 0, len(skills))
	for _, s := range skills {
		out = append(out, model.Sample{Skill: s, Rating: r})
	}
	return out, nil
}

func newAggregator() *scoring.Aggregator {
	agg, err := scoring.NewAggregator(scoring.DefaultWeights())
	So(err, ShouldBeNil)
	return agg
}

func newPool(src team.VoteSource, agg *scoring.Aggregator, names ...string) []*team.Participant {
	c := cache.New()
	out := make([]*team.Participant, len(names))
	for i, n := range names {
		p, err := team.NewParticipant(n, src, agg, team.WithCache(c))
		So(err, ShouldBeNil)
		out[i] = p
	}
	return out
}

func TestParticipant(t *testing.T) {
	ctx := context.Background()

	Convey("Given a participant backed by a cache", t, func() {
		src := &fakeSource{ratings: map[string]float64{"ana": 8}}
		agg := newAggregator()
		p, err := team.NewParticipant("ana", src, agg, team.WithCache(cache.New()))
		So(err, ShouldBeNil)

		Convey("Then its string form should hide scores", func() {
			So(p.String(), ShouldEqual, "Name: ana")
			So(p.Name(), ShouldEqual, "ana")
		})

		Convey("When scores are read repeatedly", func() {
			s1, err1 := p.OverallScore(ctx, nil)
			s2, err2 := p.OverallScore(ctx, nil)
			means, err3 := p.SkillScores(ctx, nil)

			Convey("Then samples should be fetched once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(s1, ShouldEqual, 8)
				So(s2, ShouldEqual, 8)
				So(len(means), ShouldEqual, 5)
				So(src.calls.Load(), ShouldEqual, 1)
			})

			Convey("Then another selection should fetch again", func() {
				_, err := p.SkillScores(ctx, []string{"attack"})
				So(err, ShouldBeNil)
				So(src.calls.Load(), ShouldEqual, 2)
			})

			Convey("Then mutating the returned map should not touch the cache", func() {
				means["attack"] = 0
				again, _ := p.SkillScores(ctx, nil)
				So(again["attack"], ShouldEqual, 8)
			})
		})

		Convey("When many goroutines ask at once", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = p.OverallScore(ctx, nil)
				}()
			}
			wg.Wait()

			Convey("Then at most one fetch should happen", func() {
				So(src.calls.Load(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a participant without votes", t, func() {
		src := &fakeSource{}
		p, err := team.NewParticipant("new", src, newAggregator())
		So(err, ShouldBeNil)

		Convey("Then every skill and the overall score should default", func() {
			means, err := p.SkillScores(ctx, nil)
			So(err, ShouldBeNil)
			for _, v := range means {
				So(v, ShouldEqual, scoring.DefaultRating)
			}
			score, err := p.OverallScore(ctx, nil)
			So(err, ShouldBeNil)
			So(score, ShouldEqual, scoring.DefaultRating)
		})

		Convey("Then without a cache every call should fetch", func() {
			_, _ = p.OverallScore(ctx, nil)
			_, _ = p.OverallScore(ctx, nil)
			So(src.calls.Load(), ShouldEqual, 2)
		})
	})

	Convey("Given invalid participants", t, func() {
		agg := newAggregator()

		Convey("A blank name should be invalid input", func() {
			_, err := team.NewParticipant(" ", &fakeSource{}, agg)
			So(errors.Is(err, team.ErrBlankName), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("A missing source should be a configuration error", func() {
			_, err := team.NewParticipant("ana", nil, agg)
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("A failing source should surface its error", func() {
			boom := errors.New("db down")
			p, _ := team.NewParticipant("ana", &fakeSource{err: boom}, agg)
			_, err := p.OverallScore(ctx, nil)
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("An unknown skill should be a configuration error", func() {
			p, _ := team.NewParticipant("ana", &fakeSource{}, agg)
			_, err := p.SkillScores(ctx, []string{"juggling"})
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestRoster(t *testing.T) {
	ctx := context.Background()

	Convey("Given four rated participants", t, func() {
		src := &fakeSource{ratings: map[string]float64{"a": 8, "b": 8, "c": 2, "d": 2}}
		pool := newPool(src, newAggregator(), "a", "b", "c", "d")

		ab, err := team.NewRoster("ab", []*team.Participant{pool[0], pool[1]})
		So(err, ShouldBeNil)
		cd, _ := team.NewRoster("cd", []*team.Participant{pool[2], pool[3]})
		bc, _ := team.NewRoster("", []*team.Participant{pool[1], pool[2]})

		Convey("Then aggregates should sum member scores", func() {
			s, err := ab.AggregateScore(ctx)
			So(err, ShouldBeNil)
			So(s, ShouldEqual, 16)
		})

		Convey("Then the gap should be absolute", func() {
			g1, _ := ab.ScoreGap(ctx, cd)
			g2, _ := cd.ScoreGap(ctx, ab)
			So(g1, ShouldEqual, 12)
			So(g2, ShouldEqual, 12)
		})

		Convey("Then intersection should follow member names", func() {
			So(ab.Intersects(cd), ShouldBeFalse)
			So(ab.Intersects(bc), ShouldBeTrue)
			So(bc.Intersects(cd), ShouldBeTrue)
		})

		Convey("Then the strongest member should be the first maximum", func() {
			m, err := ab.StrongestMember(ctx)
			So(err, ShouldBeNil)
			So(m.Name(), ShouldEqual, "a")
		})

		Convey("Then names should keep member order", func() {
			So(bc.Names(), ShouldResemble, []string{"b", "c"})
			So(bc.Size(), ShouldEqual, 2)
			So(ab.Name(), ShouldEqual, "ab")
			So(ab.Has("a"), ShouldBeTrue)
			So(ab.Has("c"), ShouldBeFalse)
			So(len(ab.Members()), ShouldEqual, 2)
		})

		Convey("Then invalid rosters should be rejected", func() {
			_, err := team.NewRoster("x", []*team.Participant{pool[0], pool[0]})
			So(errors.Is(err, team.ErrDuplicateParticipant), ShouldBeTrue)
			_, err = team.NewRoster("x", []*team.Participant{pool[0], nil})
			So(errors.Is(err, team.ErrNilParticipant), ShouldBeTrue)
			_, err = team.NewRoster("x", nil)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestTeamSizes(t *testing.T) {
	Convey("Given pool and team sizes", t, func() {
		cases := []struct {
			pool, team, primary, secondary int
		}{
			{4, 0, 2, 2},
			{4, 1, 1, 1},
			{5, 0, 2, 3},
			{5, 1, 1, 4},
			{10, 5, 5, 5},
			{2, 0, 1, 1},
			{3, 2, 2, 1},
		}
		for _, c := range cases {
			p, s, err := team.TeamSizes(c.pool, c.team)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, c.primary)
			So(s, ShouldEqual, c.secondary)
		}

		Convey("Impossible sizes should be configuration errors", func() {
			for _, c := range [][2]int{{1, 0}, {0, 0}, {4, 4}, {4, 5}, {4, -1}} {
				_, _, err := team.TeamSizes(c[0], c[1])
				So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
			}
		})
	})
}

func TestEnumerate(t *testing.T) {
	Convey("Given an even pool of four", t, func() {
		pool := newPool(&fakeSource{}, newAggregator(), "a", "b", "c", "d")
		rosters, err := team.Enumerate(pool, 2)

		Convey("Then every pair should be produced in pool order", func() {
			So(err, ShouldBeNil)
			So(len(rosters), ShouldEqual, 6)
			var got [][]string
			for _, r := range rosters {
				got = append(got, r.Names())
			}
			So(got, ShouldResemble, [][]string{
				{"a", "b"}, {"a", "c"}, {"a", "d"}, {"b", "c"}, {"b", "d"}, {"c", "d"},
			})
		})
	})

	Convey("Given an odd pool of five and no team size", t, func() {
		pool := newPool(&fakeSource{}, newAggregator(), "a", "b", "c", "d", "e")
		rosters, err := team.Enumerate(pool, 0)

		Convey("Then both split sizes should be produced", func() {
			So(err, ShouldBeNil)
			So(len(rosters), ShouldEqual, 20)
			sizes := map[int]int{}
			for _, r := range rosters {
				sizes[r.Size()]++
			}
			So(sizes[2], ShouldEqual, 10)
			So(sizes[3], ShouldEqual, 10)
			So(rosters[10].Names(), ShouldResemble, []string{"a", "b", "c"})
			n, _ := team.CandidateCount(5, 0)
			So(n, ShouldEqual, len(rosters))
		})
	})

	Convey("Given invalid pools", t, func() {
		agg := newAggregator()
		pool := newPool(&fakeSource{}, agg, "a", "b", "c")

		Convey("Duplicates should be invalid input", func() {
			_, err := team.Enumerate([]*team.Participant{pool[0], pool[1], pool[0]}, 1)
			So(errors.Is(err, team.ErrDuplicateParticipant), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("A nil participant should be invalid input", func() {
			_, err := team.Enumerate([]*team.Participant{pool[0], nil}, 1)
			So(errors.Is(err, team.ErrNilParticipant), ShouldBeTrue)
		})

		Convey("A team as large as the pool should be a configuration error", func() {
			_, err := team.Enumerate(pool, 3)
			So(errors.Is(err, team.ErrInvalidTeamSize), ShouldBeTrue)
		})

		Convey("Exceeding the candidate limit should fail before building", func() {
			_, err := team.Enumerate(pool, 1, team.WithMaxCandidates(5))
			So(errors.Is(err, team.ErrTooManyCandidates), ShouldBeTrue)
			rosters, err := team.Enumerate(pool, 1, team.WithMaxCandidates(6))
			So(err, ShouldBeNil)
			So(len(rosters), ShouldEqual, 6)
		})
	})
}

func TestCandidateCount(t *testing.T) {
	Convey("Candidate counts should follow the binomial coefficients", t, func() {
		n, err := team.CandidateCount(10, 5)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 252)

		n, _ = team.CandidateCount(11, 0)
		So(n, ShouldEqual, 462+462)

		n, _ = team.CandidateCount(120, 60)
		So(n, ShouldEqual, math.MaxInt)
	})
}
