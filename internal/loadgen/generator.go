package loadgen

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/lineup/internal/domain/types"
)

// Player is a generated player with the skill level votes are drawn around.
type Player struct {
	Name  string
	Level float64
}

// tier is a band of hidden skill levels, as fractions of the rating range.
type tier struct {
	low, high float64
}

// Most players are average, a few are very strong or very weak.
var tiers = []tier{
	{0.35, 0.65}, {0.35, 0.65}, {0.35, 0.65},
	{0.6, 0.85}, {0.15, 0.4},
	{0.85, 1.0}, {0.0, 0.15},
	{0.0, 1.0},
}

// noise is the largest distance, in rating points, between a vote and the
// player's level.
const noise = 1.5

type generator struct {
	rng *rand.Rand
	cfg *Config
}

func newGenerator(cfg *Config) *generator {
	return &generator{rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)), cfg: cfg}
}

// players returns cfg.Players players named player-000, player-001...
func (g *generator) players() []Player {
	span := float64(g.cfg.RatingMax - g.cfg.RatingMin)
	out := make([]Player, g.cfg.Players)
	for i := range out {
		t := tiers[g.rng.IntN(len(tiers))]
		frac := t.low + g.rng.Float64()*(t.high-t.low)
		out[i] = Player{
			Name:  fmt.Sprintf("player-%03d", i),
			Level: float64(g.cfg.RatingMin) + frac*span,
		}
	}
	return out
}

// votes returns one vote per (voter, player) pair with fresh vote ids.
func (g *generator) votes(players []Player) []types.VoteRequest {
	out := make([]types.VoteRequest, 0, len(players)*g.cfg.Voters)
	for v := 0; v < g.cfg.Voters; v++ {
		voter := fmt.Sprintf("voter-%02d", v)
		for _, p := range players {
			ratings := make(map[string]int, len(g.cfg.Skills))
			for _, skill := range g.cfg.Skills {
				ratings[skill] = g.rating(p.Level)
			}
			out = append(out, types.VoteRequest{
				VoteID:  uuid.NewString(),
				Voter:   voter,
				Player:  p.Name,
				Ratings: ratings,
			})
		}
	}
	return out
}

func (g *generator) rating(level float64) int {
	r := int(math.Round(level + (g.rng.Float64()*2-1)*noise))
	return min(max(r, g.cfg.RatingMin), g.cfg.RatingMax)
}

// pick returns n distinct player names in random order.
func (g *generator) pick(players []Player, n int) []string {
	idx := g.rng.Perm(len(players))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = players[j].Name
	}
	return out
}
