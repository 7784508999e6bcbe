package loadgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/lineup/internal/domain/team"
	"github.com/okian/lineup/internal/domain/types"
)

// ErrViolation marks a balance response that breaks a result guarantee.
var ErrViolation = errors.New("loadgen: balance violation")

// scoreEpsilon absorbs float rounding between player scores and the gap.
const scoreEpsilon = 1e-6

// verifyBalance checks a balance response against the request that produced
// it. overall holds each placed player's score as read back from the server.
func verifyBalance(req types.BalanceRequest, res types.BalanceResponse, overall map[string]float64) error { //nolint:gocritic // hugeParam
	violation := func(format string, args ...any) error {
		return fmt.Errorf("%w: run %s: "+format, append([]any{ErrViolation, res.RunID}, args...)...)
	}
	if !res.Found {
		if len(res.TeamA) != 0 || len(res.TeamB) != 0 {
			return violation("teams reported without a match")
		}
		return nil
	}

	requested := make(map[string]bool, len(req.Players))
	for _, p := range req.Players {
		requested[p] = true
	}
	seen := make(map[string]bool, len(res.TeamA)+len(res.TeamB))
	for _, side := range [][]string{res.TeamA, res.TeamB} {
		for _, p := range side {
			if !requested[p] {
				return violation("%q was not requested", p)
			}
			if seen[p] {
				return violation("%q is on both teams", p)
			}
			seen[p] = true
		}
	}

	primary, secondary, err := team.TeamSizes(len(req.Players), req.TeamSize)
	if err != nil {
		return violation("request should have been rejected: %v", err)
	}
	a, b := len(res.TeamA), len(res.TeamB)
	if (a != primary || b != secondary) && (a != secondary || b != primary) {
		return violation("team sizes %d and %d, want %d and %d", a, b, primary, secondary)
	}

	var sums [2]float64
	for i, side := range [][]string{res.TeamA, res.TeamB} {
		for _, p := range side {
			s, ok := overall[p]
			if !ok {
				return violation("no score for %q", p)
			}
			sums[i] += s
		}
	}
	if math.Abs(math.Abs(sums[0]-sums[1])-res.Gap) > scoreEpsilon {
		return violation("gap %.4f does not match team scores %.4f and %.4f", res.Gap, sums[0], sums[1])
	}
	if res.Gap > res.Bound+scoreEpsilon {
		return violation("gap %.4f above bound %.4f", res.Gap, res.Bound)
	}
	return nil
}
