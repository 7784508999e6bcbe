package team

import (
	"fmt"
	"math"
	"math/bits"
)

// maxPreallocated caps the up-front slice allocation for unbounded enumerations.
const maxPreallocated = 1 << 16

// TeamSizes resolves the roster sizes for a pool. A teamSize of 0 splits the
// pool in half, rounding down. For odd pools the secondary size is the
// complement N-primary; for even pools both sizes are equal.
func TeamSizes(poolSize, teamSize int) (primary, secondary int, err error) {
	if poolSize < 2 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrPoolTooSmall, poolSize)
	}
	if teamSize < 0 {
		return 0, 0, fmt.Errorf("%w: %d is negative", ErrInvalidTeamSize, teamSize)
	}
	if teamSize == 0 {
		teamSize = poolSize / 2
	}
	if teamSize >= poolSize {
		return 0, 0, fmt.Errorf("%w: %d for a pool of %d", ErrInvalidTeamSize, teamSize, poolSize)
	}
	if poolSize%2 == 1 {
		return teamSize, poolSize - teamSize, nil
	}
	return teamSize, teamSize, nil
}

// binomial returns C(n, k), saturating at math.MaxInt.
func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := uint64(1)
	for i := 1; i <= k; i++ {
		// result * (n-k+i) / i stays exact because result is C(n-k+i-1, i-1).
		hi, lo := bits.Mul64(result, uint64(n-k+i))
		if hi != 0 {
			return math.MaxInt
		}
		result = lo / uint64(i)
		if result > math.MaxInt {
			return math.MaxInt
		}
	}
	return int(result)
}

// CandidateCount returns how many rosters Enumerate would build, saturating
// at math.MaxInt.
func CandidateCount(poolSize, teamSize int) (int, error) {
	primary, secondary, err := TeamSizes(poolSize, teamSize)
	if err != nil {
		return 0, err
	}
	n := binomial(poolSize, primary)
	if secondary != primary {
		m := binomial(poolSize, secondary)
		if n > math.MaxInt-m {
			return math.MaxInt, nil
		}
		n += m
	}
	return n, nil
}

// Enumerate builds every primary-size roster of the pool and, for odd pools,
// every secondary-size roster after them. Members keep pool order and
// combinations come out in lexicographic index order.
func Enumerate(pool []*Participant, teamSize int, opts ...EnumerateOption) ([]*Roster, error) {
	cfg := enumerateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	seen := make(map[string]struct{}, len(pool))
	for _, p := range pool {
		if p == nil {
			return nil, ErrNilParticipant
		}
		if _, dup := seen[p.name]; dup {
			return nil, duplicateErr(p.name)
		}
		seen[p.name] = struct{}{}
	}

	primary, secondary, err := TeamSizes(len(pool), teamSize)
	if err != nil {
		return nil, err
	}
	total, _ := CandidateCount(len(pool), teamSize)
	if cfg.maxCandidates > 0 && total > cfg.maxCandidates {
		return nil, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyCandidates, total, cfg.maxCandidates)
	}

	capHint := total
	if capHint > maxPreallocated {
		capHint = maxPreallocated
	}
	out := make([]*Roster, 0, capHint)
	out = appendCombinations(out, pool, primary)
	if secondary != primary {
		out = appendCombinations(out, pool, secondary)
	}
	return out, nil
}

// appendCombinations appends every k-subset of pool as a roster.
func appendCombinations(out []*Roster, pool []*Participant, k int) []*Roster {
	n := len(pool)
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		members := make([]*Participant, k)
		names := make(map[string]struct{}, k)
		for i, j := range idx {
			members[i] = pool[j]
			names[pool[j].name] = struct{}{}
		}
		out = append(out, &Roster{members: members, names: names})

		// Advance to the next combination: find the rightmost index that can move.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
