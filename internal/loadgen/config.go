// Package loadgen drives a running lineup service with synthetic votes and
// checks the balance results it returns.
package loadgen

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL   string        // service base URL
	Players   int           // players to generate
	Voters    int           // voters rating every player
	TeamSize  int           // players per team in each balance request
	Runs      int           // balance requests to issue
	Workers   int           // concurrent vote submitters
	Timeout   time.Duration // per-request timeout
	Settle    time.Duration // how long to wait for queued votes to land
	Seed      uint64        // generator seed
	Skills    []string      // skills each vote rates
	RatingMin int
	RatingMax int
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("loadgen: base url is required")
	case c.Players < 2:
		return fmt.Errorf("loadgen: need at least 2 players, got %d", c.Players)
	case c.Voters < 1:
		return fmt.Errorf("loadgen: need at least 1 voter, got %d", c.Voters)
	case c.TeamSize < 1 || 2*c.TeamSize > c.Players:
		return fmt.Errorf("loadgen: team size %d does not fit %d players", c.TeamSize, c.Players)
	case c.Workers < 1:
		return fmt.Errorf("loadgen: need at least 1 worker, got %d", c.Workers)
	case c.Settle <= 0:
		return errors.New("loadgen: settle wait must be positive")
	case len(c.Skills) == 0:
		return errors.New("loadgen: no skills to rate")
	case c.RatingMin > c.RatingMax:
		return fmt.Errorf("loadgen: rating range [%d, %d] is empty", c.RatingMin, c.RatingMax)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	VotesGenerated  int
	VotesAccepted   int
	VotesDuplicate  int
	VotesFailed     int
	BalanceRuns     int
	BalanceFound    int
	BalanceNotFound int
	Violations      int
	StartTime       time.Time
	Duration        time.Duration
}
