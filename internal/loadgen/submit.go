package loadgen

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

// submitVotes posts votes with cfg.Workers concurrent workers.
func submitVotes(ctx context.Context, c *client, cfg *Config, votes []types.VoteRequest, stats *Stats, log logger.Logger) {
	log.Info(ctx, "submitting votes", logger.Int("votes", len(votes)), logger.Int("workers", cfg.Workers))

	var accepted, duplicate, failed atomic.Int64
	ch := make(chan types.VoteRequest, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range ch {
				ack, err := c.vote(ctx, v)
				switch {
				case err != nil:
					failed.Add(1)
					log.Debug(ctx, "vote rejected", logger.String("vote_id", v.VoteID), logger.Error(err))
				case ack.Duplicate:
					duplicate.Add(1)
				default:
					accepted.Add(1)
				}
			}
		}()
	}

	func() {
		defer close(ch)
		for _, v := range votes {
			select {
			case <-ctx.Done():
				return
			case ch <- v:
			}
		}
	}()
	wg.Wait()

	stats.VotesAccepted = int(accepted.Load())
	stats.VotesDuplicate = int(duplicate.Load())
	stats.VotesFailed = int(failed.Load())
	log.Info(ctx, "vote submission completed",
		logger.Int("accepted", stats.VotesAccepted),
		logger.Int("duplicate", stats.VotesDuplicate),
		logger.Int("failed", stats.VotesFailed))
}
