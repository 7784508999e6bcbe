package cmd

import (
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/lineup/internal/loadgen"
)

func newLoadgenCommand() *cobra.Command {
	cfg := loadgen.Config{
		BaseURL:  "http://localhost:9080",
		Players:  40,
		Voters:   5,
		TeamSize: 5,
		Runs:     20,
		Workers:  runtime.NumCPU() * 2,
		Timeout:  30 * time.Second,
		Settle:   time.Minute,
		Seed:     uint64(time.Now().UnixNano()),
	}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Submit synthetic votes to a running service and verify balance results",
		Long: `loadgen rates generated players through the HTTP API, waits for the
votes to be stored, then asks for balanced teams out of random subsets and
checks every answer: disjoint teams, expected sizes, and a gap within the
reported bound. Skills and the rating range come from the same configuration
the service reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcCfg, log, err := loadConfig(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg.Skills = make([]string, 0, len(svcCfg.SkillWeights))
			for skill := range svcCfg.SkillWeights {
				cfg.Skills = append(cfg.Skills, skill)
			}
			sort.Strings(cfg.Skills)
			cfg.RatingMin, cfg.RatingMax = svcCfg.RatingMin, svcCfg.RatingMax

			_, err = loadgen.Run(cmd.Context(), &cfg, log.Named("loadgen"))
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	fl.IntVar(&cfg.Players, "players", cfg.Players, "players to generate")
	fl.IntVar(&cfg.Voters, "voters", cfg.Voters, "voters rating every player")
	fl.IntVar(&cfg.TeamSize, "team-size", cfg.TeamSize, "players per team in each balance request")
	fl.IntVar(&cfg.Runs, "runs", cfg.Runs, "balance requests to issue")
	fl.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent vote submitters")
	fl.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	fl.DurationVar(&cfg.Settle, "settle", cfg.Settle, "how long to wait for queued votes to be stored")
	fl.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "generator seed")
	return cmd
}
