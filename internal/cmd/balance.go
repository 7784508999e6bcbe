package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/lineup/internal/adapters/repository"
	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// ErrNoPlayers is returned when neither --players nor the votes file name anyone.
var ErrNoPlayers = errors.New("no players to balance")

// votesFile is the YAML layout read by the balance command.
type votesFile struct {
	Votes []struct {
		Voter   string         `yaml:"voter"`
		Player  string         `yaml:"player"`
		Ratings map[string]int `yaml:"ratings"`
	} `yaml:"votes"`
}

type balanceFlags struct {
	votesPath string
	players   []string
	teamSize  int
	tolerance float64
	cycles    int
	seed      int64
	asJSON    bool
}

func newBalanceCommand() *cobra.Command {
	var f balanceFlags
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Balance players offline from a YAML file of votes",
		Example: `  lineup balance --votes votes.yaml --players ann,bob,cid,dan --seed 7
  lineup balance --votes votes.yaml --team-size 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBalance(cmd, &f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.votesPath, "votes", "", "YAML file with a top-level votes list")
	fl.StringSliceVar(&f.players, "players", nil, "players to split (default: every rated player)")
	fl.IntVar(&f.teamSize, "team-size", 0, "players per team (default: half the pool)")
	fl.Float64Var(&f.tolerance, "tolerance", 0, "initial allowed score gap")
	fl.IntVar(&f.cycles, "cycles", 0, "maximum relaxation cycles")
	fl.Int64Var(&f.seed, "seed", 0, "random seed for reproducible runs")
	fl.BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("votes")
	return cmd
}

func runBalance(cmd *cobra.Command, f *balanceFlags) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	file, err := readVotes(f.votesPath)
	if err != nil {
		return err
	}

	store := repository.NewMemoryStore()
	svc, err := service.New(append(serviceOptions(cfg, log), service.WithStore(store))...)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var rated []string
	for i, rec := range file.Votes {
		v := model.Vote{
			ID:      fmt.Sprintf("file-%d", i),
			Voter:   rec.Voter,
			Player:  rec.Player,
			Ratings: rec.Ratings,
		}
		if err := v.Validate(svc.Skills(), svc.RatingRange()); err != nil {
			return fmt.Errorf("%s: vote %d: %w", f.votesPath, i+1, err)
		}
		if _, err := store.RecordVote(ctx, v); err != nil {
			return fmt.Errorf("%s: vote %d: %w", f.votesPath, i+1, err)
		}
		if !seen[v.Player] {
			seen[v.Player] = true
			rated = append(rated, v.Player)
		}
	}

	players := f.players
	if len(players) == 0 {
		players = rated
		sort.Strings(players)
	}
	if len(players) == 0 {
		return ErrNoPlayers
	}

	req := service.BalanceRequest{Players: players, TeamSize: f.teamSize}
	fl := cmd.Flags()
	if fl.Changed("tolerance") {
		req.Tolerance = &f.tolerance
	}
	if fl.Changed("cycles") {
		req.MaxRelaxCycles = &f.cycles
	}
	if fl.Changed("seed") {
		req.Seed = &f.seed
	}

	res, err := svc.Balance(ctx, req)
	if err != nil {
		return err
	}
	if f.asJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printText(cmd.OutOrStdout(), res)
	return nil
}

func readVotes(path string) (*votesFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read votes: %w", err)
	}
	var file votesFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &file, nil
}

func printJSON(w io.Writer, res service.BalanceResult) error { //nolint:gocritic // hugeParam
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(types.BalanceResponse{
		RunID:      res.RunID,
		Found:      res.Found,
		TeamA:      res.TeamA,
		TeamB:      res.TeamB,
		Gap:        res.Gap,
		Tolerance:  res.Tolerance,
		Bound:      res.Bound,
		Cycles:     res.Cycles,
		Candidates: res.Candidates,
		Reason:     res.Reason,
		Seed:       res.Seed,
		DurationMs: float64(res.Duration.Microseconds()) / 1000.0,
	})
}

func printText(w io.Writer, res service.BalanceResult) { //nolint:gocritic // hugeParam
	if !res.Found {
		reason := res.Reason
		if reason == "" {
			reason = "no pair within tolerance"
		}
		fmt.Fprintf(w, "no balanced split found (%s) after %d cycles, tolerance %.2f, seed %d\n",
			reason, res.Cycles, res.Tolerance, res.Seed)
		return
	}
	fmt.Fprintf(w, "team A: %s\n", strings.Join(res.TeamA, ", "))
	fmt.Fprintf(w, "team B: %s\n", strings.Join(res.TeamB, ", "))
	fmt.Fprintf(w, "gap %.2f within %.2f after %d cycles (%d candidates, seed %d)\n",
		res.Gap, res.Tolerance, res.Cycles, res.Candidates, res.Seed)
}
