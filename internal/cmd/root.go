// Package cmd implements the lineup command line.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

const envConfigFile = "LINEUP_CONFIG"

// NewRootCommand builds the lineup command tree.
func NewRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "lineup",
		Short: "Pick two balanced teams from peer-rated players",
		Long: `lineup collects skill votes for players and splits a pool of players
into two teams whose aggregate skill is as close as possible.

Configuration is read from defaults, then the YAML file named by --config
or LINEUP_CONFIG, then LINEUP_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configFile != "" {
				return os.Setenv(envConfigFile, configFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (YAML)")

	root.AddCommand(newServeCommand(), newBalanceCommand(), newLoadgenCommand())
	return root
}

// Execute runs the command line with args taken from os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
