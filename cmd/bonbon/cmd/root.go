/*
Copyright © 2024 bonbon
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config
	logger *zap.Logger
	runID  string
)

// rootCmd is the entry point for every bonbon subcommand.
var rootCmd = &cobra.Command{
	Use:   "bonbon",
	Short: "Reconstruct per-asset NFT history from a Solana ledger",
	Long: "bonbon replays a fungible-token program and a metadata program's " +
		"instructions into a per-asset history: metadata revisions, edition " +
		"lineage, and the ownership chain from mint to burn.",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = loadConfig()
		runID = uuid.NewString()

		z, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("cmd: build logger: %w", err)
		}
		logger = z.With(zap.String("run_id", runID))
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return logger.Sync()
		}
		return nil
	},
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
