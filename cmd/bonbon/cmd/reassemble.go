package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bonbon-indexer/bonbon/pipeline"
	"github.com/bonbon-indexer/bonbon/store"
)

var reassembleCmd = &cobra.Command{
	Use:   "reassemble",
	Short: "Replay every partitioned mint's instructions into a Bonbon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := store.Open(cfg.DatabaseDSN)
		if err != nil {
			return err
		}

		logger.Info("reassembling all partitioned mints")
		if err := pipeline.ReassembleAll(cmd.Context(), cs); err != nil {
			return err
		}

		color.Green("reassembly complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reassembleCmd)
}
