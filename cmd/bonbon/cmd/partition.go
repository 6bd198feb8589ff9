package cmd

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bonbon-indexer/bonbon/pipeline"
	"github.com/bonbon-indexer/bonbon/store"
)

var partitionCmd = &cobra.Command{
	Use:   "partition <start-slot> <end-slot>",
	Short: "Classify every persisted instruction in a slot range by mint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		startSlot, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		endSlot, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}

		cs, err := store.Open(cfg.DatabaseDSN)
		if err != nil {
			return err
		}

		logger.Info("partitioning slot range", zap.Int64("start_slot", startSlot), zap.Int64("end_slot", endSlot))
		if err := pipeline.PartitionSlotRange(cmd.Context(), cs, startSlot, endSlot); err != nil {
			return err
		}

		color.Green("partitioned slots %d-%d", startSlot, endSlot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(partitionCmd)
}
