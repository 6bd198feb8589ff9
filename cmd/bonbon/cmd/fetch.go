package cmd

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bonbon-indexer/bonbon/blockstore"
	"github.com/bonbon-indexer/bonbon/pipeline"
	"github.com/bonbon-indexer/bonbon/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <start-slot> <end-slot>",
	Short: "Fetch a slot range and persist its token/metadata transactions",
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
		bs := blockstore.New(blockstore.WithEndpoint(cfg.RPCEndpoint))

		logger.Info("fetching slot range", zap.Int64("start_slot", startSlot), zap.Int64("end_slot", endSlot))
		if err := pipeline.FetchBlockRange(cmd.Context(), bs, cs, startSlot, endSlot); err != nil {
			return err
		}

		color.Green("fetched slots %d-%d", startSlot, endSlot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
