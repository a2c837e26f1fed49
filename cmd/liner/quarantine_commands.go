package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"liner/internal/quarantine"
)

func newQuarantineCommand(ctx *commandContext) *cobra.Command {
	quarantineCmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Inspect and manage quarantined cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuarantineList(ctx, cmd)
		},
	}

	quarantineCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List quarantined cards with their recorded reasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuarantineList(ctx, cmd)
		},
	})
	quarantineCmd.AddCommand(newQuarantineRestoreCommand(ctx))

	return quarantineCmd
}

func runQuarantineList(ctx *commandContext, cmd *cobra.Command) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.buildLogger(cfg)
	if err != nil {
		return err
	}
	manager := quarantine.NewManager(cfg.Paths, logger)

	records, err := manager.Records()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No quarantined cards")
		return nil
	}

	tbl := newSummaryTable(col("When"), col("File"), col("Artist"), col("Reason"))
	for _, record := range records {
		when, _ := time.Parse(time.RFC3339, record.Timestamp)
		tbl.addRow(
			whenCell(when),
			record.Filename,
			record.Artist,
			record.Reason,
		)
	}
	fmt.Fprintln(out, tbl.render())
	return nil
}

func newQuarantineRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <card-key>",
		Short: "Move a quarantined card back into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			manager := quarantine.NewManager(cfg.Paths, logger)
			if err := manager.Restore(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to the card library\n", args[0])
			return nil
		},
	}
}
