package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"liner/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showItems bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest enhancement run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			run, err := store.LatestRun(cmd.Context())
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			state := "running"
			if run.Finished() {
				state = "finished " + run.FinishedAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "Started: %s  (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), state)
			if run.DryRun {
				fmt.Fprintln(out, "Dry run: yes")
			}

			stats, err := store.RunStats(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderStats(stats))

			if !showItems {
				return nil
			}
			items, err := store.ItemsByRun(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			tbl := newSummaryTable(
				col("Card"), col("Artist"), col("Status"),
				numCol("Confidence"), numCol("Connections"), col("Detail"))
			for _, item := range items {
				detail := item.ErrorMessage
				if detail == "" && len(item.Issues) > 0 {
					detail = strings.Join(item.Issues, "; ")
				}
				tbl.addRow(
					item.CardKey,
					item.Artist,
					string(item.Status),
					confidenceCell(item.Confidence),
					countCell(item.Connections),
					detail,
				)
			}
			fmt.Fprintln(out, tbl.render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showItems, "items", false, "List every card processed in the run")
	return cmd
}
