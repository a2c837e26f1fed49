package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"liner/internal/graph"
)

func newGraphCommand(ctx *commandContext) *cobra.Command {
	var artistName string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show relationship graph statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			g, err := graph.Load(cfg.Paths.GraphPath, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if name := strings.TrimSpace(artistName); name != "" {
				entry, ok := g.Get(name)
				if !ok {
					fmt.Fprintf(out, "No graph entry for %q\n", name)
					return nil
				}
				fmt.Fprintf(out, "%s (updated %s)\n", name, entry.Updated)
				printNames(out, "Mentors", entry.Mentors)
				printNames(out, "Collaborators", entry.Collaborators)
				printNames(out, "Influenced", entry.Influenced)
				return nil
			}

			fmt.Fprintf(out, "Artists: %d\n", g.Len())
			fmt.Fprintf(out, "Relationships: %d\n", g.TotalEdges())
			if g.Len() == 0 {
				return nil
			}

			tbl := newSummaryTable(col("Artist"), numCol("Connections"))
			for _, name := range g.Artists() {
				tbl.addRow(name, countCell(len(g.Neighbors(name))))
			}
			fmt.Fprintln(out, tbl.render())
			return nil
		},
	}

	cmd.Flags().StringVar(&artistName, "artist", "", "Show one artist's relationships instead of the summary")
	return cmd
}

func printNames(out io.Writer, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(names, ", "))
}
