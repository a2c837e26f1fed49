package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"liner/internal/ledger"
	"liner/internal/library"
	"liner/internal/pipeline"
	"liner/internal/research"
	"liner/internal/services/perplexity"
	"liner/internal/services/spotify"
	"liner/internal/services/wikipedia"
)

func newEnhanceCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var force bool
	var skipDetection bool

	cmd := &cobra.Command{
		Use:   "enhance [card-key ...]",
		Short: "Classify, research, and enrich artist cards",
		Long: "Runs the full pipeline over the card library: suspicious cards are " +
			"re-researched and recovered or quarantined, clean cards are enriched " +
			"with fresh biography, fun facts, and musical connections. With card " +
			"keys as arguments, only those cards are processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}

			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			researchClient := perplexity.NewClient(cfg.Research.APIKey,
				perplexity.WithBaseURL(cfg.Research.BaseURL),
				perplexity.WithModel(cfg.Research.Model),
				perplexity.WithTemperature(cfg.Research.Temperature),
				perplexity.WithMaxTokens(cfg.Research.MaxTokens),
				perplexity.WithHTTPClient(&http.Client{
					Timeout: time.Duration(cfg.Research.TimeoutSeconds) * time.Second,
				}),
			)
			encyclopedia := wikipedia.NewClient(
				wikipedia.WithBaseURL(cfg.Encyclopedia.BaseURL),
				wikipedia.WithUserAgent(cfg.Encyclopedia.UserAgent),
				wikipedia.WithHTTPClient(&http.Client{
					Timeout: time.Duration(cfg.Encyclopedia.TimeoutSeconds) * time.Second,
				}),
			)
			var metadata research.MetadataProvider
			if cfg.Metadata.Enabled {
				metadata = spotify.NewClient(cfg.Metadata.ClientID, cfg.Metadata.ClientSecret,
					spotify.WithBaseURL(cfg.Metadata.BaseURL),
					spotify.WithTokenURL(cfg.Metadata.TokenURL),
					spotify.WithHTTPClient(&http.Client{
						Timeout: time.Duration(cfg.Metadata.TimeoutSeconds) * time.Second,
					}),
				)
			}

			p, err := pipeline.New(cfg, pipeline.Deps{
				Library:      library.New(cfg.Paths, logger),
				Store:        store,
				Researcher:   perplexity.NewResearcher(researchClient, logger),
				Encyclopedia: encyclopedia,
				Metadata:     metadata,
				Logger:       logger,
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := p.Run(runCtx, pipeline.Options{
				DryRun:        dryRun,
				Force:         force,
				SkipDetection: skipDetection,
				Keys:          args,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run: no cards were modified")
			}
			fmt.Fprintln(out, renderStats(stats))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Walk the decision path without writing anything")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess cards that are already enhanced")
	cmd.Flags().BoolVar(&skipDetection, "skip-detection", false, "Skip suspicion classification and verification")
	return cmd
}

func renderStats(stats ledger.Stats) string {
	tbl := newSummaryTable(col("Outcome"), numCol("Count"))
	tbl.addRow("Processed", countCell(stats.Processed))
	tbl.addRow("Enhanced", countCell(stats.Enhanced))
	tbl.addRow("Recovered", countCell(stats.Recovered))
	tbl.addRow("Quarantined", countCell(stats.Quarantined))
	tbl.addRow("Skipped (enhanced)", countCell(stats.SkippedEnhanced))
	tbl.addRow("Skipped (no anchor)", countCell(stats.SkippedNoAnchor))
	tbl.addRow("Failed", countCell(stats.Failed))
	tbl.addRow("Connections found", countCell(stats.ConnectionsFound))
	tbl.addRow("Success rate", percentCell(stats.SuccessRate()))
	return tbl.render()
}
