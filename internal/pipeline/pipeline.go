package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"liner/internal/classify"
	"liner/internal/config"
	"liner/internal/graph"
	"liner/internal/ledger"
	"liner/internal/library"
	"liner/internal/logging"
	"liner/internal/notifications"
	"liner/internal/quarantine"
	"liner/internal/recovery"
	"liner/internal/research"
)

// Options control one enhancement run.
type Options struct {
	// DryRun walks the full decision path but writes nothing to the card
	// library, quarantine, or graph. The ledger still records the run.
	DryRun bool
	// Force reprocesses cards that already carry an enhancement stamp.
	Force bool
	// SkipDetection bypasses the suspicion classifier and the biography
	// verification pass, sending every eligible card straight to enrichment.
	SkipDetection bool
	// Keys restricts the run to the named cards. Empty means the whole
	// library.
	Keys []string
}

// Deps are the collaborators a pipeline needs. Researcher, Library, and
// Store are required; the rest degrade gracefully when absent.
type Deps struct {
	Library      *library.Library
	Store        *ledger.Store
	Researcher   research.Researcher
	Encyclopedia research.Encyclopedia
	Metadata     research.MetadataProvider
	Notifier     notifications.Service
	Logger       *slog.Logger
}

// Pipeline runs the classify, recover-or-enrich, quarantine-or-update state
// machine over the card library.
type Pipeline struct {
	cfg        *config.Config
	lib        *library.Library
	store      *ledger.Store
	classifier *classify.Classifier
	researcher research.Researcher
	metadata   research.MetadataProvider
	agent      *recovery.Agent
	quar       *quarantine.Manager
	notifier   notifications.Service
	logger     *slog.Logger

	// sleep is swappable so tests can run without real pacing delays.
	sleep func(ctx context.Context, d time.Duration)
}

// New validates the dependency set and assembles a pipeline.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.Library == nil {
		return nil, errors.New("library is required")
	}
	if deps.Store == nil {
		return nil, errors.New("ledger store is required")
	}
	if deps.Researcher == nil {
		return nil, errors.New("researcher is required")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	return &Pipeline{
		cfg:        cfg,
		lib:        deps.Library,
		store:      deps.Store,
		classifier: classify.New(cfg.Classifier, logger),
		researcher: deps.Researcher,
		metadata:   deps.Metadata,
		agent:      recovery.NewAgent(deps.Researcher, deps.Encyclopedia, logger),
		quar:       quarantine.NewManager(cfg.Paths, logger),
		notifier:   notifier,
		logger:     logger,
		sleep:      sleepContext,
	}, nil
}

// Run processes the library once and returns aggregate statistics.
//
// A held library lock, a missing cards directory, or an unopenable graph
// file abort the run; a single card's failure never does.
func (p *Pipeline) Run(ctx context.Context, opts Options) (ledger.Stats, error) {
	if err := p.lib.Acquire(); err != nil {
		return ledger.Stats{}, err
	}
	defer p.lib.Release()

	entries, err := p.lib.List()
	if err != nil {
		return ledger.Stats{}, err
	}
	entries = filterEntries(entries, opts.Keys)

	relGraph, err := graph.Load(p.cfg.Paths.GraphPath, p.logger)
	if err != nil {
		return ledger.Stats{}, err
	}

	started := time.Now()
	run, err := p.store.StartRun(ctx, uuid.NewString(), opts.DryRun, started)
	if err != nil {
		return ledger.Stats{}, err
	}
	p.logger.Info("run started",
		logging.String("run_id", run.ID),
		logging.Int("cards", len(entries)),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("force", opts.Force))
	if err := p.notifier.NotifyRunStarted(ctx, len(entries), opts.DryRun); err != nil {
		p.logger.Warn("run start notification failed", logging.Error(err))
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run interrupted", logging.Error(err))
			break
		}
		p.processCard(ctx, run, relGraph, entry, opts)
	}

	if !opts.DryRun {
		if err := relGraph.Flush(); err != nil {
			p.logger.Error("graph flush failed", logging.Error(err))
			p.notifyError(ctx, err, "relationship graph")
		}
	}
	if err := p.store.FinishRun(ctx, run.ID, time.Now()); err != nil {
		p.logger.Warn("finish run failed", logging.Error(err))
	}

	stats, err := p.store.RunStats(ctx, run.ID)
	if err != nil {
		return ledger.Stats{}, fmt.Errorf("run stats: %w", err)
	}
	p.logger.Info("run completed",
		logging.String("run_id", run.ID),
		logging.Int("processed", stats.Processed),
		logging.Int("enhanced", stats.Enhanced),
		logging.Int("recovered", stats.Recovered),
		logging.Int("quarantined", stats.Quarantined),
		logging.Int("failed", stats.Failed),
		logging.Float64("success_rate", stats.SuccessRate()),
		logging.Duration("duration", time.Since(started)))
	if err := p.notifier.NotifyRunCompleted(ctx, stats, time.Since(started)); err != nil {
		p.logger.Warn("run completion notification failed", logging.Error(err))
	}
	return stats, nil
}

func (p *Pipeline) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := p.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		p.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}

// pace enforces the fixed delay after each provider call. Cooperative
// pacing, not a rate limiter: throughput is not a goal here.
func (p *Pipeline) pace(ctx context.Context) {
	seconds := p.cfg.Workflow.RateLimitSeconds
	if seconds <= 0 {
		return
	}
	p.sleep(ctx, time.Duration(seconds)*time.Second)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func filterEntries(entries []library.Entry, keys []string) []library.Entry {
	if len(keys) == 0 {
		return entries
	}
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		wanted[key] = struct{}{}
	}
	filtered := make([]library.Entry, 0, len(keys))
	for _, entry := range entries {
		if _, ok := wanted[entry.Key]; ok {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
