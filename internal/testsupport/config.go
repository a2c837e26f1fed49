package testsupport

import (
	"path/filepath"
	"testing"

	"liner/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Research.APIKey = "test"
	cfgVal.Paths.CardsDir = filepath.Join(base, "cards")
	cfgVal.Paths.QuarantineDir = filepath.Join(base, "problem-cards")
	cfgVal.Paths.BackupDir = filepath.Join(base, "backups")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.GraphPath = filepath.Join(base, "artist_connections.json")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithResearchKey sets the research provider API key on the test config.
func WithResearchKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Research.APIKey = key
	}
}

// WithSuspicionThreshold overrides the classifier threshold on the test config.
func WithSuspicionThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classifier.SuspicionThreshold = threshold
	}
}

// WithRateLimit overrides the provider pacing interval on the test config.
func WithRateLimit(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.RateLimitSeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CardsDir)
}
