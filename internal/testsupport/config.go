package testsupport

import (
	"path/filepath"
	"testing"

	"radex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ArtifactDir = filepath.Join(base, "artifacts")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ResultsDB = filepath.Join(base, "runs.db")
	cfg.Experiment.Rounds = 3
	cfg.Experiment.TrainSetSize = 0.5

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRounds overrides the round count on the test config.
func WithRounds(rounds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Experiment.Rounds = rounds
	}
}

// WithMetric overrides the stratification metric on the test config.
func WithMetric(metric string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Experiment.Metric = metric
	}
}

// WithDataset points the test config at a dataset CSV.
func WithDataset(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.DatasetCSV = path
	}
}
