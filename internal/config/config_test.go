package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"radex/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantArtifacts := filepath.Join(tempHome, ".local", "share", "radex", "artifacts")
	if cfg.Paths.ArtifactDir != wantArtifacts {
		t.Fatalf("unexpected artifact dir: got %q want %q", cfg.Paths.ArtifactDir, wantArtifacts)
	}
	if cfg.Experiment.Rounds != 100 {
		t.Fatalf("unexpected default rounds: %d", cfg.Experiment.Rounds)
	}
	if !cfg.Experiment.SetSizeFractional {
		t.Fatal("expected fractional train set size by default")
	}
	if cfg.Experiment.Metric != "pcr" {
		t.Fatalf("unexpected default metric: %q", cfg.Experiment.Metric)
	}
	if cfg.Dataset.FileEnding != ".nii.gz" {
		t.Fatalf("unexpected file ending: %q", cfg.Dataset.FileEnding)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadParsesTOMLAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`dataset_csv = "` + filepath.Join(dir, "cases.csv") + `"`,
		`artifact_dir = "` + filepath.Join(dir, "artifacts") + `"`,
		"[experiment]",
		"rounds = 5",
		"base_seed = 42",
		`metric = "NAR"`,
		"[logging]",
		`format = "JSON"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Experiment.Rounds != 5 {
		t.Fatalf("unexpected rounds: %d", cfg.Experiment.Rounds)
	}
	if cfg.Experiment.BaseSeed != 42 {
		t.Fatalf("unexpected base seed: %d", cfg.Experiment.BaseSeed)
	}
	if cfg.Experiment.Metric != "nar" {
		t.Fatalf("metric not lowercased: %q", cfg.Experiment.Metric)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("log format not normalized: %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadExperiment(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero rounds":        func(c *config.Config) { c.Experiment.Rounds = 0 },
		"fraction above one": func(c *config.Config) { c.Experiment.TrainSetSize = 1.5 },
		"non-whole count": func(c *config.Config) {
			c.Experiment.SetSizeFractional = false
			c.Experiment.TrainSetSize = 2.5
		},
		"unknown metric": func(c *config.Config) { c.Experiment.Metric = "osteo" },
		"bad log format": func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		cfg.Experiment.Metric = "pcr"
		cfg.Logging.Format = "console"
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[experiment]") {
		t.Error("sample config missing experiment section")
	}
}
