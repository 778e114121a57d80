package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeExperiment()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DatasetCSV, err = expandPath(c.Paths.DatasetCSV); err != nil {
		return fmt.Errorf("paths.dataset_csv: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArtifactDir) == "" {
		c.Paths.ArtifactDir = defaultArtifactDir
	}
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDB) == "" {
		c.Paths.ResultsDB = defaultResultsDB
	}
	if c.Paths.ResultsDB, err = expandPath(c.Paths.ResultsDB); err != nil {
		return fmt.Errorf("paths.results_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.FileEnding = strings.TrimSpace(c.Dataset.FileEnding)
	if c.Dataset.FileEnding == "" {
		c.Dataset.FileEnding = defaultFileEnding
	}
	c.Dataset.AnnotationSuffix = strings.TrimSpace(c.Dataset.AnnotationSuffix)
	if c.Dataset.AnnotationSuffix == "" {
		c.Dataset.AnnotationSuffix = defaultAnnotationSuffix
	}
}

func (c *Config) normalizeExperiment() {
	c.Experiment.Metric = strings.ToLower(strings.TrimSpace(c.Experiment.Metric))
	if c.Experiment.Metric == "" {
		c.Experiment.Metric = defaultMetric
	}
	if c.Extractor.Settings == nil {
		c.Extractor.Settings = map[string]any{}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
