package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"radex/internal/artifact"
	"radex/internal/classify"
	"radex/internal/cohort"
	"radex/internal/config"
	"radex/internal/featurefilter"
	"radex/internal/features"
	"radex/internal/logging"
	"radex/internal/runindex"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			OutputPaths: []string{
				"stderr",
				filepath.Join(cfg.Paths.LogDir, "radex.log"),
			},
		})
	})
	return c.logger, c.loggerErr
}

// openArtifacts opens the artifact store with all entity decoders registered
// and its directory created.
func (c *commandContext) openArtifacts() (*artifact.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	store := artifact.New(cfg.Paths.ArtifactDir, logger)
	cohort.RegisterWith(store)
	featurefilter.RegisterWith(store)
	features.RegisterWith(store)
	classify.RegisterWith(store)

	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("initialize artifact store: %w", err)
	}
	return store, nil
}

func (c *commandContext) openRunIndex() (*runindex.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return runindex.Open(cfg.Paths.ResultsDB)
}

// experiment bundles everything a classification command needs.
type experiment struct {
	cfg        *config.Config
	logger     *slog.Logger
	artifacts  *artifact.Store
	index      *runindex.Store
	collection *cohort.Collection
	extractor  *features.Store
	filter     *featurefilter.Filter
	runner     *classify.Runner
}

func (e *experiment) close() {
	if e.index != nil {
		_ = e.index.Close()
	}
}

// setupExperiment loads the cohort and wires the extractor, filter, and
// runner from configuration.
func (c *commandContext) setupExperiment() (*experiment, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.DatasetCSV) == "" {
		return nil, fmt.Errorf("no dataset configured; set paths.dataset_csv in the config file")
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	artifacts, err := c.openArtifacts()
	if err != nil {
		return nil, err
	}
	index, err := c.openRunIndex()
	if err != nil {
		return nil, err
	}

	collection, err := cohort.FromCSV(cfg.Paths.DatasetCSV, cohort.LoadOptions{
		FileEnding:       cfg.Dataset.FileEnding,
		AnnotationSuffix: cfg.Dataset.AnnotationSuffix,
		SkipInvalid:      cfg.Dataset.SkipInvalidRows,
	}, logger)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	var resolve features.ResolveFunc
	if cfg.Extractor.AdaptiveSliceAxis {
		resolve = adaptiveSliceAxisResolver
	}
	extractor := features.NewStore(features.Config{
		Settings:          cfg.Extractor.Settings,
		AdaptiveSliceAxis: cfg.Extractor.AdaptiveSliceAxis,
	}, imageStatsCompute, resolve, logger)

	filter := featurefilter.NewKeyPrefix(cfg.Experiment.DropPrefix, true)

	return &experiment{
		cfg:        cfg,
		logger:     logger,
		artifacts:  artifacts,
		index:      index,
		collection: collection,
		extractor:  extractor,
		filter:     filter,
		runner:     classify.NewRunner(collection, extractor, filter, nil, logger),
	}, nil
}

// classifyOptions derives runner options from config, with flag overrides
// already applied to cfg by the calling command.
func (e *experiment) classifyOptions() classify.Options {
	return classify.Options{
		Rounds:     e.cfg.Experiment.Rounds,
		BaseSeed:   e.cfg.Experiment.BaseSeed,
		TrainSize:  e.cfg.Experiment.TrainSetSize,
		Fractional: e.cfg.Experiment.SetSizeFractional,
		Metric:     e.cfg.Experiment.Metric,
	}
}

// beginRun records the run in the index before the experiment starts, so a
// crash still leaves a traceable row.
func (e *experiment) beginRun(ctx context.Context) (*runindex.Run, error) {
	collectionID, err := e.collection.StableID()
	if err != nil {
		return nil, err
	}
	filterID, err := e.filter.StableID()
	if err != nil {
		return nil, err
	}
	configID, err := e.extractor.ConfigurationID()
	if err != nil {
		return nil, err
	}

	return e.index.Begin(ctx, runindex.Run{
		Metric:       e.cfg.Experiment.Metric,
		Rounds:       e.cfg.Experiment.Rounds,
		BaseSeed:     e.cfg.Experiment.BaseSeed,
		CollectionID: collectionID,
		FilterID:     filterID,
		ConfigID:     configID,
	})
}
