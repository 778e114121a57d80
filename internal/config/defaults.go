package config

const (
	defaultArtifactDir      = "~/.local/share/radex/artifacts"
	defaultLogDir           = "~/.local/share/radex/logs"
	defaultResultsDB        = "~/.local/share/radex/runs.db"
	defaultFileEnding       = ".nii.gz"
	defaultAnnotationSuffix = "A"
	defaultRounds           = 100
	defaultTrainSetSize     = 0.7
	defaultMetric           = "pcr"
	defaultCascadeSteps     = 100
	defaultDropPrefix       = "diagnostics_"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArtifactDir: defaultArtifactDir,
			LogDir:      defaultLogDir,
			ResultsDB:   defaultResultsDB,
		},
		Dataset: Dataset{
			FileEnding:       defaultFileEnding,
			AnnotationSuffix: defaultAnnotationSuffix,
			SkipInvalidRows:  false,
		},
		Experiment: Experiment{
			Rounds:            defaultRounds,
			BaseSeed:          0,
			TrainSetSize:      defaultTrainSetSize,
			SetSizeFractional: true,
			Metric:            defaultMetric,
			CascadeSteps:      defaultCascadeSteps,
			DropPrefix:        defaultDropPrefix,
		},
		Extractor: Extractor{
			Settings:          map[string]any{},
			AdaptiveSliceAxis: false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
