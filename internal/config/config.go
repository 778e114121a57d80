package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	DatasetCSV  string `toml:"dataset_csv"`
	ArtifactDir string `toml:"artifact_dir"`
	LogDir      string `toml:"log_dir"`
	ResultsDB   string `toml:"results_db"`
}

// Dataset contains configuration for loading the labeled case collection.
type Dataset struct {
	FileEnding       string `toml:"file_ending"`
	AnnotationSuffix string `toml:"annotation_suffix"`
	SkipInvalidRows  bool   `toml:"skip_invalid_rows"`
}

// Experiment contains configuration for classification runs.
type Experiment struct {
	Rounds            int     `toml:"rounds"`
	BaseSeed          int64   `toml:"base_seed"`
	TrainSetSize      float64 `toml:"train_set_size"`
	SetSizeFractional bool    `toml:"set_size_fractional"`
	Metric            string  `toml:"metric"`
	CascadeSteps      int     `toml:"cascade_steps"`
	DropPrefix        string  `toml:"drop_prefix"`
}

// Extractor contains feature extraction settings. Settings is passed through
// to the extraction collaborator verbatim; AdaptiveSliceAxis enables per-input
// resolution of the slicing axis before extraction.
type Extractor struct {
	Settings          map[string]any `toml:"settings"`
	AdaptiveSliceAxis bool           `toml:"adaptive_slice_axis"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for radex.
//
// Configuration sections by subsystem:
//   - Paths: dataset CSV, artifact directory, log directory, results database
//   - Dataset: CSV parsing rules and annotation file naming
//   - Experiment: rounds, seeds, train set sizing, metric, cascade steps
//   - Extractor: feature extraction settings and adaptive axis resolution
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Dataset    Dataset    `toml:"dataset"`
	Experiment Experiment `toml:"experiment"`
	Extractor  Extractor  `toml:"extractor"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/radex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("radex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the parent of the results
// database. The artifact directory is intentionally NOT created here: the
// artifact store owns its directory lifecycle so that create-if-missing
// semantics stay in one place.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ResultsDB) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Paths.ResultsDB), 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", filepath.Dir(c.Paths.ResultsDB), err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
