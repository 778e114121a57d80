package features

import (
	"radex/internal/cohort"
	"radex/internal/identity"
)

// Config is a feature extraction configuration. Settings pass through to the
// extraction collaborator; AdaptiveSliceAxis marks that the slicing axis is
// resolved per input before extraction.
type Config struct {
	Settings          map[string]any
	AdaptiveSliceAxis bool
}

// ResolveFunc derives the effective configuration for one input from a
// template. Implementations must be pure: same template and input, same
// result, no shared state mutated.
type ResolveFunc func(template Config, input *cohort.Case) (Config, error)

// ComputeFunc extracts the feature record for one input under an effective
// configuration. Failures propagate uncached.
type ComputeFunc func(cfg Config, input *cohort.Case) (map[string]any, error)

// canonicalForm renders the configuration for hashing.
func (c Config) canonicalForm() map[string]any {
	settings := map[string]any{}
	for key, value := range c.Settings {
		settings[key] = value
	}
	return map[string]any{
		"settings":            settings,
		"adaptive_slice_axis": c.AdaptiveSliceAxis,
	}
}

// ID returns the configuration's content hash, the namespace key for cached
// computations. Compute it from the effective configuration, never the
// pre-adaptation template.
func (c Config) ID() (string, error) {
	return identity.ComputeFormID(c.canonicalForm())
}

// clone copies the configuration so resolvers can adjust settings without
// touching the template.
func (c Config) clone() Config {
	settings := make(map[string]any, len(c.Settings))
	for key, value := range c.Settings {
		settings[key] = value
	}
	return Config{Settings: settings, AdaptiveSliceAxis: c.AdaptiveSliceAxis}
}

// ResolveIdentity is the default resolver: the template is already the
// effective configuration.
func ResolveIdentity(template Config, _ *cohort.Case) (Config, error) {
	return template, nil
}
