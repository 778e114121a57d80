package features

import (
	"fmt"
	"log/slog"

	"radex/internal/artifact"
	"radex/internal/cohort"
	"radex/internal/featurefilter"
	"radex/internal/identity"
	"radex/internal/logging"
)

// EntityKind is the storage kind for feature stores.
const EntityKind = "FeatureStore"

// Store owns an extraction configuration template and the cached features
// computed under it, keyed [configID][inputID]. The cache persists with the
// store; the compute and resolve collaborators are runtime-only and must be
// re-attached after a reload.
type Store struct {
	memo     identity.Memo
	template Config
	cache    map[string]map[string]map[string]any
	resolve  ResolveFunc
	compute  ComputeFunc
	logger   *slog.Logger
}

// NewStore builds a feature store. A nil resolve defaults to the identity
// resolver; compute may be nil for stores that only serve cached results.
func NewStore(template Config, compute ComputeFunc, resolve ResolveFunc, logger *slog.Logger) *Store {
	if resolve == nil {
		resolve = ResolveIdentity
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		template: template.clone(),
		cache:    map[string]map[string]map[string]any{},
		resolve:  resolve,
		compute:  compute,
		logger:   logging.NewComponentLogger(logger, "features"),
	}
}

// Template returns a copy of the configuration template.
func (s *Store) Template() Config { return s.template.clone() }

// ConfigurationID returns the content hash of the template configuration.
// With adaptive resolution off this equals every effective configuration ID.
func (s *Store) ConfigurationID() (string, error) {
	return s.template.ID()
}

// Extract returns the feature record for input, computing and caching it on
// first use. The returned configID names the effective-configuration cache
// namespace the record lives in.
func (s *Store) Extract(input *cohort.Case) (map[string]any, string, error) {
	effective, err := s.resolve(s.template, input)
	if err != nil {
		return nil, "", fmt.Errorf("resolve effective config: %w", err)
	}
	configID, err := effective.ID()
	if err != nil {
		return nil, "", err
	}

	record, err := s.GetOrCompute(configID, input.ID(), func() (map[string]any, error) {
		if s.compute == nil {
			return nil, fmt.Errorf("features: no compute collaborator attached")
		}
		return s.compute(effective, input)
	})
	if err != nil {
		return nil, "", err
	}
	return record, configID, nil
}

// GetOrCompute returns the cached result for (configID, inputID) verbatim,
// or invokes fn once, sanitizes the result to plain JSON values, caches it,
// and returns it. fn failures propagate uncached.
func (s *Store) GetOrCompute(configID, inputID string, fn func() (map[string]any, error)) (map[string]any, error) {
	if record, ok := s.cache[configID][inputID]; ok {
		s.logger.Debug("feature cache hit",
			logging.String(logging.FieldConfigID, configID),
			logging.String(logging.FieldEntityID, inputID))
		return record, nil
	}

	result, err := fn()
	if err != nil {
		return nil, err
	}
	sanitized, err := Sanitize(result)
	if err != nil {
		return nil, fmt.Errorf("sanitize features for %s: %w", inputID, err)
	}

	if s.cache[configID] == nil {
		s.cache[configID] = map[string]map[string]any{}
	}
	s.cache[configID][inputID] = sanitized
	s.memo.Invalidate()

	s.logger.Debug("features computed",
		logging.String(logging.FieldConfigID, configID),
		logging.String(logging.FieldEntityID, inputID))
	return sanitized, nil
}

// Cached reports whether a record exists for (configID, inputID).
func (s *Store) Cached(configID, inputID string) bool {
	_, ok := s.cache[configID][inputID]
	return ok
}

// Records returns the cached feature records for ids under configID, aligned
// with the order of ids. Every ID must already be cached.
func (s *Store) Records(configID string, ids []string) ([]featurefilter.Record, error) {
	records := make([]featurefilter.Record, len(ids))
	for i, id := range ids {
		record, ok := s.cache[configID][id]
		if !ok {
			return nil, fmt.Errorf("features: no cached record for %s under config %s", id, configID)
		}
		records[i] = featurefilter.Record(record)
	}
	return records, nil
}

// Kind implements identity.Entity.
func (s *Store) Kind() string { return EntityKind }

// CanonicalForm implements identity.Entity: the template plus the full
// cache, so persisted stores carry their computed features with them.
func (s *Store) CanonicalForm() (map[string]any, error) {
	features := map[string]any{}
	for configID, inputs := range s.cache {
		perInput := map[string]any{}
		for inputID, record := range inputs {
			perInput[inputID] = record
		}
		features[configID] = perInput
	}
	return map[string]any{
		"config":   s.template.canonicalForm(),
		"features": features,
	}, nil
}

// StableID implements artifact.Storable.
func (s *Store) StableID() (string, error) { return s.memo.ID(s) }

// References implements artifact.Storable.
func (s *Store) References() []artifact.Storable { return nil }

// Decode reconstructs a feature store from its persisted form. Attach the
// runtime collaborators afterwards with AttachCollaborators.
func Decode(form map[string]any) (*Store, error) {
	store := NewStore(Config{}, nil, nil, nil)

	if rawConfig, ok := form["config"].(map[string]any); ok {
		if settings, ok := rawConfig["settings"].(map[string]any); ok {
			store.template.Settings = settings
		} else {
			store.template.Settings = map[string]any{}
		}
		store.template.AdaptiveSliceAxis, _ = rawConfig["adaptive_slice_axis"].(bool)
	}

	if rawFeatures, ok := form["features"].(map[string]any); ok {
		for configID, rawInputs := range rawFeatures {
			inputs, ok := rawInputs.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("features: malformed cache namespace %s", configID)
			}
			store.cache[configID] = map[string]map[string]any{}
			for inputID, rawRecord := range inputs {
				record, ok := rawRecord.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("features: malformed cached record for %s", inputID)
				}
				store.cache[configID][inputID] = record
			}
		}
	}
	return store, nil
}

// AttachCollaborators re-binds the runtime extraction collaborators after a
// reload.
func (s *Store) AttachCollaborators(compute ComputeFunc, resolve ResolveFunc, logger *slog.Logger) {
	if resolve == nil {
		resolve = ResolveIdentity
	}
	s.compute = compute
	s.resolve = resolve
	if logger != nil {
		s.logger = logging.NewComponentLogger(logger, "features")
	}
}

// RegisterWith installs the feature store decoder on an artifact store.
func RegisterWith(store *artifact.Store) {
	store.Register(EntityKind, func(form map[string]any, _ *artifact.Resolver) (artifact.Storable, error) {
		return Decode(form)
	})
}
