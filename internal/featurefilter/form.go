package featurefilter

import (
	"fmt"

	"radex/internal/artifact"
)

// Kind implements identity.Entity.
func (f *Filter) Kind() string { return EntityKind }

// CanonicalForm covers the stage kind, its typed parameters, and the
// recursively embedded subfilter chain, so identical filter configurations
// hash to the same ID across experiments.
func (f *Filter) CanonicalForm() (map[string]any, error) {
	params := map[string]any{}
	switch f.kind {
	case KindKeyPrefix:
		params["prefix"] = f.params.Prefix
		params["invert"] = f.params.Invert
	case KindImportanceThreshold:
		importances := make(map[string]any, len(f.params.Importances))
		for key, value := range f.params.Importances {
			importances[key] = value
		}
		params["importances"] = importances
		params["threshold"] = f.params.Threshold
		params["invert"] = f.params.Invert
	case KindRandomChoice:
		params["fraction"] = f.params.Fraction
		params["seed"] = f.params.Seed
		params["increase_seed"] = f.params.IncreaseSeed
		params["invert"] = f.params.Invert
	}

	subfilters := make([]any, len(f.subfilters))
	for i, subfilter := range f.subfilters {
		form, err := subfilter.CanonicalForm()
		if err != nil {
			return nil, err
		}
		subfilters[i] = form
	}

	return map[string]any{
		"filter_name": string(f.kind),
		"params":      params,
		"subfilters":  subfilters,
	}, nil
}

// StableID implements artifact.Storable.
func (f *Filter) StableID() (string, error) { return f.memo.ID(f) }

// References implements artifact.Storable. Subfilters embed inline, so a
// filter file is self-contained.
func (f *Filter) References() []artifact.Storable { return nil }

// Decode reconstructs a filter from its persisted form.
func Decode(form map[string]any) (*Filter, error) {
	name, _ := form["filter_name"].(string)
	params, _ := form["params"].(map[string]any)

	var subfilters []*Filter
	if raw, ok := form["subfilters"].([]any); ok {
		for _, item := range raw {
			subForm, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: malformed subfilter entry", ErrConfiguration)
			}
			subfilter, err := Decode(subForm)
			if err != nil {
				return nil, err
			}
			subfilters = append(subfilters, subfilter)
		}
	}

	return New(Kind(name), decodeParams(params), subfilters...)
}

// RegisterWith installs the filter decoder on an artifact store.
func RegisterWith(store *artifact.Store) {
	store.Register(EntityKind, func(form map[string]any, _ *artifact.Resolver) (artifact.Storable, error) {
		return Decode(form)
	})
}

func decodeParams(raw map[string]any) Params {
	var params Params
	if raw == nil {
		return params
	}
	params.Prefix, _ = raw["prefix"].(string)
	params.Invert, _ = raw["invert"].(bool)
	params.Threshold = floatValue(raw["threshold"])
	params.Fraction = floatValue(raw["fraction"])
	params.Seed = int64(floatValue(raw["seed"]))
	params.IncreaseSeed, _ = raw["increase_seed"].(bool)
	if importances, ok := raw["importances"].(map[string]any); ok {
		params.Importances = make(map[string]float64, len(importances))
		for key, value := range importances {
			params.Importances[key] = floatValue(value)
		}
	}
	return params
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
