package featurefilter

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"radex/internal/identity"
)

// ErrConfiguration indicates an unknown stage kind or malformed parameters.
// Raised at construction, never deferred to execution.
var ErrConfiguration = errors.New("featurefilter: invalid configuration")

// EntityKind is the storage kind for persisted filters.
const EntityKind = "FeatureFilter"

// Record is one item's named feature values.
type Record map[string]any

// Kind enumerates the closed set of stage kinds.
type Kind string

const (
	KindPassthrough         Kind = "passthrough"
	KindKeyPrefix           Kind = "key_prefix"
	KindImportanceThreshold Kind = "importance_threshold"
	KindRandomChoice        Kind = "random_choice"
)

// Params carries the typed parameters for a stage. Only the fields relevant
// to the stage kind are consulted; each filter owns its own instance, nothing
// is shared between stages.
type Params struct {
	// KindKeyPrefix
	Prefix string
	// KindImportanceThreshold
	Importances map[string]float64
	Threshold   float64
	// KindRandomChoice
	Fraction     float64
	Seed         int64
	IncreaseSeed bool
	// Shared by the invertible kinds.
	Invert bool
}

// Filter is one stage of the pipeline. Construct through New or the typed
// helpers; zero values are not valid filters.
type Filter struct {
	memo       identity.Memo
	kind       Kind
	params     Params
	subfilters []*Filter
}

// New validates the stage kind and parameters and builds a filter.
func New(kind Kind, params Params, subfilters ...*Filter) (*Filter, error) {
	switch kind {
	case KindPassthrough, KindKeyPrefix:
	case KindImportanceThreshold:
		if params.Importances == nil {
			return nil, fmt.Errorf("%w: importance_threshold requires an importance map", ErrConfiguration)
		}
	case KindRandomChoice:
		if params.Fraction < 0 || params.Fraction > 1 {
			return nil, fmt.Errorf("%w: random_choice fraction %v outside [0, 1]", ErrConfiguration, params.Fraction)
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized stage kind %q", ErrConfiguration, kind)
	}
	return &Filter{kind: kind, params: params, subfilters: subfilters}, nil
}

// NewPassthrough builds an identity stage, useful as a merge point for
// subfilters.
func NewPassthrough(subfilters ...*Filter) *Filter {
	f, _ := New(KindPassthrough, Params{}, subfilters...)
	return f
}

// NewKeyPrefix builds a stage keeping (or, inverted, dropping) fields whose
// name starts with prefix.
func NewKeyPrefix(prefix string, invert bool, subfilters ...*Filter) *Filter {
	f, _ := New(KindKeyPrefix, Params{Prefix: prefix, Invert: invert}, subfilters...)
	return f
}

// NewImportanceThreshold builds a stage dropping fields whose importance
// score falls below threshold. Fields absent from the map score zero.
func NewImportanceThreshold(importances map[string]float64, threshold float64, invert bool, subfilters ...*Filter) (*Filter, error) {
	return New(KindImportanceThreshold, Params{Importances: importances, Threshold: threshold, Invert: invert}, subfilters...)
}

// NewRandomChoice builds a stage selecting a seeded random column subset of
// the given fraction; inverted it selects the complementary columns.
func NewRandomChoice(fraction float64, seed int64, increaseSeed, invert bool, subfilters ...*Filter) (*Filter, error) {
	return New(KindRandomChoice, Params{Fraction: fraction, Seed: seed, IncreaseSeed: increaseSeed, Invert: invert}, subfilters...)
}

// StageKind returns the stage kind.
func (f *Filter) StageKind() Kind { return f.kind }

// Seed returns the current random_choice seed. It advances after each Apply
// when IncreaseSeed is set.
func (f *Filter) Seed() int64 { return f.params.Seed }

// Apply runs the subfilters against records, merges their outputs, and then
// applies this stage's transform. Record count is preserved; the column set
// may shrink or grow.
func (f *Filter) Apply(records []Record) ([]Record, error) {
	merged, err := f.executeSubfilters(records)
	if err != nil {
		return nil, err
	}

	switch f.kind {
	case KindPassthrough:
		return merged, nil
	case KindKeyPrefix:
		return f.applyKeyPrefix(merged), nil
	case KindImportanceThreshold:
		return f.applyImportanceThreshold(merged), nil
	case KindRandomChoice:
		return f.applyRandomChoice(merged), nil
	}
	// Unreachable: New rejects unknown kinds.
	return nil, fmt.Errorf("%w: %q", ErrConfiguration, f.kind)
}

// executeSubfilters applies every subfilter to the ORIGINAL input and merges
// outputs per record index. Later subfilters override overlapping fields; an
// explicit merge policy, not an error.
func (f *Filter) executeSubfilters(records []Record) ([]Record, error) {
	if len(f.subfilters) == 0 {
		return records, nil
	}

	var merged []Record
	for _, subfilter := range f.subfilters {
		result, err := subfilter.Apply(records)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = make([]Record, len(result))
			for i, record := range result {
				merged[i] = cloneRecord(record)
			}
			continue
		}
		for i, record := range result {
			for key, value := range record {
				merged[i][key] = value
			}
		}
	}
	return merged, nil
}

func (f *Filter) applyKeyPrefix(records []Record) []Record {
	filtered := make([]Record, len(records))
	for i, record := range records {
		kept := make(Record, len(record))
		for key, value := range record {
			if strings.HasPrefix(key, f.params.Prefix) != f.params.Invert {
				kept[key] = value
			}
		}
		filtered[i] = kept
	}
	return filtered
}

func (f *Filter) applyImportanceThreshold(records []Record) []Record {
	filtered := make([]Record, len(records))
	for i, record := range records {
		kept := make(Record, len(record))
		for key, value := range record {
			if (f.params.Importances[key] >= f.params.Threshold) != f.params.Invert {
				kept[key] = value
			}
		}
		filtered[i] = kept
	}
	return filtered
}

// applyRandomChoice derives the column set from the first record; records
// are assumed column-homogeneous. The inverted stage with the same seed
// selects exactly the complementary columns.
func (f *Filter) applyRandomChoice(records []Record) []Record {
	if len(records) == 0 {
		return records
	}

	columns := make([]string, 0, len(records[0]))
	for key := range records[0] {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	rng := rand.New(rand.NewSource(f.params.Seed))
	order := rng.Perm(len(columns))
	count := int(math.Round(f.params.Fraction * float64(len(columns))))

	selected := make(map[string]struct{}, count)
	for _, index := range order[:count] {
		selected[columns[index]] = struct{}{}
	}

	if f.params.IncreaseSeed {
		f.params.Seed++
		f.memo.Invalidate()
	}

	filtered := make([]Record, len(records))
	for i, record := range records {
		kept := make(Record, count)
		for key, value := range record {
			_, in := selected[key]
			if in != f.params.Invert {
				kept[key] = value
			}
		}
		filtered[i] = kept
	}
	return filtered
}

func cloneRecord(record Record) Record {
	clone := make(Record, len(record))
	for key, value := range record {
		clone[key] = value
	}
	return clone
}
