package classify

import (
	"fmt"
	"sort"

	"radex/internal/artifact"
	"radex/internal/cohort"
	"radex/internal/featurefilter"
	"radex/internal/features"
	"radex/internal/identity"
)

// ResultKind is the storage kind for classification results.
const ResultKind = "ClassificationResult"

// Round is the outcome of one classification round: the sampled split, the
// per-case predictions on the test set, the fitted model's importances, and
// the balanced accuracy.
type Round struct {
	Seed        int64
	TrainIDs    []string
	TestIDs     []string
	Predictions map[string]int
	Importances map[string]float64
	Accuracy    float64
}

// Result is the persisted outcome of a full classification run. The
// collection and filter embed inline so a result file is self-describing; the
// feature store is referenced by ID because its cache is shared across many
// results and would otherwise be duplicated into each one.
type Result struct {
	memo       identity.Memo
	collection *cohort.Collection
	filter     *featurefilter.Filter
	extractor  *features.Store
	metric     string
	rounds     []Round
}

// NewResult assembles a result from a finished run.
func NewResult(collection *cohort.Collection, filter *featurefilter.Filter, extractor *features.Store, metric string, rounds []Round) *Result {
	return &Result{
		collection: collection,
		filter:     filter,
		extractor:  extractor,
		metric:     metric,
		rounds:     rounds,
	}
}

// Rounds returns the per-round outcomes in run order.
func (r *Result) Rounds() []Round {
	out := make([]Round, len(r.rounds))
	copy(out, r.rounds)
	return out
}

// Metric returns the label dimension the run classified.
func (r *Result) Metric() string { return r.metric }

// MeanAccuracy averages the balanced accuracy over all rounds.
func (r *Result) MeanAccuracy() float64 {
	if len(r.rounds) == 0 {
		return 0
	}
	var total float64
	for _, round := range r.rounds {
		total += round.Accuracy
	}
	return total / float64(len(r.rounds))
}

// WeightedImportances aggregates per-round importances weighted by round
// accuracy, so rounds whose model actually separated the classes count more.
// With all-zero accuracies the rounds weigh equally.
func (r *Result) WeightedImportances() map[string]float64 {
	sums := map[string]float64{}
	var totalWeight float64
	for _, round := range r.rounds {
		weight := round.Accuracy
		if weight < 0 {
			weight = 0
		}
		totalWeight += weight
		for key, value := range round.Importances {
			sums[key] += weight * value
		}
	}

	if totalWeight == 0 {
		for _, round := range r.rounds {
			for key, value := range round.Importances {
				sums[key] += value
			}
		}
		totalWeight = float64(len(r.rounds))
		if totalWeight == 0 {
			return sums
		}
	}

	for key := range sums {
		sums[key] /= totalWeight
	}
	return sums
}

// MaxImportance returns the largest aggregated importance score.
func (r *Result) MaxImportance() float64 {
	var max float64
	for _, value := range r.WeightedImportances() {
		if value > max {
			max = value
		}
	}
	return max
}

// Kind implements identity.Entity.
func (r *Result) Kind() string { return ResultKind }

// CanonicalForm implements identity.Entity.
func (r *Result) CanonicalForm() (map[string]any, error) {
	collectionForm, err := r.collection.CanonicalForm()
	if err != nil {
		return nil, err
	}
	filterForm, err := r.filter.CanonicalForm()
	if err != nil {
		return nil, err
	}
	extractorID, err := r.extractor.StableID()
	if err != nil {
		return nil, err
	}

	rounds := make([]any, len(r.rounds))
	for i, round := range r.rounds {
		rounds[i] = roundForm(round)
	}

	return map[string]any{
		"collection": collectionForm,
		"filter":     filterForm,
		"extractor":  extractorID,
		"metric":     r.metric,
		"rounds":     rounds,
	}, nil
}

// StableID implements artifact.Storable.
func (r *Result) StableID() (string, error) { return r.memo.ID(r) }

// References implements artifact.Storable: the feature store persists as its
// own file ahead of the result.
func (r *Result) References() []artifact.Storable {
	return []artifact.Storable{r.extractor}
}

func roundForm(round Round) map[string]any {
	predictions := make(map[string]any, len(round.Predictions))
	for id, value := range round.Predictions {
		predictions[id] = value
	}
	importances := make(map[string]any, len(round.Importances))
	for key, value := range round.Importances {
		importances[key] = value
	}
	return map[string]any{
		"seed":        round.Seed,
		"train":       toAnySlice(round.TrainIDs),
		"test":        toAnySlice(round.TestIDs),
		"predictions": predictions,
		"importances": importances,
		"accuracy":    round.Accuracy,
	}
}

// Decode reconstructs a result, resolving the referenced feature store
// through deps.
func Decode(form map[string]any, deps *artifact.Resolver) (*Result, error) {
	collectionForm, ok := form["collection"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("classify: result form missing collection")
	}
	collection, err := cohort.DecodeCollection(collectionForm)
	if err != nil {
		return nil, err
	}

	filterForm, ok := form["filter"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("classify: result form missing filter")
	}
	filter, err := featurefilter.Decode(filterForm)
	if err != nil {
		return nil, err
	}

	extractorID, ok := form["extractor"].(string)
	if !ok {
		return nil, fmt.Errorf("classify: result form missing extractor reference")
	}
	loaded, err := deps.Load(features.EntityKind, extractorID)
	if err != nil {
		return nil, err
	}
	extractor, ok := loaded.(*features.Store)
	if !ok {
		return nil, fmt.Errorf("classify: extractor %s is not a feature store", extractorID)
	}

	metric, _ := form["metric"].(string)

	var rounds []Round
	if raw, ok := form["rounds"].([]any); ok {
		rounds = make([]Round, 0, len(raw))
		for _, item := range raw {
			roundMap, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("classify: malformed round entry")
			}
			rounds = append(rounds, decodeRound(roundMap))
		}
	}

	return NewResult(collection, filter, extractor, metric, rounds), nil
}

func decodeRound(form map[string]any) Round {
	round := Round{
		Predictions: map[string]int{},
		Importances: map[string]float64{},
	}
	if seed, ok := form["seed"].(float64); ok {
		round.Seed = int64(seed)
	}
	round.TrainIDs = toStringSlice(form["train"])
	round.TestIDs = toStringSlice(form["test"])
	if accuracy, ok := form["accuracy"].(float64); ok {
		round.Accuracy = accuracy
	}
	if predictions, ok := form["predictions"].(map[string]any); ok {
		for id, value := range predictions {
			if number, ok := value.(float64); ok {
				round.Predictions[id] = int(number)
			}
		}
	}
	if importances, ok := form["importances"].(map[string]any); ok {
		for key, value := range importances {
			if number, ok := value.(float64); ok {
				round.Importances[key] = number
			}
		}
	}
	return round
}

// RegisterWith installs the result decoder on an artifact store.
func RegisterWith(store *artifact.Store) {
	store.Register(ResultKind, func(form map[string]any, deps *artifact.Resolver) (artifact.Storable, error) {
		return Decode(form, deps)
	})
}

// TopFeatures returns the n highest-scoring features from an aggregated
// importance map, ordered by descending score with name as tiebreak.
func TopFeatures(importances map[string]float64, n int) []string {
	names := make([]string, 0, len(importances))
	for name := range importances {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importances[names[i]] != importances[names[j]] {
			return importances[names[i]] > importances[names[j]]
		}
		return names[i] < names[j]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}

func toStringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if value, ok := item.(string); ok {
			out = append(out, value)
		}
	}
	return out
}
