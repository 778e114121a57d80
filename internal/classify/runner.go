package classify

import (
	"context"
	"fmt"
	"log/slog"

	"radex/internal/cohort"
	"radex/internal/featurefilter"
	"radex/internal/features"
	"radex/internal/logging"
	"radex/internal/sampling"
)

// Options parameterizes a classification run.
type Options struct {
	// Rounds is the number of independent sample/fit/predict rounds.
	Rounds int
	// BaseSeed seeds round r with BaseSeed + r.
	BaseSeed int64
	// TrainSize is the per-category training draw, fractional or absolute.
	TrainSize  float64
	Fractional bool
	// Metric selects the label dimension to stratify and classify on.
	Metric string
}

// Runner wires a cohort, a feature store, and a filter into repeated
// classification rounds. The classifier is constructed fresh per round
// through NewClassifier, so no model state leaks between rounds.
type Runner struct {
	collection    *cohort.Collection
	extractor     *features.Store
	filter        *featurefilter.Filter
	newClassifier func() Classifier
	logger        *slog.Logger
}

// NewRunner builds a runner. A nil newClassifier defaults to the baseline
// nearest-centroid model.
func NewRunner(collection *cohort.Collection, extractor *features.Store, filter *featurefilter.Filter, newClassifier func() Classifier, logger *slog.Logger) *Runner {
	if newClassifier == nil {
		newClassifier = func() Classifier { return NewNearestCentroid() }
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		collection:    collection,
		extractor:     extractor,
		filter:        filter,
		newClassifier: newClassifier,
		logger:        logging.NewComponentLogger(logger, "classify"),
	}
}

// Classify runs opts.Rounds rounds: stratified train sample, complement test
// set, cached feature extraction, filtering, fit, predict. Round r uses seed
// BaseSeed + r, so a run is reproducible from its options alone.
func (r *Runner) Classify(ctx context.Context, opts Options) (*Result, error) {
	rounds := make([]Round, 0, opts.Rounds)
	for round := 0; round < opts.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seed := opts.BaseSeed + int64(round)
		outcome, err := r.runRound(seed, opts)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		rounds = append(rounds, outcome)

		r.logger.Debug("round finished",
			logging.Int(logging.FieldRound, round),
			logging.Float64("accuracy", outcome.Accuracy))
	}

	result := NewResult(r.collection, r.filter, r.extractor, opts.Metric, rounds)
	r.logger.Info("classification finished",
		logging.Int("rounds", len(rounds)),
		logging.Float64("mean_accuracy", result.MeanAccuracy()))
	return result, nil
}

func (r *Runner) runRound(seed int64, opts Options) (Round, error) {
	train, err := sampling.EqualSample(r.collection, opts.TrainSize, opts.Fractional, opts.Metric, seed)
	if err != nil {
		return Round{}, err
	}
	test := sampling.DropUnlabeled(r.collection, sampling.Complement(r.collection, train), opts.Metric)

	trainTargets, err := sampling.TargetValues(r.collection, train, opts.Metric)
	if err != nil {
		return Round{}, err
	}
	testTargets, err := sampling.TargetValues(r.collection, test, opts.Metric)
	if err != nil {
		return Round{}, err
	}

	// One filter application over the combined records keeps train and test
	// on the same column set even for seed-advancing random stages.
	ids := append(append([]string(nil), train...), test...)
	records, err := r.extractRecords(ids)
	if err != nil {
		return Round{}, err
	}
	filtered, err := r.filter.Apply(records)
	if err != nil {
		return Round{}, err
	}

	matrix, err := features.ToMatrix(features.NumericOnly(filtered))
	if err != nil {
		return Round{}, err
	}
	trainMatrix := &features.Matrix{Columns: matrix.Columns, Rows: matrix.Rows[:len(train)]}
	testMatrix := &features.Matrix{Columns: matrix.Columns, Rows: matrix.Rows[len(train):]}

	model := r.newClassifier()
	if err := model.Fit(trainMatrix, trainTargets); err != nil {
		return Round{}, err
	}
	predictions, err := model.Predict(testMatrix)
	if err != nil {
		return Round{}, err
	}

	predicted := make(map[string]int, len(test))
	for i, id := range test {
		predicted[id] = predictions[i]
	}

	importances := map[string]float64{}
	for i, score := range model.FeatureImportances() {
		importances[matrix.Columns[i]] = score
	}

	return Round{
		Seed:        seed,
		TrainIDs:    train,
		TestIDs:     test,
		Predictions: predicted,
		Importances: importances,
		Accuracy:    BalancedAccuracy(predictions, testTargets),
	}, nil
}

func (r *Runner) extractRecords(ids []string) ([]featurefilter.Record, error) {
	records := make([]featurefilter.Record, len(ids))
	for i, id := range ids {
		item, ok := r.collection.Get(id)
		if !ok {
			return nil, fmt.Errorf("classify: %s not in collection", id)
		}
		record, _, err := r.extractor.Extract(item)
		if err != nil {
			return nil, err
		}
		records[i] = featurefilter.Record(record)
	}
	return records, nil
}

// BalancedAccuracy is the mean per-class recall, so a majority-class guesser
// scores 1/k on k classes regardless of class imbalance. Empty inputs score
// zero.
func BalancedAccuracy(predictions, targets []int) float64 {
	correct := map[int]int{}
	totals := map[int]int{}
	for i, target := range targets {
		totals[target]++
		if i < len(predictions) && predictions[i] == target {
			correct[target]++
		}
	}
	if len(totals) == 0 {
		return 0
	}

	var sum float64
	for class, total := range totals {
		sum += float64(correct[class]) / float64(total)
	}
	return sum / float64(len(totals))
}
