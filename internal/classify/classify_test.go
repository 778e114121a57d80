package classify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"radex/internal/artifact"
	"radex/internal/cohort"
	"radex/internal/featurefilter"
	"radex/internal/features"
)

// fixtureCollection builds an on-disk cohort with count cases per pcr class.
func fixtureCollection(t *testing.T, count int) *cohort.Collection {
	t.Helper()
	dir := t.TempDir()

	var items []*cohort.Case
	for i := 0; i < count*2; i++ {
		name := fmt.Sprintf("MR%02d", i)
		scanPath := filepath.Join(dir, name+".nii.gz")
		annoPath := filepath.Join(dir, name+"A.nii.gz")
		if err := os.WriteFile(scanPath, []byte("scan:"+name), 0o644); err != nil {
			t.Fatalf("write scan: %v", err)
		}
		if err := os.WriteFile(annoPath, []byte("anno:"+name), 0o644); err != nil {
			t.Fatalf("write anno: %v", err)
		}
		scan, err := cohort.NewImageRef(scanPath)
		if err != nil {
			t.Fatalf("NewImageRef failed: %v", err)
		}
		anno, err := cohort.NewImageRef(annoPath)
		if err != nil {
			t.Fatalf("NewImageRef failed: %v", err)
		}
		items = append(items, cohort.NewCase(scan, anno, map[string]int{cohort.MetricPCR: i % 2}))
	}
	return cohort.NewCollection(items)
}

// separableCompute emits one feature fully determined by the pcr label and
// one constant, so the baseline classifier separates the classes perfectly.
func separableCompute(_ features.Config, input *cohort.Case) (map[string]any, error) {
	label, _ := input.Label(cohort.MetricPCR)
	return map[string]any{
		"signal":              float64(label) * 10.0,
		"flat":                1.0,
		"diagnostics_version": "2.2",
	}, nil
}

func fixtureRunner(t *testing.T, collection *cohort.Collection) *Runner {
	t.Helper()
	extractor := features.NewStore(features.Config{Settings: map[string]any{"bins": 16}}, separableCompute, nil, nil)
	filter := featurefilter.NewKeyPrefix("diagnostics_", true)
	return NewRunner(collection, extractor, filter, nil, nil)
}

func defaultOptions() Options {
	return Options{
		Rounds:     3,
		BaseSeed:   7,
		TrainSize:  0.5,
		Fractional: true,
		Metric:     cohort.MetricPCR,
	}
}

func TestBalancedAccuracy(t *testing.T) {
	if got := BalancedAccuracy([]int{1, 1, 0, 0}, []int{1, 1, 0, 0}); got != 1.0 {
		t.Errorf("perfect predictions scored %v", got)
	}
	// Always predicting the majority class: recall 1.0 on it, 0.0 elsewhere.
	if got := BalancedAccuracy([]int{1, 1, 1, 1}, []int{1, 1, 1, 0}); got != 0.5 {
		t.Errorf("majority guesser scored %v, want 0.5", got)
	}
	if got := BalancedAccuracy(nil, nil); got != 0 {
		t.Errorf("empty inputs scored %v", got)
	}
}

func TestNearestCentroid(t *testing.T) {
	matrix := &features.Matrix{
		Columns: []string{"flat", "signal"},
		Rows: [][]float64{
			{1.0, 0.0},
			{1.0, 0.0},
			{1.0, 10.0},
			{1.0, 10.0},
		},
	}
	model := NewNearestCentroid()
	if _, err := model.Predict(matrix); !errors.Is(err, ErrModel) {
		t.Fatalf("expected ErrModel before fit, got %v", err)
	}

	if err := model.Fit(matrix, []int{0, 0, 1, 1}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	predictions, err := model.Predict(&features.Matrix{
		Columns: matrix.Columns,
		Rows:    [][]float64{{1.0, 1.0}, {1.0, 9.0}},
	})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if predictions[0] != 0 || predictions[1] != 1 {
		t.Errorf("unexpected predictions: %v", predictions)
	}

	importances := model.FeatureImportances()
	// All spread sits on the signal column.
	if importances[0] != 0.0 || importances[1] != 1.0 {
		t.Errorf("unexpected importances: %v", importances)
	}
}

func TestClassifyIsReproducible(t *testing.T) {
	collection := fixtureCollection(t, 4)

	first, err := fixtureRunner(t, collection).Classify(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	second, err := fixtureRunner(t, collection).Classify(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	firstRounds := first.Rounds()
	secondRounds := second.Rounds()
	if len(firstRounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(firstRounds))
	}
	for i := range firstRounds {
		if firstRounds[i].Seed != secondRounds[i].Seed {
			t.Errorf("round %d seed mismatch", i)
		}
		if firstRounds[i].Accuracy != secondRounds[i].Accuracy {
			t.Errorf("round %d accuracy mismatch", i)
		}
		for j, id := range firstRounds[i].TrainIDs {
			if secondRounds[i].TrainIDs[j] != id {
				t.Fatalf("round %d train set diverged", i)
			}
		}
	}
}

func TestClassifySeparatesClasses(t *testing.T) {
	collection := fixtureCollection(t, 4)
	result, err := fixtureRunner(t, collection).Classify(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.MeanAccuracy() != 1.0 {
		t.Errorf("separable fixture should classify perfectly, got %v", result.MeanAccuracy())
	}

	importances := result.WeightedImportances()
	if importances["signal"] <= importances["flat"] {
		t.Errorf("signal should outscore flat: %v", importances)
	}
	if _, ok := importances["diagnostics_version"]; ok {
		t.Error("filtered diagnostics column leaked into importances")
	}

	top := TopFeatures(importances, 1)
	if len(top) != 1 || top[0] != "signal" {
		t.Errorf("unexpected top features: %v", top)
	}
}

func TestResultRoundTrip(t *testing.T) {
	collection := fixtureCollection(t, 3)
	runner := fixtureRunner(t, collection)
	result, err := runner.Classify(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	store := artifact.New(filepath.Join(t.TempDir(), "artifacts"), nil)
	cohort.RegisterWith(store)
	featurefilter.RegisterWith(store)
	features.RegisterWith(store)
	RegisterWith(store)

	id, err := store.Save(result, artifact.SaveOptions{CreateIfMissing: true})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ResultKind, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	reloaded := loaded.(*Result)
	if reloaded.MeanAccuracy() != result.MeanAccuracy() {
		t.Errorf("mean accuracy changed across reload")
	}
	if len(reloaded.Rounds()) != len(result.Rounds()) {
		t.Errorf("round count changed across reload")
	}
	if reloaded.Metric() != cohort.MetricPCR {
		t.Errorf("metric changed across reload: %s", reloaded.Metric())
	}
}

func TestCascadeMeanAccuracy(t *testing.T) {
	cascade := &Cascade{Accuracies: []float64{1, 0.5, 0.75}}
	if got := cascade.MeanAccuracy(); got != 0.75 {
		t.Errorf("expected the mean over all steps, got %v", got)
	}

	empty := &Cascade{}
	if got := empty.MeanAccuracy(); got != 0 {
		t.Errorf("empty cascade should report 0, got %v", got)
	}
}

func TestImportanceCascade(t *testing.T) {
	collection := fixtureCollection(t, 4)
	runner := fixtureRunner(t, collection)

	store := artifact.New(filepath.Join(t.TempDir(), "artifacts"), nil)
	cohort.RegisterWith(store)
	featurefilter.RegisterWith(store)
	features.RegisterWith(store)
	RegisterWith(store)

	const steps = 2
	cascade, err := runner.ImportanceCascade(context.Background(), defaultOptions(), steps, store)
	if err != nil {
		t.Fatalf("ImportanceCascade failed: %v", err)
	}

	if len(cascade.ResultIDs) != steps+1 {
		t.Fatalf("expected %d results, got %d", steps+1, len(cascade.ResultIDs))
	}
	if cascade.Thresholds[0] != 0 {
		t.Errorf("base run threshold should be 0, got %v", cascade.Thresholds[0])
	}
	for i := 1; i < len(cascade.Thresholds); i++ {
		if cascade.Thresholds[i] <= cascade.Thresholds[i-1] {
			t.Errorf("thresholds should rise: %v", cascade.Thresholds)
		}
	}

	accuracies, err := CascadeAccuracies(store, cascade.ManifestID)
	if err != nil {
		t.Fatalf("CascadeAccuracies failed: %v", err)
	}
	if len(accuracies) != len(cascade.Accuracies) {
		t.Fatalf("accuracy count mismatch")
	}
	for i, accuracy := range accuracies {
		if accuracy != cascade.Accuracies[i] {
			t.Errorf("accuracy %d changed across reload: %v != %v", i, accuracy, cascade.Accuracies[i])
		}
	}

	if cascade.ManifestID == "" {
		t.Error("cascade manifest was not saved")
	}
}
