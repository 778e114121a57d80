package classify

import (
	"context"
	"fmt"

	"radex/internal/artifact"
	"radex/internal/featurefilter"
	"radex/internal/logging"
)

// Cascade is the outcome of an importance cascade: the base run plus one run
// per threshold step, persisted individually and grouped under a manifest.
type Cascade struct {
	ManifestID string
	ResultIDs  []string
	Thresholds []float64
	Accuracies []float64
}

// MeanAccuracy averages the per-step mean accuracies over the whole cascade,
// base run included. This is the single number recorded for a cascade run.
func (c *Cascade) MeanAccuracy() float64 {
	if len(c.Accuracies) == 0 {
		return 0
	}
	var total float64
	for _, accuracy := range c.Accuracies {
		total += accuracy
	}
	return total / float64(len(c.Accuracies))
}

// ImportanceCascade runs a base classification, then steps further runs with
// importance-threshold filters at rising cutoffs step/steps * maxImportance,
// so each run classifies on a smaller, higher-importance feature subset. All
// results are saved to store and grouped under one manifest.
func (r *Runner) ImportanceCascade(ctx context.Context, opts Options, steps int, store *artifact.Store) (*Cascade, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("classify: cascade needs at least one step, got %d", steps)
	}

	base, err := r.Classify(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("base run: %w", err)
	}
	baseID, err := store.Save(base, artifact.SaveOptions{CreateIfMissing: true})
	if err != nil {
		return nil, fmt.Errorf("save base result: %w", err)
	}

	importances := base.WeightedImportances()
	maxImportance := base.MaxImportance()

	cascade := &Cascade{
		ResultIDs:  []string{baseID},
		Thresholds: []float64{0},
		Accuracies: []float64{base.MeanAccuracy()},
	}

	baseFilter := r.filter
	defer func() { r.filter = baseFilter }()

	for step := 1; step <= steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		threshold := float64(step) / float64(steps) * maxImportance
		// The threshold stage wraps the base filter as a subfilter, so the
		// cascade narrows whatever column set the base run classified on.
		stage, err := featurefilter.NewImportanceThreshold(importances, threshold, false, baseFilter)
		if err != nil {
			return nil, err
		}

		r.filter = stage
		result, err := r.Classify(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("cascade step %d: %w", step, err)
		}
		id, err := store.Save(result, artifact.SaveOptions{})
		if err != nil {
			return nil, fmt.Errorf("save cascade step %d: %w", step, err)
		}

		cascade.ResultIDs = append(cascade.ResultIDs, id)
		cascade.Thresholds = append(cascade.Thresholds, threshold)
		cascade.Accuracies = append(cascade.Accuracies, result.MeanAccuracy())

		r.logger.Info("cascade step finished",
			logging.Int("step", step),
			logging.Float64("threshold", threshold),
			logging.Float64("mean_accuracy", result.MeanAccuracy()))
	}

	manifestID, err := store.SaveManifest(cascade.ResultIDs)
	if err != nil {
		return nil, fmt.Errorf("save cascade manifest: %w", err)
	}
	cascade.ManifestID = manifestID
	return cascade, nil
}

// CascadeAccuracies loads the results grouped under a cascade manifest and
// returns their mean balanced accuracies in cascade order.
func CascadeAccuracies(store *artifact.Store, manifestID string) ([]float64, error) {
	ids, err := store.LoadManifest(manifestID)
	if err != nil {
		return nil, err
	}

	accuracies := make([]float64, 0, len(ids))
	for _, id := range ids {
		loaded, err := store.Load(ResultKind, id)
		if err != nil {
			return nil, err
		}
		result, ok := loaded.(*Result)
		if !ok {
			return nil, fmt.Errorf("classify: %s is not a classification result", id)
		}
		accuracies = append(accuracies, result.MeanAccuracy())
	}
	return accuracies, nil
}
