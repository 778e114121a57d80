package testsupport_test

import (
	"testing"

	"radex/internal/artifact"
	"radex/internal/cohort"
	"radex/internal/testsupport"
)

func TestNewConfigUsesTempPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithRounds(7),
		testsupport.WithMetric(cohort.MetricNAR),
	)

	if cfg.Experiment.Rounds != 7 {
		t.Errorf("rounds option not applied: %d", cfg.Experiment.Rounds)
	}
	if cfg.Experiment.Metric != cohort.MetricNAR {
		t.Errorf("metric option not applied: %s", cfg.Experiment.Metric)
	}
	if cfg.Paths.ArtifactDir == "" || cfg.Paths.ResultsDB == "" {
		t.Error("expected temp paths to be populated")
	}
}

func TestWriteCohortLoadsBalanced(t *testing.T) {
	csvPath := testsupport.WriteCohort(t, 3)

	collection, err := cohort.FromCSV(csvPath, cohort.LoadOptions{
		FileEnding:       ".nii.gz",
		AnnotationSuffix: "A",
	}, nil)
	if err != nil {
		t.Fatalf("FromCSV failed: %v", err)
	}
	if collection.Len() != 6 {
		t.Fatalf("expected 6 cases, got %d", collection.Len())
	}

	positives := 0
	for _, id := range collection.IDs() {
		if value, ok := collection.Label(id, cohort.MetricPCR); ok && value == 1 {
			positives++
		}
	}
	if positives != 3 {
		t.Errorf("expected a balanced cohort, got %d positives", positives)
	}
}

func TestNewArtifactStoreRoundTrips(t *testing.T) {
	store := testsupport.NewArtifactStore(t)

	csvPath := testsupport.WriteCohort(t, 2)
	collection, err := cohort.FromCSV(csvPath, cohort.LoadOptions{
		FileEnding:       ".nii.gz",
		AnnotationSuffix: "A",
	}, nil)
	if err != nil {
		t.Fatalf("FromCSV failed: %v", err)
	}

	id, err := store.Save(collection, artifact.SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(cohort.CollectionKind, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.(*cohort.Collection).Len() != collection.Len() {
		t.Error("collection changed across round trip")
	}
}
