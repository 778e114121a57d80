package testsupport

import (
	"path/filepath"
	"testing"

	"radex/internal/artifact"
	"radex/internal/classify"
	"radex/internal/cohort"
	"radex/internal/featurefilter"
	"radex/internal/features"
)

// NewArtifactStore opens an artifact store in a fresh temp directory with
// every entity decoder registered.
func NewArtifactStore(t testing.TB) *artifact.Store {
	t.Helper()

	store := artifact.New(filepath.Join(t.TempDir(), "artifacts"), nil)
	cohort.RegisterWith(store)
	featurefilter.RegisterWith(store)
	features.RegisterWith(store)
	classify.RegisterWith(store)

	if err := store.Init(); err != nil {
		t.Fatalf("artifact store init: %v", err)
	}
	return store
}
