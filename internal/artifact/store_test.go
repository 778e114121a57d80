package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"radex/internal/identity"
)

type note struct {
	identity.Memo
	Text string
}

func (n *note) Kind() string { return "Note" }

func (n *note) CanonicalForm() (map[string]any, error) {
	return map[string]any{"text": n.Text}, nil
}

func (n *note) StableID() (string, error) { return n.Memo.ID(n) }

func (n *note) References() []Storable { return nil }

// report references its note by ID, so the note must be persisted separately.
type report struct {
	identity.Memo
	Title string
	Note  *note
}

func (r *report) Kind() string { return "Report" }

func (r *report) CanonicalForm() (map[string]any, error) {
	noteID, err := r.Note.StableID()
	if err != nil {
		return nil, err
	}
	return map[string]any{"title": r.Title, "note": noteID}, nil
}

func (r *report) StableID() (string, error) { return r.Memo.ID(r) }

func (r *report) References() []Storable { return []Storable{r.Note} }

// journal embeds its note inline; nothing else needs persisting.
type journal struct {
	identity.Memo
	Author string
	Note   *note
}

func (j *journal) Kind() string { return "Journal" }

func (j *journal) CanonicalForm() (map[string]any, error) {
	noteForm, err := j.Note.CanonicalForm()
	if err != nil {
		return nil, err
	}
	return map[string]any{"author": j.Author, "note": noteForm}, nil
}

func (j *journal) StableID() (string, error) { return j.Memo.ID(j) }

func (j *journal) References() []Storable { return nil }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "artifacts"), nil)
	store.Register("Note", func(form map[string]any, _ *Resolver) (Storable, error) {
		text, _ := form["text"].(string)
		return &note{Text: text}, nil
	})
	store.Register("Report", func(form map[string]any, deps *Resolver) (Storable, error) {
		noteID, _ := form["note"].(string)
		loaded, err := deps.Load("Note", noteID)
		if err != nil {
			return nil, err
		}
		title, _ := form["title"].(string)
		return &report{Title: title, Note: loaded.(*note)}, nil
	})
	store.Register("Journal", func(form map[string]any, _ *Resolver) (Storable, error) {
		author, _ := form["author"].(string)
		noteForm, _ := form["note"].(map[string]any)
		text, _ := noteForm["text"].(string)
		return &journal{Author: author, Note: &note{Text: text}}, nil
	})
	return store
}

func TestSaveRequiresDirectory(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(&note{Text: "hi"}, SaveOptions{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing dir, got %v", err)
	}
	if _, err := store.Save(&note{Text: "hi"}, SaveOptions{CreateIfMissing: true}); err != nil {
		t.Fatalf("Save with CreateIfMissing failed: %v", err)
	}
}

func TestSaveRejectsNonDirectoryPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	store := New(path, nil)
	if _, err := store.Save(&note{Text: "hi"}, SaveOptions{CreateIfMissing: true}); !errors.Is(err, ErrDirectory) {
		t.Fatalf("expected ErrDirectory, got %v", err)
	}
}

func TestSaveWritesDependenciesFirst(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	child := &note{Text: "shared config"}
	owner := &report{Title: "experiment", Note: child}

	ownerID, err := store.Save(owner, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	childID, err := child.StableID()
	if err != nil {
		t.Fatalf("child StableID failed: %v", err)
	}
	for _, name := range []string{FileName("Report", ownerID), FileName("Note", childID)} {
		if _, err := os.Stat(filepath.Join(store.Dir(), name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestRoundTripByID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	owner := &report{Title: "experiment", Note: &note{Text: "shared config"}}
	ownerID, err := store.Save(owner, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("Report", ownerID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	reloaded := loaded.(*report)
	if reloaded.Title != owner.Title || reloaded.Note.Text != owner.Note.Text {
		t.Errorf("round-trip mismatch: %+v", reloaded)
	}
}

func TestRoundTripInline(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	owner := &journal{Author: "lab", Note: &note{Text: "inline payload"}}
	ownerID, err := store.Save(owner, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Inline mode writes exactly one file.
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one file for inline save, got %d", len(entries))
	}

	loaded, err := store.Load("Journal", ownerID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.(*journal).Note.Text != "inline payload" {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
}

func TestLoadMissingReferenceFails(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	owner := &report{Title: "experiment", Note: &note{Text: "shared config"}}
	ownerID, err := store.Save(owner, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	childID, _ := owner.Note.StableID()
	if err := os.Remove(filepath.Join(store.Dir(), FileName("Note", childID))); err != nil {
		t.Fatalf("remove child: %v", err)
	}

	if _, err := store.Load("Report", ownerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling reference, got %v", err)
	}
}

func TestLoadDetectsTampering(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	entity := &note{Text: "original"}
	id, err := store.Save(entity, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(store.Dir(), FileName("Note", id))
	if err := os.WriteFile(path, []byte(`{"text":"edited"}`), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if _, err := store.Load("Note", id); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestLoadUnknownKind(t *testing.T) {
	store := New(t.TempDir(), nil)
	path := filepath.Join(store.Dir(), FileName("Mystery", "abc"))
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := store.LoadPath(path); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestSaveUnchangedContentIsNoOp(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	first, err := store.Save(&note{Text: "same"}, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := store.Save(&note{Text: "same"}, SaveOptions{})
	if err != nil {
		t.Fatalf("re-Save failed: %v", err)
	}
	if first != second {
		t.Errorf("identical content produced different IDs: %s != %s", first, second)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	ids := []string{"id-one", "id-two", "id-three"}
	manifestID, err := store.SaveManifest(ids)
	if err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}

	loaded, err := store.LoadManifest(manifestID)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(loaded) != len(ids) {
		t.Fatalf("manifest length mismatch: got %d want %d", len(loaded), len(ids))
	}
	for i := range ids {
		if loaded[i] != ids[i] {
			t.Errorf("manifest[%d] = %q, want %q", i, loaded[i], ids[i])
		}
	}

	// Tampering with the list must surface as an integrity failure.
	path := filepath.Join(store.Dir(), manifestID+".json")
	if err := os.WriteFile(path, []byte(`["id-one"]`), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := store.LoadManifest(manifestID); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.statfs = func(string) (uint64, uint64, error) {
		return 1000, 250, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := store.Save(&note{Text: fmt.Sprintf("note-%d", i)}, SaveOptions{}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("unexpected entry count: %d", stats.Entries)
	}
	if stats.TotalBytes == 0 {
		t.Error("expected non-zero total bytes")
	}
	if stats.FreeRatio != 0.25 {
		t.Errorf("unexpected free ratio: %f", stats.FreeRatio)
	}
}
