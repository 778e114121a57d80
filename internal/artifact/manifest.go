package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"radex/internal/identity"
)

// SaveManifest writes a top-level list file enumerating a batch of related
// entity IDs (a cascade of experiment results, typically). The file is named
// by the hash of the concatenated child IDs, so identical batches collapse
// onto one manifest.
func (s *Store) SaveManifest(ids []string) (string, error) {
	if err := s.ensureDir(false); err != nil {
		return "", err
	}
	manifestID := identity.HashStrings(ids)
	path := filepath.Join(s.dir, manifestID+".json")

	encoded, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return manifestID, nil
}

// LoadManifest reads a manifest back as the ordered list of entity IDs it
// was saved with.
func (s *Store) LoadManifest(manifestID string) ([]string, error) {
	path := filepath.Join(s.dir, manifestID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: manifest %s", ErrNotFound, manifestID)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if recomputed := identity.HashStrings(ids); recomputed != manifestID {
		return nil, fmt.Errorf("%w: manifest stored as %s, recomputed %s", ErrIntegrity, manifestID, recomputed)
	}
	return ids, nil
}
