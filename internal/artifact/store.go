package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"radex/internal/identity"
	"radex/internal/logging"
)

// Storable is a content-addressed entity the store can persist and reload.
type Storable interface {
	identity.Entity
	// StableID returns the memoized content ID. Implementations must
	// recompute after mutation (identity.Memo handles this).
	StableID() (string, error)
	// References returns by-ID dependencies that must be persisted as their
	// own files before the owner is written. Inline children return nothing.
	References() []Storable
}

// DecodeFunc reconstructs a typed entity from its persisted form. By-ID
// references are resolved through the supplied Resolver.
type DecodeFunc func(form map[string]any, deps *Resolver) (Storable, error)

// SaveOptions controls directory handling during Save.
type SaveOptions struct {
	// CreateIfMissing creates the store directory on first save. Dependency
	// saves always run with this off: the root call must have established
	// the directory already.
	CreateIfMissing bool
}

// Store persists entities into a single directory, one JSON file per entity.
type Store struct {
	dir    string
	logger *slog.Logger
	statfs statfsFunc

	mu       sync.RWMutex
	decoders map[string]DecodeFunc
}

// New constructs a store rooted at dir. The directory is not touched until
// the first Save or an explicit Init.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		dir:      dir,
		logger:   logging.NewComponentLogger(logger, "artifact"),
		statfs:   realStatfs,
		decoders: make(map[string]DecodeFunc),
	}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Register installs the decoder for an entity kind. Loading a kind without a
// registered decoder fails with ErrUnknownKind.
func (s *Store) Register(kind string, decode DecodeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoders[kind] = decode
}

// Init creates the store directory if missing. The check-then-create step is
// serialized through a sibling lock file so concurrent first-time savers do
// not race; call it once before spawning parallel writers.
func (s *Store) Init() error {
	lock := flock.New(s.dir + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock store dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	return s.ensureDir(true)
}

func (s *Store) ensureDir(create bool) error {
	info, err := os.Stat(s.dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrDirectory, s.dir)
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if !create {
			return fmt.Errorf("%w: store directory %s", ErrNotFound, s.dir)
		}
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("stat store directory: %w", err)
	}
}

// Save persists entity and, write-ahead, every by-ID dependency it
// references. Returns the entity's content ID. Saving unchanged content is a
// no-op: the target file already exists under the same name.
func (s *Store) Save(entity Storable, opts SaveOptions) (string, error) {
	if err := s.ensureDir(opts.CreateIfMissing); err != nil {
		return "", err
	}
	return s.save(entity)
}

func (s *Store) save(entity Storable) (string, error) {
	for _, dep := range entity.References() {
		if _, err := s.save(dep); err != nil {
			return "", fmt.Errorf("save dependency %s: %w", dep.Kind(), err)
		}
	}

	id, err := entity.StableID()
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, FileName(entity.Kind(), id))
	if _, err := os.Stat(path); err == nil {
		s.logger.Debug("entity already persisted",
			logging.String(logging.FieldEntityID, id),
			logging.String("kind", entity.Kind()))
		return id, nil
	}

	form, err := entity.CanonicalForm()
	if err != nil {
		return "", fmt.Errorf("canonical form for %s: %w", entity.Kind(), err)
	}
	encoded, err := identity.CanonicalJSON(form)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Debug("entity persisted",
		logging.String(logging.FieldEntityID, id),
		logging.String("kind", entity.Kind()))
	return id, nil
}

// Load reads the file for (kind, id), reconstructs the entity, resolves its
// by-ID references against sibling files, and verifies that the decoded
// entity still hashes to the ID it was stored under.
func (s *Store) Load(kind, id string) (Storable, error) {
	return s.LoadPath(filepath.Join(s.dir, FileName(kind, id)))
}

// LoadPath loads an entity from an explicit file path. The filename must
// follow the <Kind>_<ID>.json convention.
func (s *Store) LoadPath(path string) (Storable, error) {
	kind, id, err := parseFileName(filepath.Base(path))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var form map[string]any
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	s.mu.RLock()
	decode, ok := s.decoders[kind]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	entity, err := decode(form, &Resolver{store: s})
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s %s: %w", kind, id, err)
	}

	recomputed, err := entity.StableID()
	if err != nil {
		return nil, err
	}
	if recomputed != id {
		return nil, fmt.Errorf("%w: %s stored as %s, recomputed %s", ErrIntegrity, kind, id, recomputed)
	}
	return entity, nil
}

// Resolver loads by-ID references during entity reconstruction.
type Resolver struct {
	store *Store
}

// Load resolves a referenced entity by kind and ID from the same directory.
func (r *Resolver) Load(kind, id string) (Storable, error) {
	return r.store.Load(kind, id)
}

// FileName returns the storage filename for an entity kind and content ID.
func FileName(kind, id string) string {
	return kind + "_" + id + ".json"
}

func parseFileName(name string) (kind, id string, err error) {
	trimmed := strings.TrimSuffix(name, ".json")
	if trimmed == name {
		return "", "", fmt.Errorf("artifact: %q is not an entity file", name)
	}
	// Kind names never contain underscores; IDs may (file-backed entities
	// join two file hashes). Split at the first underscore.
	separator := strings.Index(trimmed, "_")
	if separator <= 0 || separator == len(trimmed)-1 {
		return "", "", fmt.Errorf("artifact: %q is not an entity file", name)
	}
	return trimmed[:separator], trimmed[separator+1:], nil
}
