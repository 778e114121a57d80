package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrSerialization indicates a canonical form contained a value that cannot
// be encoded as JSON (foreign numeric types, channels, NaN, and the like).
var ErrSerialization = errors.New("identity: unserializable value")

// hashChunkSize is the read buffer used when hashing file contents. The
// digest is a pure function of the byte stream, so the chunk size never
// influences the resulting ID.
const hashChunkSize = 4096

// Entity is anything that can be content-addressed and persisted. Kind names
// the entity type for storage filenames; CanonicalForm returns the complete
// JSON-compatible field representation the ID is derived from.
type Entity interface {
	Kind() string
	CanonicalForm() (map[string]any, error)
}

// CanonicalJSON encodes a canonical form with lexicographically sorted keys
// at every nesting level. encoding/json already guarantees sorted keys for
// maps, so the contract reduces to rejecting anything it cannot encode.
func CanonicalJSON(form map[string]any) ([]byte, error) {
	encoded, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return encoded, nil
}

// ComputeID derives the content ID for an entity from its canonical form.
func ComputeID(entity Entity) (string, error) {
	form, err := entity.CanonicalForm()
	if err != nil {
		return "", fmt.Errorf("canonical form for %s: %w", entity.Kind(), err)
	}
	return ComputeFormID(form)
}

// ComputeFormID derives a content ID directly from a canonical form.
func ComputeFormID(form map[string]any) (string, error) {
	encoded, err := CanonicalJSON(form)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(encoded)
	return hex.EncodeToString(digest[:]), nil
}

// HashReader streams r through the project hash in fixed-size chunks and
// returns the hex digest.
func HashReader(r io.Reader) (string, error) {
	digestor := sha256.New()
	if _, err := io.CopyBuffer(digestor, r, make([]byte, hashChunkSize)); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(digestor.Sum(nil)), nil
}

// HashFile returns the streaming content hash of the file at path. Used for
// file-backed entities whose identity is the raw bytes on disk rather than a
// canonical form.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	id, err := HashReader(file)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return id, nil
}

// HashStrings hashes the concatenation of the provided strings. Manifest
// files grouping a batch of entity IDs are named this way.
func HashStrings(values []string) string {
	digestor := sha256.New()
	for _, value := range values {
		digestor.Write([]byte(value))
	}
	return hex.EncodeToString(digestor.Sum(nil))
}
