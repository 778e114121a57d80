package cohort

import (
	"fmt"
	"strings"

	"radex/internal/artifact"
	"radex/internal/identity"
)

// ImageRefKind is the storage kind for image references.
const ImageRefKind = "ImageRef"

// ImageRef points at an image file on disk. Its identity is the streaming
// hash of the file contents, not of the path, so two copies of the same scan
// share one ID and any modification to the bytes is detectable.
type ImageRef struct {
	memo   identity.Memo
	path   string
	fileID string
}

// NewImageRef hashes the file at path and builds a reference to it.
func NewImageRef(path string) (*ImageRef, error) {
	fileID, err := identity.HashFile(path)
	if err != nil {
		return nil, err
	}
	return &ImageRef{path: path, fileID: fileID}, nil
}

// Path returns the referenced file location.
func (r *ImageRef) Path() string { return r.path }

// FileID returns the content hash of the referenced file.
func (r *ImageRef) FileID() string { return r.fileID }

// Kind implements identity.Entity.
func (r *ImageRef) Kind() string { return ImageRefKind }

// CanonicalForm implements identity.Entity.
func (r *ImageRef) CanonicalForm() (map[string]any, error) {
	return map[string]any{"path": r.path, "id": r.fileID}, nil
}

// StableID implements artifact.Storable.
func (r *ImageRef) StableID() (string, error) { return r.memo.ID(r) }

// References implements artifact.Storable.
func (r *ImageRef) References() []artifact.Storable { return nil }

// decodeImageRef reconstructs a reference and re-hashes the file on disk.
// A digest that no longer matches the stored ID means the image was changed
// after the reference was persisted.
func decodeImageRef(form map[string]any) (*ImageRef, error) {
	path, _ := form["path"].(string)
	storedID, _ := form["id"].(string)

	ref, err := NewImageRef(path)
	if err != nil {
		return nil, err
	}
	if ref.fileID != storedID {
		return nil, fmt.Errorf("%w: image %s hashed to %s, stored as %s",
			artifact.ErrIntegrity, path, ref.fileID, storedID)
	}
	return ref, nil
}

// AnnotationPath derives the annotation file path that pairs with a scan:
// the scan path with the annotation suffix inserted before the file ending.
func AnnotationPath(scanPath, annoSuffix, fileEnding string) string {
	base := strings.TrimSuffix(scanPath, fileEnding)
	return base + annoSuffix + fileEnding
}
