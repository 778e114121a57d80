package artifact

import "errors"

var (
	// ErrNotFound indicates a missing store directory, entity file, or
	// unresolved by-ID reference.
	ErrNotFound = errors.New("artifact: not found")
	// ErrDirectory indicates the store path exists but is not a directory.
	ErrDirectory = errors.New("artifact: path is not a directory")
	// ErrIntegrity indicates on-disk content no longer matches its stored ID.
	// Fatal: it means silent corruption or tampering and is never repaired.
	ErrIntegrity = errors.New("artifact: content id mismatch")
	// ErrUnknownKind indicates no decoder is registered for an entity kind.
	ErrUnknownKind = errors.New("artifact: unknown entity kind")
)
