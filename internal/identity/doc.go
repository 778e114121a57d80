// Package identity computes deterministic content IDs for pipeline entities.
//
// An entity's ID is the hex SHA-256 digest of the canonical JSON encoding of
// its field representation. Canonical encoding sorts object keys at every
// nesting level, so two semantically equal representations always hash to the
// same ID regardless of construction order. IDs double as cache keys and as
// storage filename components, which is what makes extracted features and
// experiment results deduplicable across runs.
package identity
