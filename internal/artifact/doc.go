// Package artifact persists content-addressed entities as JSON files.
//
// Every entity is written to <Kind>_<ID>.json inside the store directory,
// where ID is the entity's content hash. Entities may reference nested
// entities either inline (the child's full form is embedded) or by ID (only
// the child's ID string is embedded and the child is persisted as its own
// file). By-ID dependencies are saved write-ahead, before their owner, so a
// later load can always resolve them against sibling files.
//
// Loads verify integrity: the decoded entity's recomputed content ID must
// match the ID in the filename, otherwise the file was modified on disk and
// the load fails rather than silently repairing anything.
package artifact
