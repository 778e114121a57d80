// Package runindex records experiment runs in a SQLite database so past runs
// can be listed and inspected without rehashing artifact files. The index is
// bookkeeping only: the artifacts themselves remain the source of truth, and
// a lost index can be rebuilt from the artifact directory.
package runindex
