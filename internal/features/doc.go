// Package features memoizes expensive per-input feature extraction.
//
// A Store wraps an extraction configuration and a cache keyed by
// (configuration ID, input ID). The configuration ID hashes the *effective*
// configuration, after any per-input adaptive settings have been resolved,
// so a changed adaptive setting opens a fresh cache namespace instead of
// silently serving stale results. The cache is part of the store's persisted
// state and round-trips through the artifact store: a cache hit after reload
// is indistinguishable from a hit in the same run.
//
// Extraction itself is an external collaborator supplied as a ComputeFunc;
// this package never inspects image contents.
package features
