// Package featurefilter transforms collections of named-feature records
// through chainable, content-addressed filter stages.
//
// A stage is one of a closed set of kinds with typed parameters, plus zero or
// more subfilters. Subfilters each run against the original input and their
// outputs merge field-wise per record, later subfilters overriding earlier
// ones; the stage function then runs on the merged result. Stages are
// entities: identical configurations hash to the same ID and deduplicate in
// the artifact store.
package featurefilter
