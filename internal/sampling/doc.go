// Package sampling draws deterministic stratified samples from a labeled
// collection. Every draw is seeded, consumes categories in sorted order, and
// therefore reproduces exactly across runs and processes; classification
// rounds derive their seeds as base seed plus round index so each round gets
// a distinct but individually reproducible train/test split.
package sampling
