// Package cohort represents the labeled case collection an experiment runs
// over: scan/annotation image pairs with per-metric labels, loaded from a
// CSV listing. Image identity is the streaming hash of the file bytes, so a
// reloaded case detects when its image was modified on disk.
package cohort
