// Package logging provides slog construction and shared attribute helpers
// for the radex pipeline. All components log through loggers built here so
// field names stay consistent across the experiment run, the artifact store,
// and the CLI.
package logging
