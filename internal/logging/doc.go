// Package logging builds the slog loggers used across the pipeline: a pretty
// console handler for interactive runs, a JSON handler for machine-readable
// output, attribute helpers, and context-derived fields (run ID, item key,
// stage).
package logging
