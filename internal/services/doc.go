// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, item keys, and stage names
//     for logging and the run ledger.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent per-item outcomes (failed vs conflict vs fatal).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
