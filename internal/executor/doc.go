// Package executor drives reconciliation decisions to completion: placing
// files under the output root, tagging them, and aggregating a per-item
// report.
//
// The batch always finishes. One item's failure is recorded and the rest
// keep processing; cancellation stops dispatching new items but lets
// in-flight items run to completion. In dry-run mode every write becomes a
// logged no-op while the report still shows what would have happened.
package executor
