// Package ledger persists per-run outcome records in a SQLite database so
// earlier runs can be reported on after the fact.
//
// The output tree stays the primary source of truth for idempotence, but the
// executor consults recorded placements to recognize a destination that an
// earlier run placed and then rewrote while embedding tags.
package ledger
