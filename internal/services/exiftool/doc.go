// Package exiftool wraps the exiftool CLI for reading and writing embedded
// metadata tags one file at a time.
//
// Invocations are independent and bounded by a configurable timeout so a hung
// tool never stalls the batch. The Executor seam allows tests to substitute a
// fake process.
package exiftool
