// Package preflight validates the environment before a run starts: source
// roots readable, output root writable, tagging binary present.
//
// A failed check here is the only class of error that stops a run before
// any item is processed.
package preflight
