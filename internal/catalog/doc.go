// Package catalog parses the export's sidecar CSV files into metadata records
// keyed by logical filename.
//
// Loading is a pure parse: malformed files and unusable rows are collected
// into the load report rather than aborting the run, and one logical key may
// map to several rows when the export contains re-uploaded copies.
package catalog
