// Package inventory walks the export's source directories and indexes every
// media file by its logical filename key.
//
// Entries within a key group are ordered by (source part, duplicate sequence,
// path), which is the tie-break order used when deciding which physical copy
// backs a metadata record.
package inventory
