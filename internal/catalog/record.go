package catalog

import "time"

// Record holds the metadata the export wrote for one logical item. Records
// are immutable once loaded.
type Record struct {
	// Key is the normalized logical filename identity.
	Key string
	// OriginalName is the filename reference exactly as the CSV wrote it.
	OriginalName string
	// Sequence is the duplicate-sequence number carried by the reference
	// (0 when absent).
	Sequence int

	Captured time.Time
	Imported time.Time

	// Checksum is the export's base64-encoded SHA-1 of the file contents.
	Checksum string

	Latitude  float64
	Longitude float64
	HasGPS    bool

	Album       string
	Favorite    bool
	Description string

	// ContributedByMe distinguishes the user's own items from other members'
	// contributions in shared-library exports.
	ContributedByMe bool
}

// SameIdentity reports whether two records for the same key agree on the
// fields that define the item: capture timestamp and checksum. Records that
// disagree are materially different and must surface as a conflict.
func (r Record) SameIdentity(other Record) bool {
	if !r.Captured.Equal(other.Captured) {
		return false
	}
	if r.Checksum != "" && other.Checksum != "" && r.Checksum != other.Checksum {
		return false
	}
	return true
}
