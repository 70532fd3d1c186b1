package executor

import (
	"fmt"
	"sort"
	"sync"

	"icloudsort/internal/ledger"
)

// Status classifies the final outcome of one item. The set is closed.
type Status int

const (
	// StatusApplied means the file was placed (and tagged when metadata
	// existed), or would have been in dry-run mode.
	StatusApplied Status = iota
	// StatusSkippedIdentical means the destination already held the same
	// bytes. The expected outcome of a re-run.
	StatusSkippedIdentical
	// StatusSkippedConflict means the item needs operator attention:
	// disagreeing metadata or a destination holding different content.
	StatusSkippedConflict
	// StatusMetadataOnly means the record's file never appeared in any
	// source. Nothing to do.
	StatusMetadataOnly
	// StatusFailed means a tagging or filesystem operation failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusSkippedIdentical:
		return "skipped-identical"
	case StatusSkippedConflict:
		return "skipped-conflict"
	case StatusMetadataOnly:
		return "metadata-only"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ItemResult is one item's final outcome.
type ItemResult struct {
	Key         string
	Status      Status
	Source      string
	Destination string
	Detail      string
	Err         error
}

// Report collects item results. Safe for concurrent append.
type Report struct {
	mu    sync.Mutex
	items []ItemResult
}

func (r *Report) add(item ItemResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

// Items returns the results sorted by key then source path so reports are
// stable regardless of worker scheduling.
func (r *Report) Items() []ItemResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ItemResult, len(r.items))
	copy(items, r.items)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Key != items[j].Key {
			return items[i].Key < items[j].Key
		}
		return items[i].Source < items[j].Source
	})
	return items
}

// Counts tallies results by status.
func (r *Report) Counts() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Status]int)
	for _, item := range r.items {
		counts[item.Status]++
	}
	return counts
}

// Summary converts the tallies to the ledger's summary shape.
func (r *Report) Summary() ledger.Summary {
	counts := r.Counts()
	return ledger.Summary{
		Applied:          counts[StatusApplied],
		SkippedIdentical: counts[StatusSkippedIdentical],
		SkippedConflict:  counts[StatusSkippedConflict],
		MetadataOnly:     counts[StatusMetadataOnly],
		Failed:           counts[StatusFailed],
	}
}

// Clean reports whether every item resolved without conflict or failure.
// The process exit status hangs off this.
func (r *Report) Clean() bool {
	counts := r.Counts()
	return counts[StatusSkippedConflict] == 0 && counts[StatusFailed] == 0
}
