package reconcile

import (
	"fmt"
	"sort"

	"icloudsort/internal/catalog"
	"icloudsort/internal/inventory"
)

// Outcome classifies a decision. The set is closed; the executor switches
// exhaustively over it.
type Outcome int

const (
	// OutcomeMatched pairs a metadata record with the canonical physical copy.
	OutcomeMatched Outcome = iota
	// OutcomeMetadataOnly is a record whose file never appeared in any source.
	OutcomeMetadataOnly
	// OutcomeFileOnly is a physical file with no record, or a surplus
	// duplicate copy of a matched key.
	OutcomeFileOnly
	// OutcomeConflict covers keys whose metadata rows disagree with each
	// other. Nothing is written for a conflicted key.
	OutcomeConflict
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeMetadataOnly:
		return "metadata-only"
	case OutcomeFileOnly:
		return "file-only"
	case OutcomeConflict:
		return "conflict"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is one reconciliation verdict. Exactly one of the record/entry
// field combinations is populated depending on the outcome:
//
//	matched        Record + Entry
//	metadata-only  Record
//	file-only      Entry, plus Record when the copy belongs to a matched key
//	conflict       Records (all disagreeing rows) + Entries (all copies)
//
// Decisions are read-only once built.
type Decision struct {
	Key     string
	Outcome Outcome

	Record  *catalog.Record
	Records []catalog.Record

	Entry   *inventory.Entry
	Entries []inventory.Entry

	Reason string
}

// Build produces one pass over the union of catalog and inventory keys and
// returns decisions in sorted key order. Every inventory entry lands in
// exactly one decision, as does every catalog record.
func Build(records map[string][]catalog.Record, groups map[string][]inventory.Entry) []Decision {
	keys := make(map[string]struct{}, len(records)+len(groups))
	for key := range records {
		keys[key] = struct{}{}
	}
	for key := range groups {
		keys[key] = struct{}{}
	}
	ordered := make([]string, 0, len(keys))
	for key := range keys {
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	var decisions []Decision
	for _, key := range ordered {
		decisions = append(decisions, decideKey(key, records[key], groups[key])...)
	}
	return decisions
}

func decideKey(key string, rows []catalog.Record, entries []inventory.Entry) []Decision {
	if len(rows) > 1 {
		// Disagreeing metadata rows poison the whole key. All physical
		// copies ride along on the conflict so none of them is written.
		return []Decision{{
			Key:     key,
			Outcome: OutcomeConflict,
			Records: rows,
			Entries: entries,
			Reason:  fmt.Sprintf("%d metadata rows disagree", len(rows)),
		}}
	}

	var record *catalog.Record
	if len(rows) == 1 {
		record = &rows[0]
	}

	if len(entries) == 0 {
		if record == nil {
			return nil
		}
		return []Decision{{
			Key:     key,
			Outcome: OutcomeMetadataOnly,
			Record:  record,
			Reason:  "no file found for record",
		}}
	}

	var decisions []Decision
	for i := range entries {
		entry := &entries[i]
		switch {
		case record != nil && i == 0:
			decisions = append(decisions, Decision{
				Key:     key,
				Outcome: OutcomeMatched,
				Record:  record,
				Entry:   entry,
			})
		case record != nil:
			// Surplus duplicate copy of a matched key. It keeps its record
			// for placement naming but is never tagged.
			decisions = append(decisions, Decision{
				Key:     key,
				Outcome: OutcomeFileOnly,
				Record:  record,
				Entry:   entry,
				Reason:  "duplicate copy of matched item",
			})
		default:
			decisions = append(decisions, Decision{
				Key:     key,
				Outcome: OutcomeFileOnly,
				Entry:   entry,
				Reason:  "no metadata record",
			})
		}
	}
	return decisions
}

// Counts tallies decisions by outcome for logging and reports.
func Counts(decisions []Decision) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, decision := range decisions {
		counts[decision.Outcome]++
	}
	return counts
}
