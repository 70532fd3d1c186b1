package reconcile

import (
	"testing"
	"time"

	"icloudsort/internal/catalog"
	"icloudsort/internal/inventory"
)

func record(key string, captured time.Time) catalog.Record {
	return catalog.Record{Key: key, OriginalName: key, Captured: captured}
}

func entry(key, path string, part, seq int) inventory.Entry {
	return inventory.Entry{Key: key, Name: key, Path: path, Part: part, Sequence: seq}
}

func TestBuildMatchedPlusDuplicate(t *testing.T) {
	captured := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	records := map[string][]catalog.Record{
		"img_01.jpg": {record("img_01.jpg", captured)},
	}
	groups := map[string][]inventory.Entry{
		"img_01.jpg": {
			entry("img_01.jpg", "/src/part1/IMG_01.JPG", 1, 0),
			entry("img_01.jpg", "/src/part2/IMG_01(1).JPG", 2, 1),
		},
	}

	decisions := Build(records, groups)
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}

	matched := decisions[0]
	if matched.Outcome != OutcomeMatched {
		t.Fatalf("first decision = %s, want matched", matched.Outcome)
	}
	if matched.Entry.Path != "/src/part1/IMG_01.JPG" {
		t.Fatalf("matched the wrong copy: %s", matched.Entry.Path)
	}
	if matched.Record == nil || !matched.Record.Captured.Equal(captured) {
		t.Fatal("matched decision lost its record")
	}

	surplus := decisions[1]
	if surplus.Outcome != OutcomeFileOnly {
		t.Fatalf("second decision = %s, want file-only", surplus.Outcome)
	}
	if surplus.Entry.Path != "/src/part2/IMG_01(1).JPG" {
		t.Fatalf("wrong surplus copy: %s", surplus.Entry.Path)
	}
}

func TestBuildTieBreakBySequenceWithinPart(t *testing.T) {
	records := map[string][]catalog.Record{
		"img_05.jpg": {record("img_05.jpg", time.Time{})},
	}
	groups := map[string][]inventory.Entry{
		"img_05.jpg": {
			entry("img_05.jpg", "/src/IMG_05.JPG", 1, 0),
			entry("img_05.jpg", "/src/IMG_05(1).JPG", 1, 1),
		},
	}

	decisions := Build(records, groups)
	if decisions[0].Outcome != OutcomeMatched || decisions[0].Entry.Sequence != 0 {
		t.Fatalf("matched entry must be the lowest sequence, got %+v", decisions[0].Entry)
	}
}

func TestBuildMetadataOnly(t *testing.T) {
	records := map[string][]catalog.Record{
		"gone.jpg": {record("gone.jpg", time.Time{})},
	}

	decisions := Build(records, nil)
	if len(decisions) != 1 || decisions[0].Outcome != OutcomeMetadataOnly {
		t.Fatalf("unexpected decisions %+v", decisions)
	}
	if decisions[0].Entry != nil {
		t.Fatal("metadata-only decision must not carry an entry")
	}
}

func TestBuildFileOnlyWithoutRecord(t *testing.T) {
	groups := map[string][]inventory.Entry{
		"stray.jpg": {
			entry("stray.jpg", "/src/a/stray.jpg", 1, 0),
			entry("stray.jpg", "/src/b/stray.jpg", 2, 0),
		},
	}

	decisions := Build(nil, groups)
	if len(decisions) != 2 {
		t.Fatalf("expected one decision per copy, got %d", len(decisions))
	}
	for _, decision := range decisions {
		if decision.Outcome != OutcomeFileOnly || decision.Record != nil {
			t.Fatalf("unexpected decision %+v", decision)
		}
	}
}

func TestBuildConflict(t *testing.T) {
	records := map[string][]catalog.Record{
		"img_02.jpg": {
			record("img_02.jpg", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)),
			record("img_02.jpg", time.Date(2024, 7, 15, 18, 0, 0, 0, time.UTC)),
		},
	}
	groups := map[string][]inventory.Entry{
		"img_02.jpg": {entry("img_02.jpg", "/src/IMG_02.JPG", 1, 0)},
	}

	decisions := Build(records, groups)
	if len(decisions) != 1 {
		t.Fatalf("conflicted key must yield one decision, got %d", len(decisions))
	}
	decision := decisions[0]
	if decision.Outcome != OutcomeConflict {
		t.Fatalf("outcome = %s, want conflict", decision.Outcome)
	}
	if len(decision.Records) != 2 || len(decision.Entries) != 1 {
		t.Fatalf("conflict must carry all rows and copies: %+v", decision)
	}
}

func TestBuildEveryEntryAppearsOnce(t *testing.T) {
	records := map[string][]catalog.Record{
		"a.jpg": {record("a.jpg", time.Time{})},
		"c.jpg": {
			record("c.jpg", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			record("c.jpg", time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)),
		},
	}
	groups := map[string][]inventory.Entry{
		"a.jpg": {entry("a.jpg", "/s/a.jpg", 1, 0), entry("a.jpg", "/s/a(1).jpg", 1, 1)},
		"b.jpg": {entry("b.jpg", "/s/b.jpg", 1, 0)},
		"c.jpg": {entry("c.jpg", "/s/c.jpg", 1, 0)},
	}

	seen := make(map[string]int)
	for _, decision := range Build(records, groups) {
		if decision.Entry != nil {
			seen[decision.Entry.Path]++
		}
		for _, e := range decision.Entries {
			seen[e.Path]++
		}
	}
	for _, group := range groups {
		for _, e := range group {
			if seen[e.Path] != 1 {
				t.Errorf("entry %s appeared %d times", e.Path, seen[e.Path])
			}
		}
	}
}

func TestBuildDeterministicOrder(t *testing.T) {
	groups := map[string][]inventory.Entry{
		"z.jpg": {entry("z.jpg", "/s/z.jpg", 1, 0)},
		"a.jpg": {entry("a.jpg", "/s/a.jpg", 1, 0)},
		"m.jpg": {entry("m.jpg", "/s/m.jpg", 1, 0)},
	}

	first := Build(nil, groups)
	second := Build(nil, groups)
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatal("decision order is not stable")
		}
	}
	if first[0].Key != "a.jpg" || first[2].Key != "z.jpg" {
		t.Fatalf("keys not sorted: %s %s %s", first[0].Key, first[1].Key, first[2].Key)
	}
}

func TestCounts(t *testing.T) {
	decisions := []Decision{
		{Outcome: OutcomeMatched},
		{Outcome: OutcomeMatched},
		{Outcome: OutcomeConflict},
	}
	counts := Counts(decisions)
	if counts[OutcomeMatched] != 2 || counts[OutcomeConflict] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
