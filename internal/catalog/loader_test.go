package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"icloudsort/internal/config"
	"icloudsort/internal/logging"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadDir(t *testing.T, dir string, opts Options) *Result {
	t.Helper()
	loader := NewLoader(config.Default().CSV, opts, logging.NewNop())
	result, err := loader.Load([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestLoadBasicRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Photo Details.csv", `imgName,fileChecksum,originalCreationDate,deleted
IMG_01.JPG,abc123=,2024-06-01T10:00:00Z,no
IMG_02.HEIC,def456=,2024-06-02T11:30:00Z,no
`)

	result := loadDir(t, dir, Options{})
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(result.Records))
	}

	records := result.Records["img_01.jpg"]
	if len(records) != 1 {
		t.Fatalf("expected one record for img_01.jpg, got %d", len(records))
	}
	rec := records[0]
	if rec.OriginalName != "IMG_01.JPG" || rec.Checksum != "abc123=" {
		t.Fatalf("unexpected record %+v", rec)
	}
	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if !rec.Captured.Equal(want) {
		t.Fatalf("captured = %v, want %v", rec.Captured, want)
	}
}

func TestLoadStripsDuplicateSuffixFromReference(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Photo Details.csv", `imgName,originalCreationDate
IMG_03(1).JPG,2024-06-03T09:00:00Z
`)

	result := loadDir(t, dir, Options{})
	records, ok := result.Records["img_03.jpg"]
	if !ok || len(records) != 1 {
		t.Fatalf("expected key img_03.jpg, got %v", result.Records)
	}
	if records[0].Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", records[0].Sequence)
	}
}

func TestLoadSkipsUnusableRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Photo Details.csv", `imgName,deleted
,no
IMG_04.JPG,yes
IMG_05.JPG,no
`)

	result := loadDir(t, dir, Options{})
	if result.SkippedRows != 1 {
		t.Fatalf("skipped = %d, want 1", result.SkippedRows)
	}
	if result.DeletedRows != 1 {
		t.Fatalf("deleted = %d, want 1", result.DeletedRows)
	}
	if _, ok := result.Records["img_05.jpg"]; !ok {
		t.Fatal("surviving row missing")
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 key, got %d", len(result.Records))
	}
}

func TestLoadMissingIdentifyingColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "odd.csv", `someColumn,other
a,b
`)

	result := loadDir(t, dir, Options{})
	if len(result.FileErrors) != 1 {
		t.Fatalf("expected 1 file error, got %d", len(result.FileErrors))
	}
	if len(result.Records) != 0 {
		t.Fatal("no records expected from a file without the identifying column")
	}
}

func TestLoadFileErrorDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a_bad.csv", "imgName\n\"unterminated\n")
	writeCSV(t, dir, "b_good.csv", "imgName\nIMG_06.JPG\n")

	result := loadDir(t, dir, Options{})
	if len(result.FileErrors) != 1 {
		t.Fatalf("expected 1 file error, got %d", len(result.FileErrors))
	}
	if _, ok := result.Records["img_06.jpg"]; !ok {
		t.Fatal("good file should still load after a bad one")
	}
}

func TestLoadCollapsesIdenticalRowsKeepsConflicts(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Photo Details.csv", `imgName,originalCreationDate
IMG_07.JPG,2024-06-01T10:00:00Z
IMG_07.JPG,2024-06-01T10:00:00Z
IMG_08.JPG,2024-06-01T10:00:00Z
IMG_08.JPG,2024-07-15T18:00:00Z
`)

	result := loadDir(t, dir, Options{})
	if got := len(result.Records["img_07.jpg"]); got != 1 {
		t.Fatalf("identical rows should collapse, got %d", got)
	}
	if got := len(result.Records["img_08.jpg"]); got != 2 {
		t.Fatalf("conflicting rows must both survive, got %d", got)
	}
}

func TestLoadSkipShared(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Shared Library Details.csv", `imgName,contributedByMe
IMG_09.JPG,yes
IMG_10.JPG,no
`)

	result := loadDir(t, dir, Options{SkipShared: true})
	if _, ok := result.Records["img_09.jpg"]; !ok {
		t.Fatal("own contribution should load")
	}
	if _, ok := result.Records["img_10.jpg"]; ok {
		t.Fatal("other member's contribution should be skipped")
	}
	if result.SharedRows != 1 {
		t.Fatalf("shared rows = %d, want 1", result.SharedRows)
	}
}

func TestLoadGPS(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Photo Details.csv", `imgName,latitude,longitude
IMG_11.JPG,51.5007,-0.1246
IMG_12.JPG,,
`)

	result := loadDir(t, dir, Options{})
	with := result.Records["img_11.jpg"][0]
	if !with.HasGPS || with.Latitude != 51.5007 || with.Longitude != -0.1246 {
		t.Fatalf("gps not parsed: %+v", with)
	}
	without := result.Records["img_12.jpg"][0]
	if without.HasGPS {
		t.Fatal("empty coordinates must not set HasGPS")
	}
}
