package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"icloudsort/internal/config"
	"icloudsort/internal/logging"
	"icloudsort/internal/mediakey"
)

// FileError records a sidecar file that could not be parsed at all.
type FileError struct {
	Path string
	Err  error
}

// Result carries the loaded records plus everything the run report needs to
// explain what was skipped.
type Result struct {
	// Records maps each logical key to every row that referenced it. Exact
	// duplicate rows are collapsed; materially different rows are kept so the
	// reconciler can flag the conflict.
	Records map[string][]Record

	SkippedRows int
	DeletedRows int
	SharedRows  int
	FileErrors  []FileError
}

// Options control which rows survive loading.
type Options struct {
	// SkipShared drops rows whose contributed column says the item came from
	// another member of a shared library.
	SkipShared bool
}

// Loader parses sidecar CSV files under one or more source roots.
type Loader struct {
	columns config.CSV
	opts    Options
	logger  *slog.Logger
}

// NewLoader constructs a loader for the given column mapping.
func NewLoader(columns config.CSV, opts Options, logger *slog.Logger) *Loader {
	return &Loader{
		columns: columns,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
}

// Load walks the given roots, parses every CSV file found, and merges the
// rows into a single keyed result. Per-file parse failures land in the
// result's FileErrors; they never abort the load.
func (l *Loader) Load(roots []string) (*Result, error) {
	result := &Result{Records: make(map[string][]Record)}

	for _, root := range roots {
		paths, err := findSidecars(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s for sidecars: %w", root, err)
		}
		for _, path := range paths {
			if err := l.loadFile(path, result); err != nil {
				l.logger.Warn("sidecar file unreadable",
					logging.String("path", path),
					logging.Error(err))
				result.FileErrors = append(result.FileErrors, FileError{Path: path, Err: err})
			}
		}
	}

	l.logger.Info("catalog loaded",
		logging.Int("keys", len(result.Records)),
		logging.Int("skipped_rows", result.SkippedRows),
		logging.Int("deleted_rows", result.DeletedRows),
		logging.Int("file_errors", len(result.FileErrors)))
	return result, nil
}

func findSidecars(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) loadFile(path string, result *Result) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	columns := indexColumns(header)
	nameIdx, ok := columns[strings.ToLower(l.columns.FilenameColumn)]
	if !ok {
		return fmt.Errorf("identifying column %q not present", l.columns.FilenameColumn)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// A malformed row poisons the rest of the file for the stdlib
			// reader; treat it as a file-level parse failure.
			return fmt.Errorf("read row: %w", err)
		}

		l.loadRow(path, row, columns, nameIdx, result)
	}
}

func (l *Loader) loadRow(path string, row []string, columns map[string]int, nameIdx int, result *Result) {
	name := strings.TrimSpace(cell(row, nameIdx))
	if name == "" {
		l.logger.Warn("row missing filename reference, skipped", logging.String("file", filepath.Base(path)))
		result.SkippedRows++
		return
	}

	lookup := func(column string) string {
		if column == "" {
			return ""
		}
		idx, ok := columns[strings.ToLower(column)]
		if !ok {
			return ""
		}
		return strings.TrimSpace(cell(row, idx))
	}

	if isYes(lookup(l.columns.DeletedColumn)) {
		l.logger.Debug("row marked deleted, skipped", logging.String("name", name))
		result.DeletedRows++
		return
	}

	contributed := lookup(l.columns.ContributedColumn)
	if contributed != "" && !isYes(contributed) {
		result.SharedRows++
		if l.opts.SkipShared {
			l.logger.Debug("shared-library row skipped", logging.String("name", name))
			return
		}
	}

	key, seq := mediakey.Normalize(name)
	record := Record{
		Key:             key,
		OriginalName:    name,
		Sequence:        seq,
		Captured:        parseTimestamp(lookup(l.columns.CreatedColumn)),
		Imported:        parseTimestamp(lookup(l.columns.ImportedColumn)),
		Checksum:        lookup(l.columns.ChecksumColumn),
		Album:           lookup(l.columns.AlbumColumn),
		Favorite:        isYes(lookup(l.columns.FavoriteColumn)),
		Description:     lookup(l.columns.DescriptionColumn),
		ContributedByMe: contributed == "" || isYes(contributed),
	}

	lat, latOK := parseCoordinate(lookup(l.columns.LatitudeColumn))
	lon, lonOK := parseCoordinate(lookup(l.columns.LongitudeColumn))
	if latOK && lonOK {
		record.Latitude = lat
		record.Longitude = lon
		record.HasGPS = true
	}

	for _, existing := range result.Records[key] {
		if existing.SameIdentity(record) {
			l.logger.Warn("duplicate row for key, skipped",
				logging.String("key", key),
				logging.String("file", filepath.Base(path)))
			result.SkippedRows++
			return
		}
	}
	result.Records[key] = append(result.Records[key], record)
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name == "" {
			continue
		}
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	return columns
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isYes(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

// timestampLayouts covers the formats observed across export generations.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"Monday, January 2, 2006 3:04 PM MST",
	"January 2, 2006 3:04 PM MST",
	"2006:01:02 15:04:05",
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func parseCoordinate(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
