package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"icloudsort/internal/catalog"
	"icloudsort/internal/logging"
	"icloudsort/internal/services"
	"icloudsort/internal/services/exiftool"
)

// exifTimeLayout is the timestamp format exiftool expects for date tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// TagSet is the metadata derived from one catalog record: embedded tags plus
// the filesystem timestamp to stamp on the file. A zero Timestamp means the
// file's times are left alone.
type TagSet struct {
	Tags      map[string]string
	Timestamp time.Time
}

// Empty reports whether applying the set would change nothing.
func (t TagSet) Empty() bool {
	return len(t.Tags) == 0 && t.Timestamp.IsZero()
}

// Names returns the tag names in sorted order.
func (t TagSet) Names() []string {
	names := make([]string, 0, len(t.Tags))
	for name := range t.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compute derives the full tag set for a record. A nil record yields an
// empty set, which is what surplus duplicate copies get.
func Compute(record *catalog.Record) TagSet {
	set := TagSet{Tags: make(map[string]string)}
	if record == nil {
		return set
	}

	if !record.Captured.IsZero() {
		stamp := record.Captured.Format(exifTimeLayout)
		set.Tags["DateTimeOriginal"] = stamp
		set.Tags["CreateDate"] = stamp
		set.Timestamp = record.Captured
	}
	if record.HasGPS {
		set.Tags["GPSLatitude"] = formatCoordinate(record.Latitude)
		set.Tags["GPSLatitudeRef"] = hemisphere(record.Latitude, "N", "S")
		set.Tags["GPSLongitude"] = formatCoordinate(record.Longitude)
		set.Tags["GPSLongitudeRef"] = hemisphere(record.Longitude, "E", "W")
	}
	if record.Description != "" {
		set.Tags["Description"] = record.Description
	}
	if record.Album != "" {
		set.Tags["Keywords"] = record.Album
	}
	if record.Favorite {
		set.Tags["Rating"] = "5"
	}
	return set
}

func formatCoordinate(value float64) string {
	if value < 0 {
		value = -value
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func hemisphere(value float64, positive, negative string) string {
	if value < 0 {
		return negative
	}
	return positive
}

// Merge drops every desired tag whose value already sits on the file. The
// returned map contains only tags that would actually change the file.
func Merge(desired, existing map[string]string) map[string]string {
	merged := make(map[string]string, len(desired))
	for name, value := range desired {
		current := strings.TrimSpace(existing[name])
		if current != "" && current == value {
			continue
		}
		merged[name] = value
	}
	return merged
}

// Applier writes derived metadata onto media files.
type Applier struct {
	tagger exiftool.Tagger
	dryRun bool
	logger *slog.Logger
}

func NewApplier(tagger exiftool.Tagger, dryRun bool, logger *slog.Logger) *Applier {
	return &Applier{
		tagger: tagger,
		dryRun: dryRun,
		logger: logging.NewComponentLogger(logger, "tagging"),
	}
}

// Apply tags path with the metadata derived from record and stamps the
// capture time onto the file. It returns the set that was written, or in dry
// run mode the set that would have been. Tags the file already carries with
// the same value are not rewritten.
func (a *Applier) Apply(ctx context.Context, path string, record *catalog.Record) (TagSet, error) {
	desired := Compute(record)
	if desired.Empty() {
		return desired, nil
	}

	if a.dryRun {
		// The tool is never invoked in dry-run mode, so the reported set is
		// the full derived one, before the existing-tag merge.
		a.logger.Info("dry run, would tag file",
			logging.String("path", path),
			logging.Int("tags", len(desired.Tags)),
			logging.String("timestamp", formatStamp(desired.Timestamp)))
		return desired, nil
	}

	pending := desired.Tags
	if len(pending) > 0 {
		existing, err := a.tagger.ReadTags(ctx, path, desired.Names())
		if err != nil {
			return TagSet{}, services.Wrap(services.ErrExternalTool, "tagging", "read_tags",
				fmt.Sprintf("read current tags from %s", path), err)
		}
		pending = Merge(pending, existing)
	}

	if len(pending) > 0 {
		if err := a.tagger.WriteTags(ctx, path, pending); err != nil {
			return TagSet{}, services.Wrap(services.ErrExternalTool, "tagging", "write_tags",
				fmt.Sprintf("write tags to %s", path), err)
		}
	}
	if !desired.Timestamp.IsZero() {
		if err := os.Chtimes(path, desired.Timestamp, desired.Timestamp); err != nil {
			return TagSet{}, services.Wrap(services.ErrFilesystem, "tagging", "set_times",
				fmt.Sprintf("set timestamps on %s", path), err)
		}
	}

	a.logger.Debug("file tagged",
		logging.String("path", path),
		logging.Int("tags", len(pending)))
	return TagSet{Tags: pending, Timestamp: desired.Timestamp}, nil
}

func formatStamp(stamp time.Time) string {
	if stamp.IsZero() {
		return "unchanged"
	}
	return stamp.Format(time.RFC3339)
}
