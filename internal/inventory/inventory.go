package inventory

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"icloudsort/internal/logging"
	"icloudsort/internal/mediakey"
)

// Entry describes one media file found under a source root.
type Entry struct {
	// Path is the absolute location of the file.
	Path string
	// Name is the on-disk base filename, duplicate suffix included.
	Name string
	// Key is the normalized logical filename identity.
	Key string
	// Sequence is the duplicate-sequence number from the filename (0 when
	// absent).
	Sequence int
	// Part identifies the split source directory the file came from.
	Part int
	Size int64
}

// Filter limits which filenames are admitted to the inventory. Patterns use
// filepath.Match syntax and apply to the base filename. An empty include list
// admits everything; exclude wins over include.
type Filter struct {
	Include []string
	Exclude []string
}

// Match reports whether a base filename passes the filter.
func (f Filter) Match(name string) bool {
	for _, pattern := range f.Exclude {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Validate rejects malformed glob patterns up front so a bad filter fails the
// run before any walking happens.
func (f Filter) Validate() error {
	for _, pattern := range append(append([]string{}, f.Include...), f.Exclude...) {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// mediaExtensions lists the file types the export is known to contain.
// Sidecar CSVs and bookkeeping files are never media.
var mediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".heic": true, ".heif": true, ".webp": true, ".bmp": true,
	".tif": true, ".tiff": true, ".dng": true, ".cr2": true,
	".cr3": true, ".nef": true, ".arw": true, ".raf": true,
	".mov": true, ".mp4": true, ".m4v": true, ".avi": true,
	".3gp": true, ".mts": true,
}

// partPattern extracts the part number from split directory names such as
// "iCloud Photos Part 3 of 10".
var partPattern = regexp.MustCompile(`(?i)part\s*(\d+)`)

// Scanner builds the media inventory for one or more source roots.
type Scanner struct {
	filter Filter
	logger *slog.Logger
}

func NewScanner(filter Filter, logger *slog.Logger) *Scanner {
	return &Scanner{
		filter: filter,
		logger: logging.NewComponentLogger(logger, "inventory"),
	}
}

// Scan walks the roots in order and returns entries grouped by logical key.
// Each group is sorted by (part, sequence, path) so the first element is the
// canonical copy for that key. The walk itself is read-only.
func (s *Scanner) Scan(roots []string) (map[string][]Entry, error) {
	groups := make(map[string][]Entry)
	total := 0
	filtered := 0

	for i, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		defaultPart := i + 1

		err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			name := entry.Name()
			if !mediaExtensions[strings.ToLower(filepath.Ext(name))] {
				return nil
			}
			if !s.filter.Match(name) {
				filtered++
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				return err
			}

			key, seq := mediakey.Normalize(name)
			groups[key] = append(groups[key], Entry{
				Path:     path,
				Name:     name,
				Key:      key,
				Sequence: seq,
				Part:     partOf(abs, path, defaultPart),
				Size:     info.Size(),
			})
			total++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	for key := range groups {
		sortGroup(groups[key])
	}

	s.logger.Info("inventory built",
		logging.Int("files", total),
		logging.Int("keys", len(groups)),
		logging.Int("filtered", filtered))
	return groups, nil
}

// partOf derives the source-part identifier for a file. Directory names
// carrying an explicit "Part N" marker win; otherwise the ordinal of the root
// the file was found under is used.
func partOf(root, path string, defaultPart int) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return defaultPart
	}
	for _, component := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if match := partPattern.FindStringSubmatch(component); match != nil {
			if part, err := strconv.Atoi(match[1]); err == nil {
				return part
			}
		}
	}
	return defaultPart
}

func sortGroup(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Part != entries[j].Part {
			return entries[i].Part < entries[j].Part
		}
		if entries[i].Sequence != entries[j].Sequence {
			return entries[i].Sequence < entries[j].Sequence
		}
		return entries[i].Path < entries[j].Path
	})
}

// Keys returns the group keys in sorted order for deterministic iteration.
func Keys(groups map[string][]Entry) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
