package mediakey

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var duplicateSuffix = regexp.MustCompile(`\s?\((\d+)\)$`)

var fold = cases.Fold()

// Normalize reduces a filename reference to its logical key and reports the
// duplicate-sequence number carried by the name (0 when absent).
//
// Path separators are stripped, the "(N)" marker before the extension is
// removed, and the result is Unicode case-folded so "IMG_01(1).JPG" and
// "img_01.jpg" share a key.
func Normalize(name string) (string, int) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	seq := 0
	if match := duplicateSuffix.FindStringSubmatch(stem); match != nil {
		if parsed, err := strconv.Atoi(match[1]); err == nil {
			seq = parsed
		}
		stem = strings.TrimSuffix(stem, match[0])
	}

	return fold.String(stem + ext), seq
}

// Key returns only the logical key for a filename reference.
func Key(name string) string {
	key, _ := Normalize(name)
	return key
}

// Disambiguate builds a destination filename carrying an explicit sequence
// suffix, e.g. ("IMG_01.JPG", 2) -> "IMG_01(2).JPG". A sequence of zero
// returns the name unchanged.
func Disambiguate(name string, seq int) string {
	if seq <= 0 {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if match := duplicateSuffix.FindStringSubmatch(stem); match != nil {
		stem = strings.TrimSuffix(stem, match[0])
	}
	return stem + "(" + strconv.Itoa(seq) + ")" + ext
}
