package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks a malformed CSV file or row.
	ErrParse = errors.New("parse error")
	// ErrConflict marks ambiguous metadata or a colliding destination that
	// requires operator disambiguation and is never auto-resolved.
	ErrConflict = errors.New("conflict")
	// ErrExternalTool marks a failed or timed-out tagging tool invocation.
	ErrExternalTool = errors.New("external tool error")
	// ErrFilesystem marks a per-item filesystem failure (permissions, disk full).
	ErrFilesystem = errors.New("filesystem error")
	// ErrConfiguration marks a startup-level failure that aborts the run
	// before any item is processed.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a reference to a file that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an operation that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later outcome classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the run before item processing.
// Only configuration-level failures qualify; every other error is collected
// into the run report and processing continues.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConflict reports whether an error represents an ambiguity the operator
// must resolve rather than an operational failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
