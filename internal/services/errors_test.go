package services_test

import (
	"errors"
	"strings"
	"testing"

	"icloudsort/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "tagging", "write tags", "exiftool failed", cause)

	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected error to match ErrExternalTool")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected error to wrap the cause")
	}
	for _, fragment := range []string{"tagging", "write tags", "exiftool failed", "boom"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing fragment %q", err.Error(), fragment)
		}
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := services.Wrap(nil, "placement", "", "", nil)
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatal("nil marker should default to ErrFilesystem")
	}
}

func TestIsFatal(t *testing.T) {
	fatal := services.Wrap(services.ErrConfiguration, "startup", "open output", "output root unwritable", nil)
	if !services.IsFatal(fatal) {
		t.Fatal("configuration errors are fatal")
	}
	perItem := services.Wrap(services.ErrExternalTool, "tagging", "", "", nil)
	if services.IsFatal(perItem) {
		t.Fatal("per-item errors must not be fatal")
	}
}

func TestIsConflict(t *testing.T) {
	err := services.Wrap(services.ErrConflict, "reconcile", "", "two records share a key", nil)
	if !services.IsConflict(err) {
		t.Fatal("expected conflict classification")
	}
}
