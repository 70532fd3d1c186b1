package testsupport

import (
	"path/filepath"
	"testing"

	"icloudsort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.ExifTool.Binary = "exiftool"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithExifToolBinary overrides the tagging binary on the test config.
func WithExifToolBinary(binary string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ExifTool.Binary = binary
	}
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Organize.Workers = workers
	}
}
