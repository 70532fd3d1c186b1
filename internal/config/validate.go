package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCSV(); err != nil {
		return err
	}
	if err := c.validateExifTool(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCSV() error {
	if strings.TrimSpace(c.CSV.FilenameColumn) == "" {
		return errors.New("csv.filename_column must be set; it is the identifying column that joins rows to files")
	}
	return nil
}

func (c *Config) validateExifTool() error {
	if strings.TrimSpace(c.ExifTool.Binary) == "" {
		return errors.New("exiftool.binary must be set")
	}
	if c.ExifTool.TimeoutSeconds <= 0 {
		return errors.New("exiftool.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.Workers <= 0 {
		return errors.New("organize.workers must be positive")
	}
	if strings.TrimSpace(c.Organize.UnsortedDir) == "" {
		return errors.New("organize.unsorted_dir must be set")
	}
	if strings.Contains(c.Organize.UnsortedDir, "..") {
		return errors.New("organize.unsorted_dir must not escape the output root")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
