package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"icloudsort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given run shape. sources
// must be non-empty; outputRoot may be empty for a dry run with no output.
func RunAll(cfg *config.Config, sources []string, outputRoot string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for i, source := range sources {
		results = append(results, CheckSourceReadable(fmt.Sprintf("Source %d", i+1), source))
	}
	if outputRoot != "" {
		results = append(results, CheckOutputRoot("Output root", outputRoot))
	}

	for _, status := range CheckBinaries([]Requirement{
		{
			Name:        "ExifTool",
			Command:     cfg.ExifToolBinary(),
			Description: "Required for metadata tagging",
		},
	}) {
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available,
			Detail: binaryDetail(status),
		})
	}
	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckSourceReadable verifies that a source root exists and can be walked.
func CheckSourceReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckOutputRoot verifies that the output root is writable, or that its
// parent is when the root does not exist yet (the run creates it).
func CheckOutputRoot(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		parent := filepath.Dir(path)
		if accessErr := unix.Access(parent, unix.W_OK|unix.X_OK); accessErr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent not writable: %v)", path, accessErr)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	case !info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func binaryDetail(status BinaryStatus) string {
	if status.Available {
		return status.Command
	}
	return status.Detail
}
