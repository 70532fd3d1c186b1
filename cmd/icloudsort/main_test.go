package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"icloudsort/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := `
[paths]
log_dir = "` + filepath.Join(base, "logs") + `"

[exiftool]
binary = "sh"

[logging]
level = "error"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigNewCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	output, err := runCommand(t, "config", "new", "--path", target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("output missing target path: %s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatal("sample config not written")
	}

	if _, err := runCommand(t, "config", "new", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCommand(t, "config", "new", "--path", target, "--overwrite"); err != nil {
		t.Fatal(err)
	}
}

func TestOrganizeRequiresSource(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "organize", "--config", cfgPath); err == nil {
		t.Fatal("expected error without --source")
	}
}

func TestOrganizeDryRunWithoutOutput(t *testing.T) {
	cfgPath := writeTestConfig(t)
	source := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(source, "Photo Details.csv"),
		"imgName,originalCreationDate\nIMG_01.JPG,2024-06-01T10:00:00Z\n")
	testsupport.WriteFile(t, filepath.Join(source, "IMG_01.JPG"), "jpeg bytes")

	before := testsupport.TreeSnapshot(t, source)

	output, err := runCommand(t, "organize", "--config", cfgPath, "--source", source)
	if err != nil {
		t.Fatalf("dry run failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "dry run: yes") {
		t.Fatalf("missing output root must force a dry run: %s", output)
	}
	if !strings.Contains(output, "applied") {
		t.Fatalf("report table missing: %s", output)
	}

	after := testsupport.TreeSnapshot(t, source)
	if len(before) != len(after) {
		t.Fatal("dry run must not touch the source tree")
	}
	for name, content := range before {
		if after[name] != content {
			t.Fatalf("source file %s changed during dry run", name)
		}
	}
}

func TestOrganizeConflictExitsNonZero(t *testing.T) {
	cfgPath := writeTestConfig(t)
	source := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(source, "Photo Details.csv"),
		"imgName,originalCreationDate\nIMG_02.JPG,2024-06-01T10:00:00Z\nIMG_02.JPG,2024-07-15T18:00:00Z\n")
	testsupport.WriteFile(t, filepath.Join(source, "IMG_02.JPG"), "jpeg bytes")

	output, err := runCommand(t, "organize", "--config", cfgPath, "--source", source, "--dry-run")
	if err == nil {
		t.Fatalf("conflicted run must exit non-zero\n%s", output)
	}
	if !strings.Contains(err.Error(), "conflict") {
		t.Fatalf("error should mention conflicts: %v", err)
	}
}

func TestStatusCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	output, err := runCommand(t, "status", "--config", cfgPath)
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "ExifTool") {
		t.Fatalf("status output missing checks: %s", output)
	}
}
