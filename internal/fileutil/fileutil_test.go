package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "nested", "dst.bin")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyVerified(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestSHA1Base64(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := SHA1Base64(path)
	if err != nil {
		t.Fatal(err)
	}
	// sha1("hello world") = 2aae6c35c94fcfb415dbe95f408b9ce91ee846ed
	const want = "Kq5sNclPz7QV2+lfQIuc6R7oRu0="
	if got != want {
		t.Fatalf("SHA1Base64 = %q, want %q", got, want)
	}
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")

	if err := os.WriteFile(a, []byte("same bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c, []byte("diff bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if same, err := SameContent(a, b); err != nil || !same {
		t.Fatalf("expected identical content, got same=%v err=%v", same, err)
	}
	if same, err := SameContent(a, c); err != nil || same {
		t.Fatalf("expected differing content, got same=%v err=%v", same, err)
	}
}
