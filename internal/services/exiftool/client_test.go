package exiftool

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeExecutor struct {
	lastBinary string
	lastArgs   []string
	output     []byte
	err        error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	f.lastBinary = binary
	f.lastArgs = append([]string(nil), args...)
	return f.output, f.err
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  ", 30); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestReadTags(t *testing.T) {
	fake := &fakeExecutor{output: []byte(`[{"SourceFile":"/p/a.jpg","DateTimeOriginal":"2024:06:01 10:00:00","Rating":5}]`)}
	client, err := New("exiftool", 30, WithExecutor(fake))
	if err != nil {
		t.Fatal(err)
	}

	tags, err := client.ReadTags(context.Background(), "/p/a.jpg", []string{"DateTimeOriginal", "Rating"})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{"DateTimeOriginal": "2024:06:01 10:00:00", "Rating": "5"}
	if !reflect.DeepEqual(tags, want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}

	wantArgs := []string{"-j", "-n", "-DateTimeOriginal", "-Rating", "--", "/p/a.jpg"}
	if !reflect.DeepEqual(fake.lastArgs, wantArgs) {
		t.Fatalf("args = %v, want %v", fake.lastArgs, wantArgs)
	}
}

func TestReadTagsEmptyResult(t *testing.T) {
	fake := &fakeExecutor{output: []byte(`[]`)}
	client, _ := New("exiftool", 0, WithExecutor(fake))

	tags, err := client.ReadTags(context.Background(), "/p/a.jpg", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Fatalf("expected empty tag map, got %v", tags)
	}
}

func TestWriteTagsDeterministicOrder(t *testing.T) {
	fake := &fakeExecutor{}
	client, _ := New("exiftool", 30, WithExecutor(fake))

	tags := map[string]string{
		"GPSLatitude":      "51.5",
		"DateTimeOriginal": "2024:06:01 10:00:00",
	}
	if err := client.WriteTags(context.Background(), "/p/a.jpg", tags); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"-overwrite_original", "-P",
		"-DateTimeOriginal=2024:06:01 10:00:00",
		"-GPSLatitude=51.5",
		"--", "/p/a.jpg",
	}
	if !reflect.DeepEqual(fake.lastArgs, want) {
		t.Fatalf("args = %v, want %v", fake.lastArgs, want)
	}
}

func TestWriteTagsEmptySetIsNoop(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("should not run")}
	client, _ := New("exiftool", 30, WithExecutor(fake))

	if err := client.WriteTags(context.Background(), "/p/a.jpg", nil); err != nil {
		t.Fatal(err)
	}
	if fake.lastBinary != "" {
		t.Fatal("executor must not run for an empty tag set")
	}
}

func TestWriteTagsPropagatesFailure(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("unsupported format")}
	client, _ := New("exiftool", 30, WithExecutor(fake))

	err := client.WriteTags(context.Background(), "/p/a.bin", map[string]string{"Rating": "5"})
	if err == nil {
		t.Fatal("expected error from executor")
	}
}
