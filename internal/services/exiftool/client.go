package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Tagger defines the behaviour required by the metadata applier.
type Tagger interface {
	ReadTags(ctx context.Context, path string, names []string) (map[string]string, error)
	WriteTags(ctx context.Context, path string, tags map[string]string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps exiftool CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs an exiftool client. timeoutSeconds bounds each invocation;
// zero disables the bound.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ReadTags returns the current values of the named tags on path. Tags absent
// from the file are omitted from the result.
func (c *Client) ReadTags(ctx context.Context, path string, names []string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("exiftool read: empty path")
	}

	args := []string{"-j", "-n"}
	for _, name := range names {
		args = append(args, "-"+name)
	}
	args = append(args, "--", path)

	output, err := c.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("exiftool read: %w", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(output, &decoded); err != nil {
		return nil, fmt.Errorf("exiftool parse: %w", err)
	}
	if len(decoded) == 0 {
		return map[string]string{}, nil
	}

	tags := make(map[string]string, len(decoded[0]))
	for key, value := range decoded[0] {
		if key == "SourceFile" {
			continue
		}
		tags[key] = fmt.Sprint(value)
	}
	return tags, nil
}

// WriteTags applies the given tag values to path in a single invocation.
// Tag order is sorted so the command line is deterministic.
func (c *Client) WriteTags(ctx context.Context, path string, tags map[string]string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("exiftool write: empty path")
	}
	if len(tags) == 0 {
		return nil
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	args := []string{"-overwrite_original", "-P"}
	for _, name := range names {
		args = append(args, fmt.Sprintf("-%s=%s", name, tags[name]))
	}
	args = append(args, "--", path)

	if _, err := c.run(ctx, args); err != nil {
		return fmt.Errorf("exiftool write: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	output, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("timed out after %s: %w", c.timeout, err)
	}
	return output, err
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
