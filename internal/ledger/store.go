package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; an old ledger database must be deleted after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNoRuns indicates the ledger holds no finished or in-progress runs yet.
var ErrNoRuns = errors.New("no runs recorded")

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	OutputRoot string
	Summary    Summary
}

// Finished reports whether the run recorded its final summary.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Summary tallies item outcomes for one run.
type Summary struct {
	Applied          int
	SkippedIdentical int
	SkippedConflict  int
	MetadataOnly     int
	Failed           int
}

// Total returns the number of items the run handled.
func (s Summary) Total() int {
	return s.Applied + s.SkippedIdentical + s.SkippedConflict + s.MetadataOnly + s.Failed
}

// Item is one per-file outcome row.
type Item struct {
	Key         string
	SourcePath  string
	Destination string
	Status      string
	Detail      string
	RecordedAt  time.Time
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, id, outputRoot string, dryRun bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithoutResultRetry(ctx,
		"INSERT INTO runs (id, started_at, dry_run, output_root) VALUES (?, ?, ?, ?)",
		id, now, boolToInt(dryRun), outputRoot)
}

// FinishRun stores the final summary and finish time for a run.
func (s *Store) FinishRun(ctx context.Context, id string, summary Summary) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithoutResultRetry(ctx,
		`UPDATE runs SET finished_at = ?, applied = ?, skipped_identical = ?,
		    skipped_conflict = ?, metadata_only = ?, failed = ? WHERE id = ?`,
		now, summary.Applied, summary.SkippedIdentical, summary.SkippedConflict,
		summary.MetadataOnly, summary.Failed, id)
}

// RecordItem appends one per-file outcome to a run.
func (s *Store) RecordItem(ctx context.Context, runID string, item Item) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithoutResultRetry(ctx,
		`INSERT INTO run_items (run_id, item_key, source_path, destination, status, detail, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, item.Key, nullableString(item.SourcePath), nullableString(item.Destination),
		item.Status, nullableString(item.Detail), now)
}

// WasPlaced reports whether any earlier non-dry run recorded a successful
// placement of source at destination for key. The executor uses this to tell
// a destination the tagging stage rewrote apart from genuinely foreign
// content.
func (s *Store) WasPlaced(ctx context.Context, key, source, destination string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM run_items
		 JOIN runs ON runs.id = run_items.run_id
		 WHERE runs.dry_run = 0
		   AND run_items.item_key = ?
		   AND run_items.source_path = ?
		   AND run_items.destination = ?
		   AND run_items.status = 'applied'`,
		key, source, destination).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query placements: %w", err)
	}
	return count > 0, nil
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, dry_run, output_root,
		    applied, skipped_identical, skipped_conflict, metadata_only, failed
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun loads the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, dry_run, output_root,
		    applied, skipped_identical, skipped_conflict, metadata_only, failed
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	return run, err
}

// ListItems returns a run's per-file rows in recorded order.
func (s *Store) ListItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_key, source_path, destination, status, detail, recorded_at
		 FROM run_items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item        Item
			source      sql.NullString
			destination sql.NullString
			detail      sql.NullString
			recorded    string
		)
		if err := rows.Scan(&item.Key, &source, &destination, &item.Status, &detail, &recorded); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.SourcePath = source.String
		item.Destination = destination.String
		item.Detail = detail.String
		item.RecordedAt = parseTime(recorded)
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanRun(row *sql.Row) (*Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
		dryRun   int
	)
	err := row.Scan(&run.ID, &started, &finished, &dryRun, &run.OutputRoot,
		&run.Summary.Applied, &run.Summary.SkippedIdentical, &run.Summary.SkippedConflict,
		&run.Summary.MetadataOnly, &run.Summary.Failed)
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	run.DryRun = dryRun != 0
	return &run, nil
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
