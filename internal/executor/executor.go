package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"icloudsort/internal/fileutil"
	"icloudsort/internal/ledger"
	"icloudsort/internal/logging"
	"icloudsort/internal/placement"
	"icloudsort/internal/reconcile"
	"icloudsort/internal/tagging"
)

// Options control a batch run.
type Options struct {
	// DryRun replaces every write with a logged no-op. Must match the
	// applier's own dry-run mode.
	DryRun bool
	// Workers bounds the number of items processed concurrently.
	Workers int
	// ValidateChecksums verifies matched source files against the
	// catalog's recorded checksum before placing them.
	ValidateChecksums bool
}

// Executor processes reconciliation decisions.
type Executor struct {
	applier *tagging.Applier
	planner *placement.Planner
	store   *ledger.Store
	runID   string
	opts    Options
	logger  *slog.Logger
}

// New builds an executor. store may be nil when no ledger is kept.
func New(applier *tagging.Applier, planner *placement.Planner, store *ledger.Store, runID string, opts Options, logger *slog.Logger) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Executor{
		applier: applier,
		planner: planner,
		store:   store,
		runID:   runID,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "executor"),
	}
}

// Run processes every decision and returns the aggregated report. Decisions
// are immutable inputs; workers never share per-item state. Cancelling ctx
// stops dispatching further items, but items already picked up run to
// completion and are still reported.
func (e *Executor) Run(ctx context.Context, decisions []reconcile.Decision) *Report {
	report := &Report{}
	jobs := make(chan reconcile.Decision)

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for decision := range jobs {
				item := e.process(ctx, decision)
				e.record(ctx, item)
				report.add(item)
			}
		}()
	}

dispatch:
	for _, decision := range decisions {
		if ctx.Err() != nil {
			e.logger.Warn("run cancelled, finishing in-flight items")
			break
		}
		select {
		case <-ctx.Done():
			e.logger.Warn("run cancelled, finishing in-flight items")
			break dispatch
		case jobs <- decision:
		}
	}
	close(jobs)
	wg.Wait()

	summary := report.Summary()
	e.logger.Info("batch complete",
		logging.Bool("dry_run", e.opts.DryRun),
		logging.Int("applied", summary.Applied),
		logging.Int("skipped_identical", summary.SkippedIdentical),
		logging.Int("skipped_conflict", summary.SkippedConflict),
		logging.Int("metadata_only", summary.MetadataOnly),
		logging.Int("failed", summary.Failed))
	return report
}

func (e *Executor) process(ctx context.Context, decision reconcile.Decision) ItemResult {
	switch decision.Outcome {
	case reconcile.OutcomeConflict:
		item := ItemResult{
			Key:    decision.Key,
			Status: StatusSkippedConflict,
			Detail: decision.Reason,
		}
		if len(decision.Entries) > 0 {
			item.Source = decision.Entries[0].Path
		}
		return item

	case reconcile.OutcomeMetadataOnly:
		return ItemResult{
			Key:    decision.Key,
			Status: StatusMetadataOnly,
			Detail: decision.Reason,
		}

	case reconcile.OutcomeMatched, reconcile.OutcomeFileOnly:
		return e.processFile(ctx, decision)

	default:
		return ItemResult{
			Key:    decision.Key,
			Status: StatusFailed,
			Detail: fmt.Sprintf("unhandled outcome %s", decision.Outcome),
		}
	}
}

func (e *Executor) processFile(ctx context.Context, decision reconcile.Decision) ItemResult {
	entry := decision.Entry
	item := ItemResult{Key: decision.Key, Source: entry.Path}

	if decision.Outcome == reconcile.OutcomeMatched && e.opts.ValidateChecksums &&
		decision.Record != nil && decision.Record.Checksum != "" {
		sum, err := fileutil.SHA1Base64(entry.Path)
		if err != nil {
			return failed(item, "checksum source file", err)
		}
		if sum != decision.Record.Checksum {
			item.Status = StatusFailed
			item.Detail = fmt.Sprintf("source checksum %s does not match recorded %s", sum, decision.Record.Checksum)
			return item
		}
	}

	plan, err := e.planner.Plan(decision)
	if err != nil {
		return failed(item, "plan destination", err)
	}
	item.Destination = plan.Destination

	switch plan.Action {
	case placement.ActionSkipIdentical:
		return e.retag(ctx, decision, plan, item)

	case placement.ActionSkipDifferent:
		if decision.Outcome == reconcile.OutcomeMatched && e.placedBefore(ctx, decision, plan) {
			// Tagging rewrote the destination's bytes on the run that
			// placed it, so the mismatch is ours, not foreign content.
			item.Status = StatusSkippedIdentical
			item.Detail = "destination placed and tagged by an earlier run"
			return item
		}
		item.Status = StatusSkippedConflict
		item.Detail = fmt.Sprintf("destination holds different content, free name: %s", plan.SuggestedName)
		return item

	case placement.ActionWrite:
		return e.write(ctx, decision, plan, item)

	default:
		item.Status = StatusFailed
		item.Detail = fmt.Sprintf("unhandled placement action %s", plan.Action)
		return item
	}
}

// retag handles a destination that still matches the source byte for byte.
// Embedding tags rewrites a file, so identical bytes mean the copy was placed
// but never tagged, either because the record carries nothing to embed or
// because an earlier tag write failed after the copy. The applier gets
// another pass; it no-ops when nothing is pending.
func (e *Executor) retag(ctx context.Context, decision reconcile.Decision, plan placement.Result, item ItemResult) ItemResult {
	item.Status = StatusSkippedIdentical
	if decision.Outcome != reconcile.OutcomeMatched || e.opts.DryRun {
		return item
	}
	set, err := e.applier.Apply(ctx, plan.Destination, decision.Record)
	if err != nil {
		return failed(item, "tag placed file", err)
	}
	if len(set.Tags) > 0 {
		item.Status = StatusApplied
	}
	return item
}

// placedBefore asks the ledger whether an earlier real run already placed
// this exact source at this destination.
func (e *Executor) placedBefore(ctx context.Context, decision reconcile.Decision, plan placement.Result) bool {
	if e.store == nil {
		return false
	}
	placed, err := e.store.WasPlaced(context.WithoutCancel(ctx), decision.Key, decision.Entry.Path, plan.Destination)
	if err != nil {
		e.logger.Warn("ledger lookup failed",
			logging.String("key", decision.Key),
			logging.Error(err))
		return false
	}
	return placed
}

func (e *Executor) write(ctx context.Context, decision reconcile.Decision, plan placement.Result, item ItemResult) ItemResult {
	entry := decision.Entry
	tagged := decision.Outcome == reconcile.OutcomeMatched

	if e.opts.DryRun {
		if tagged {
			// Still computes and logs the tag set that would be written.
			if _, err := e.applier.Apply(ctx, entry.Path, decision.Record); err != nil {
				return failed(item, "derive tag set", err)
			}
		}
		e.logger.Info("dry run, would place file",
			logging.String("source", entry.Path),
			logging.String("destination", plan.Destination))
		item.Status = StatusApplied
		return item
	}

	if err := fileutil.CopyVerified(entry.Path, plan.Destination); err != nil {
		return failed(item, "copy to destination", err)
	}

	if tagged {
		if _, err := e.applier.Apply(ctx, plan.Destination, decision.Record); err != nil {
			return failed(item, "tag placed file", err)
		}
	} else if err := preserveTimes(entry.Path, plan.Destination); err != nil {
		return failed(item, "preserve timestamps", err)
	}

	e.logger.Debug("file placed",
		logging.String("source", entry.Path),
		logging.String("destination", plan.Destination),
		logging.Bool("tagged", tagged))
	item.Status = StatusApplied
	return item
}

// preserveTimes carries the source's modification time onto the copy for
// items that have no metadata record to derive a timestamp from.
func preserveTimes(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func (e *Executor) record(ctx context.Context, item ItemResult) {
	if e.store == nil {
		return
	}
	detail := item.Detail
	if detail == "" && item.Err != nil {
		detail = item.Err.Error()
	}
	err := e.store.RecordItem(context.WithoutCancel(ctx), e.runID, ledger.Item{
		Key:         item.Key,
		SourcePath:  item.Source,
		Destination: item.Destination,
		Status:      item.Status.String(),
		Detail:      detail,
	})
	if err != nil {
		e.logger.Warn("ledger write failed",
			logging.String("key", item.Key),
			logging.Error(err))
	}
}

func failed(item ItemResult, operation string, err error) ItemResult {
	item.Status = StatusFailed
	item.Err = err
	item.Detail = fmt.Sprintf("%s: %v", operation, err)
	return item
}
