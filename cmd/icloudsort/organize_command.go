package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"icloudsort/internal/catalog"
	"icloudsort/internal/config"
	"icloudsort/internal/executor"
	"icloudsort/internal/inventory"
	"icloudsort/internal/ledger"
	"icloudsort/internal/logging"
	"icloudsort/internal/placement"
	"icloudsort/internal/preflight"
	"icloudsort/internal/reconcile"
	"icloudsort/internal/services"
	"icloudsort/internal/services/exiftool"
	"icloudsort/internal/tagging"
)

const lockFileName = ".icloudsort.lock"

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		sources           []string
		output            string
		include           []string
		exclude           []string
		dryRun            bool
		validateChecksums bool
		skipShared        bool
		workers           int
	)

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Reconcile export sources into the output library",
		Long: "Organize loads the export's CSV metadata, scans the source directories for\n" +
			"media files, matches the two, then tags and places each file under the\n" +
			"output root. Without --output the run is forced into dry-run mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			if len(sources) == 0 {
				return errors.New("at least one --source is required")
			}
			expandedSources := make([]string, 0, len(sources))
			for _, source := range sources {
				expanded, err := config.ExpandPath(source)
				if err != nil {
					return fmt.Errorf("resolve source %q: %w", source, err)
				}
				expandedSources = append(expandedSources, expanded)
			}

			outputRoot := strings.TrimSpace(output)
			if outputRoot == "" {
				if !dryRun {
					logger.Info("no output root given, forcing dry run")
				}
				dryRun = true
			} else {
				if outputRoot, err = config.ExpandPath(outputRoot); err != nil {
					return fmt.Errorf("resolve output root: %w", err)
				}
			}

			filter := inventory.Filter{Include: include, Exclude: exclude}
			if err := filter.Validate(); err != nil {
				return err
			}

			checks := preflight.RunAll(cfg, expandedSources, outputRoot)
			if !preflight.AllPassed(checks) {
				for _, check := range checks {
					if !check.Passed {
						fmt.Fprintf(cmd.ErrOrStderr(), "preflight: %s: %s\n", check.Name, check.Detail)
					}
				}
				return errors.New("preflight checks failed")
			}

			if !dryRun {
				if err := os.MkdirAll(outputRoot, 0o755); err != nil {
					return fmt.Errorf("create output root: %w", err)
				}
				lock := flock.New(filepath.Join(outputRoot, lockFileName))
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire output lock: %w", err)
				}
				if !locked {
					return fmt.Errorf("another run is already writing to %s", outputRoot)
				}
				defer func() { _ = lock.Unlock() }()
			}

			runID := uuid.NewString()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger = logger.With(logging.String(logging.FieldRunID, runID))

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				logger.Warn("ledger unavailable, run will not be recorded", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
				if err := store.BeginRun(runCtx, runID, outputRoot, dryRun); err != nil {
					logger.Warn("ledger write failed", logging.Error(err))
					store = nil
				}
			}

			loader := catalog.NewLoader(cfg.CSV, catalog.Options{SkipShared: skipShared}, logger)
			loaded, err := loader.Load(expandedSources)
			if err != nil {
				return fmt.Errorf("load metadata: %w", err)
			}

			scanner := inventory.NewScanner(filter, logger)
			groups, err := scanner.Scan(expandedSources)
			if err != nil {
				return fmt.Errorf("scan sources: %w", err)
			}

			decisions := reconcile.Build(loaded.Records, groups)

			tagger, err := exiftool.New(cfg.ExifToolBinary(), cfg.ExifTool.TimeoutSeconds)
			if err != nil {
				return fmt.Errorf("tagging tool: %w", err)
			}
			if workers <= 0 {
				workers = cfg.Organize.Workers
			}

			applier := tagging.NewApplier(tagger, dryRun, logger)
			planner := placement.NewPlanner(outputRoot, cfg.Organize.UnsortedDir)
			exec := executor.New(applier, planner, store, runID, executor.Options{
				DryRun:            dryRun,
				Workers:           workers,
				ValidateChecksums: validateChecksums,
			}, logger)

			report := exec.Run(runCtx, decisions)
			if store != nil {
				if err := store.FinishRun(runCtx, runID, report.Summary()); err != nil {
					logger.Warn("ledger write failed", logging.Error(err))
				}
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, organizeOutput(runID, dryRun, loaded, report)); err != nil {
					return err
				}
			} else {
				renderRunReport(cmd, runID, dryRun, loaded, report)
			}

			summary := report.Summary()
			problems := summary.SkippedConflict + summary.Failed + len(loaded.FileErrors)
			if problems > 0 {
				return fmt.Errorf("run finished with %d conflicts, %d failures, %d unreadable metadata files",
					summary.SkippedConflict, summary.Failed, len(loaded.FileErrors))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "Source directory to scan (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output library root (omit for a dry run)")
	cmd.Flags().StringArrayVar(&include, "include", nil, "Only process filenames matching this glob (repeatable)")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Skip filenames matching this glob (repeatable)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report actions without writing anything")
	cmd.Flags().BoolVar(&validateChecksums, "validate-checksums", false, "Verify matched files against the export's recorded checksums")
	cmd.Flags().BoolVar(&skipShared, "skip-shared", false, "Skip items contributed by other shared-library members")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent items (0 uses the configured value)")

	return cmd
}

func renderRunReport(cmd *cobra.Command, runID string, dryRun bool, loaded *catalog.Result, report *executor.Report) {
	out := cmd.OutOrStdout()
	summary := report.Summary()

	fmt.Fprintf(out, "Run %s (dry run: %s)\n", runID, yesNo(dryRun))
	fmt.Fprintf(out, "Catalog: %d keys, %d rows skipped, %d deleted, %d shared, %d unreadable files\n",
		len(loaded.Records), loaded.SkippedRows, loaded.DeletedRows, loaded.SharedRows, len(loaded.FileErrors))

	fmt.Fprintln(out, renderTable(
		[]string{"Outcome", "Count"},
		[][]string{
			{"applied", fmt.Sprintf("%d", summary.Applied)},
			{"skipped-identical", fmt.Sprintf("%d", summary.SkippedIdentical)},
			{"skipped-conflict", fmt.Sprintf("%d", summary.SkippedConflict)},
			{"metadata-only", fmt.Sprintf("%d", summary.MetadataOnly)},
			{"failed", fmt.Sprintf("%d", summary.Failed)},
		},
		2,
	))

	var problemRows [][]string
	for _, item := range report.Items() {
		if item.Status != executor.StatusSkippedConflict && item.Status != executor.StatusFailed {
			continue
		}
		problemRows = append(problemRows, []string{item.Key, item.Status.String(), item.Detail})
	}
	for _, fileErr := range loaded.FileErrors {
		problemRows = append(problemRows, []string{filepath.Base(fileErr.Path), "unreadable", fileErr.Err.Error()})
	}
	if len(problemRows) > 0 {
		fmt.Fprintln(out, "Needs attention:")
		fmt.Fprintln(out, renderTable([]string{"Item", "Status", "Detail"}, problemRows))
	}
}

type runOutput struct {
	RunID   string          `json:"run_id"`
	DryRun  bool            `json:"dry_run"`
	Catalog catalogOutput   `json:"catalog"`
	Summary summaryOutput   `json:"summary"`
	Items   []runItemOutput `json:"items"`
}

type summaryOutput struct {
	Applied          int `json:"applied"`
	SkippedIdentical int `json:"skipped_identical"`
	SkippedConflict  int `json:"skipped_conflict"`
	MetadataOnly     int `json:"metadata_only"`
	Failed           int `json:"failed"`
}

func newSummaryOutput(summary ledger.Summary) summaryOutput {
	return summaryOutput{
		Applied:          summary.Applied,
		SkippedIdentical: summary.SkippedIdentical,
		SkippedConflict:  summary.SkippedConflict,
		MetadataOnly:     summary.MetadataOnly,
		Failed:           summary.Failed,
	}
}

type catalogOutput struct {
	Keys            int `json:"keys"`
	SkippedRows     int `json:"skipped_rows"`
	DeletedRows     int `json:"deleted_rows"`
	SharedRows      int `json:"shared_rows"`
	UnreadableFiles int `json:"unreadable_files"`
}

type runItemOutput struct {
	Key         string `json:"key"`
	Status      string `json:"status"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

func organizeOutput(runID string, dryRun bool, loaded *catalog.Result, report *executor.Report) runOutput {
	output := runOutput{
		RunID:  runID,
		DryRun: dryRun,
		Catalog: catalogOutput{
			Keys:            len(loaded.Records),
			SkippedRows:     loaded.SkippedRows,
			DeletedRows:     loaded.DeletedRows,
			SharedRows:      loaded.SharedRows,
			UnreadableFiles: len(loaded.FileErrors),
		},
		Summary: newSummaryOutput(report.Summary()),
	}
	for _, item := range report.Items() {
		output.Items = append(output.Items, runItemOutput{
			Key:         item.Key,
			Status:      item.Status.String(),
			Source:      item.Source,
			Destination: item.Destination,
			Detail:      item.Detail,
		})
	}
	return output
}
