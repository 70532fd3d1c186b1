package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"icloudsort/internal/ledger"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the outcome of a recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			var run *ledger.Run
			if id := strings.TrimSpace(runID); id != "" {
				run, err = store.GetRun(cmd.Context(), id)
			} else {
				run, err = store.LatestRun(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("load run: %w", err)
			}

			items, err := store.ListItems(cmd.Context(), run.ID)
			if err != nil {
				return fmt.Errorf("load run items: %w", err)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, reportOutput(run, items))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC1123))
			if run.Finished() {
				fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Local().Format(time.RFC1123))
			} else {
				fmt.Fprintln(out, "Finished: still running or aborted")
			}
			fmt.Fprintf(out, "Output:   %s\n", run.OutputRoot)
			fmt.Fprintf(out, "Dry run:  %s\n", yesNo(run.DryRun))

			summary := run.Summary
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

			if len(items) > 0 {
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{item.Key, item.Status, item.Destination, item.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Item", "Status", "Destination", "Detail"}, rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID to report on (defaults to the latest run)")
	return cmd
}

type reportRunOutput struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	DryRun     bool             `json:"dry_run"`
	OutputRoot string           `json:"output_root"`
	Summary    summaryOutput    `json:"summary"`
	Items      []ledgerItemJSON `json:"items"`
}

type ledgerItemJSON struct {
	Key         string `json:"key"`
	Status      string `json:"status"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

func reportOutput(run *ledger.Run, items []ledger.Item) reportRunOutput {
	output := reportRunOutput{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		DryRun:     run.DryRun,
		OutputRoot: run.OutputRoot,
		Summary:    newSummaryOutput(run.Summary),
	}
	if run.Finished() {
		finished := run.FinishedAt
		output.FinishedAt = &finished
	}
	for _, item := range items {
		output.Items = append(output.Items, ledgerItemJSON{
			Key:         item.Key,
			Status:      item.Status,
			Source:      item.SourcePath,
			Destination: item.Destination,
			Detail:      item.Detail,
		})
	}
	return output
}
