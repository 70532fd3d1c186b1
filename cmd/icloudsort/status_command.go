package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"icloudsort/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the environment without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := []preflight.Result{
				preflight.CheckOutputRoot("Log directory", cfg.Paths.LogDir),
			}
			for i, source := range sources {
				results = append(results, preflight.CheckSourceReadable(fmt.Sprintf("Source %d", i+1), source))
			}
			for _, status := range preflight.CheckBinaries([]preflight.Requirement{
				{Name: "ExifTool", Command: cfg.ExifToolBinary(), Description: "Required for metadata tagging"},
			}) {
				detail := status.Command
				if !status.Available {
					detail = status.Detail
				}
				results = append(results, preflight.Result{
					Name:   status.Name,
					Passed: status.Available,
					Detail: detail,
				})
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, passFail(out, result.Passed), result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows))

			if !preflight.AllPassed(results) {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "Source directory to check (repeatable)")
	return cmd
}
