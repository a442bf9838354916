package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsvihladremio/dqd-sub002/internal/catalog"
	"github.com/rsvihladremio/dqd-sub002/internal/input"
	"github.com/rsvihladremio/dqd-sub002/internal/pipeline"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
)

var (
	reportOutput string
	reportMember string
)

var reportCmds = []*cobra.Command{
	{
		Use:   "top <input>",
		Short: "Report CPU usage and the busiest threads from a top batch capture",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport(pipeline.KindTop),
	},
	{
		Use:   "iostat <input>",
		Short: "Report disk queue size, utilization and iowait from an iostat dump",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport(pipeline.KindIostat),
	},
	{
		Use:   "queries <input>",
		Short: "Report failures, slow queries and queue usage from queries.json",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport(pipeline.KindQueries),
	},
}

func init() {
	for _, cmd := range reportCmds {
		cmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to this file instead of stdout")
		cmd.Flags().StringVar(&reportMember, "member", "", "Archive entry to read when the input is a .zip or .tar.gz")
		addReportFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

func pipelineOptions() pipeline.Options {
	opts := pipeline.Options{TopK: cfg.TopK, Title: cfg.Title}
	if cfg.Catalog {
		opts.Applier = catalog.DryRunApplier{Logger: logger}
	}
	return opts
}

func runReport(kind pipeline.Kind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		in, err := input.Open(cmd.Context(), args[0], reportMember)
		if err != nil {
			return err
		}
		defer in.Close()

		doc, err := pipeline.Build(cmd.Context(), kind, in, pipelineOptions())
		var warning *pipeline.EmptyInputWarning
		switch {
		case errors.As(err, &warning):
			logger.Warn("Input is empty, writing a report without data", "kind", kind, "input", in.Name)
		case err != nil:
			return err
		}

		if reportOutput == "" || reportOutput == input.Stdin {
			return report.Render(cmd.OutOrStdout(), doc)
		}
		f, err := os.Create(reportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		if err := report.Render(f, doc); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logger.Info("Wrote report", "kind", kind, "input", in.Name, "output", reportOutput, "sections", len(doc.Sections))
		return nil
	}
}
