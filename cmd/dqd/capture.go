package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rsvihladremio/dqd-sub002/internal/capture"
	"github.com/rsvihladremio/dqd-sub002/internal/config"
)

var captureOutput string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Sample this host and write top batch output that dqd top can read",
	Args:  cobra.NoArgs,
	RunE:  runCapture,
}

func init() {
	d := config.Default()
	captureCmd.Flags().DurationVar(&captureInterval, "interval", d.CaptureInterval, "Time between samples")
	captureCmd.Flags().IntVar(&captureIterations, "iterations", d.CaptureIterations, "Number of blocks to write, 0 runs until interrupted")
	captureCmd.Flags().IntVar(&captureProcesses, "processes", d.CaptureProcesses, "Busiest processes listed per block")
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var w io.Writer = cmd.OutOrStdout()
	if captureOutput != "" && captureOutput != "-" {
		f, err := os.Create(captureOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	logger.Info("Capturing", "interval", cfg.CaptureInterval, "iterations", cfg.CaptureIterations)
	return capture.Run(ctx, w, capture.Options{
		Interval:   cfg.CaptureInterval,
		Iterations: cfg.CaptureIterations,
		Processes:  cfg.CaptureProcesses,
	}, logger)
}
