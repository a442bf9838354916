package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsvihladremio/dqd-sub002/internal/version"
)

var checkUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "dqd version %s\n", Version)
		if !checkUpdate {
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		latest, err := version.CheckUpdate(ctx, nil)
		if err != nil {
			logger.Debug("Failed to check for updates", "error", err)
			return nil
		}
		if latest.TagName != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "a newer version is available: %s %s\n", latest.TagName, latest.HTMLURL)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&checkUpdate, "check", false, "Check whether a newer release is published")
	rootCmd.AddCommand(versionCmd)
}
