package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rsvihladremio/dqd-sub002/internal/config"
)

// Flag values shared by several commands. Only flags the user set override
// the loaded configuration.
var (
	topK              int
	title             string
	withCatalog       bool
	addr              string
	authToken         string
	rateLimit         float64
	rateBurst         int
	captureInterval   time.Duration
	captureIterations int
	captureProcesses  int
)

func addReportFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().IntVar(&topK, "top-k", d.TopK, "Rows kept in each ranked table and chart")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().BoolVar(&withCatalog, "catalog", false, "Derive catalog entities from query parents and add a dry-run apply summary")
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}
	set("top-k", func() { c.TopK = topK })
	set("title", func() { c.Title = title })
	set("catalog", func() { c.Catalog = withCatalog })
	set("addr", func() { c.Addr = addr })
	set("auth-token", func() { c.AuthToken = authToken })
	set("rate-limit", func() { c.RateLimit = rateLimit })
	set("rate-burst", func() { c.RateBurst = rateBurst })
	set("interval", func() { c.CaptureInterval = captureInterval })
	set("iterations", func() { c.CaptureIterations = captureIterations })
	set("processes", func() { c.CaptureProcesses = captureProcesses })
}
