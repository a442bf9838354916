package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsvihladremio/dqd-sub002/internal/config"
	"github.com/rsvihladremio/dqd-sub002/internal/parser"
	"github.com/rsvihladremio/dqd-sub002/internal/version"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "dqd",
	Short: "Turn diagnostic dumps into self-contained HTML reports",
	Long: `dqd parses top batch captures, iostat dumps and queries.json traces and
renders each one as a single HTML page with sortable tables and charts.

Examples:
  dqd top top.txt -o top.html
  dqd queries queries.json.gz --top-k 50 > queries.html
  dqd serve top=top.txt queries=bundle.zip#queries.json
  dqd capture --interval 2s --iterations 30 -o top.txt`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("DQD_CONFIG"), "YAML config file (can also be set via DQD_CONFIG env var)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

// setup resolves configuration in order defaults, file, environment, flags
// and builds the process logger on stderr.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		loaded.LogFormat = logFormat
	}
	applyFlags(cmd, &loaded)
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := loaded.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	slog.SetDefault(l)
	version.Current = Version
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var malformed *parser.MalformedRecordError
		if errors.As(err, &malformed) {
			logger.Error("Malformed input", "format", malformed.Parser, "line", malformed.LineNumber,
				"text", malformed.Line, "error", malformed.Err)
		} else {
			logger.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}
