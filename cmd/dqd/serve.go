package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rsvihladremio/dqd-sub002/internal/config"
	"github.com/rsvihladremio/dqd-sub002/internal/observability"
	"github.com/rsvihladremio/dqd-sub002/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve <kind=path[#member]>...",
	Short: "Build reports for every input and serve them over HTTP",
	Long: `Build one report per input at startup and serve them.

Each argument names the input kind and its location, for example
  top=top.txt  iostat=iostat.log.gz  queries=bundle.zip#queries.json

Routes: / lists reports, /reports/<name> serves one, /healthz reports
build progress and /metrics exposes Prometheus metrics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	d := config.Default()
	serveCmd.Flags().StringVar(&addr, "addr", d.Addr, "Address to listen on (use 0.0.0.0:port for containers)")
	serveCmd.Flags().StringVar(&authToken, "auth-token", "", "Secret token required to access the UI (can also be set via DQD_AUTH_TOKEN env var)")
	serveCmd.Flags().Float64Var(&rateLimit, "rate-limit", d.RateLimit, "Requests per second allowed per client IP")
	serveCmd.Flags().IntVar(&rateBurst, "rate-burst", d.RateBurst, "Burst size of the per-IP rate limit")
	addReportFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	sources := make([]server.Source, 0, len(args))
	for _, arg := range args {
		src, err := server.ParseSource(arg)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := pipelineOptions()
	opts.Recorder = observability.NewRecorder(reg)
	srv := server.New(logger, server.Options{
		AuthToken: cfg.AuthToken,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Pipeline:  opts,
		Gatherer:  reg,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Preload(ctx, sources); err != nil {
			logger.Warn("Some reports failed to build", "error", err)
		}
	}()
	return srv.ListenAndServe(ctx, cfg.Addr)
}
