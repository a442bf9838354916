// Package server serves built reports over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rsvihladremio/dqd-sub002/internal/human"
	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/pipeline"
	"github.com/rsvihladremio/dqd-sub002/internal/report"
)

//go:embed templates/*
var templates embed.FS

var indexTemplate = template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
	"bytes": func(b []byte) string { return human.Bytes(float64(len(b))).Text },
	"since": func(d time.Duration) string { return human.Duration(float64(d.Milliseconds())).Text },
}).ParseFS(templates, "templates/index.html.tmpl"))

type Options struct {
	AuthToken string
	RateLimit float64
	RateBurst int
	// Concurrency bounds parallel builds in Preload. Zero uses GOMAXPROCS.
	Concurrency int
	Pipeline    pipeline.Options
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	logger      *slog.Logger
	authToken   string
	pipeline    pipeline.Options
	concurrency int
	progress    *models.BuildProgress
	handler     http.Handler

	mu      sync.RWMutex
	reports map[string]*Report
	order   []string
}

func New(logger *slog.Logger, opts Options) *Server {
	s := &Server{
		logger:      logger,
		authToken:   opts.AuthToken,
		pipeline:    opts.Pipeline,
		concurrency: opts.Concurrency,
		progress:    models.NewBuildProgress(0),
		reports:     make(map[string]*Report),
	}
	if s.concurrency <= 0 {
		s.concurrency = runtime.GOMAXPROCS(0)
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 100
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 200
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), SecurityHeaders(),
		s.rateLimit(NewRateLimiter(opts.RateLimit, opts.RateBurst)), s.auth())

	r.GET("/", s.handleIndex)
	r.GET("/reports/:name", s.handleReport)
	r.GET("/healthz", s.handleHealth)
	// promhttp compression would double-encode under GzipMiddleware
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{DisableCompression: true})))
	r.StaticFS("/static", http.FS(report.StaticFS()))

	s.handler = GzipMiddleware(r)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(c *gin.Context) {
	percentage, status, finished := s.progress.Snapshot()
	data := struct {
		Reports    []*Report
		Percentage int
		Status     string
		Finished   bool
	}{s.Reports(), percentage, status, finished}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(c.Writer, data); err != nil {
		s.logger.Error("Failed to render index", "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

func (s *Server) handleReport(c *gin.Context) {
	r, ok := s.report(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if !r.OK() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": r.Err, "source": r.Source})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", r.HTML)
}

func (s *Server) handleHealth(c *gin.Context) {
	percentage, status, finished := s.progress.Snapshot()
	code := http.StatusOK
	if !finished {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"progress": percentage,
		"status":   status,
		"finished": finished,
		"reports":  len(s.Reports()),
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening on", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
