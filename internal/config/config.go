// Package config resolves settings from defaults, an optional YAML file and
// DQD_* environment variables, in that order. Command-line flags are applied
// last by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "DQD_"

type Config struct {
	TopK      int    `yaml:"top_k"`
	Title     string `yaml:"title"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Addr      string  `yaml:"addr"`
	AuthToken string  `yaml:"auth_token"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	Catalog bool `yaml:"catalog"`

	CaptureInterval   time.Duration `yaml:"capture_interval"`
	CaptureIterations int           `yaml:"capture_iterations"`
	CaptureProcesses  int           `yaml:"capture_processes"`
}

func Default() Config {
	return Config{
		TopK:              20,
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              "127.0.0.1:7575",
		RateLimit:         100,
		RateBurst:         200,
		CaptureInterval:   5 * time.Second,
		CaptureIterations: 12,
		CaptureProcesses:  40,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays DQD_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("TITLE", &c.Title)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("ADDR", &c.Addr)
	str("AUTH_TOKEN", &c.AuthToken)

	ints := []struct {
		key string
		dst *int
	}{
		{"TOP_K", &c.TopK},
		{"RATE_BURST", &c.RateBurst},
		{"CAPTURE_ITERATIONS", &c.CaptureIterations},
		{"CAPTURE_PROCESSES", &c.CaptureProcesses},
	}
	for _, e := range ints {
		if v, ok := lookup(envPrefix + e.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, e.key, err)
			}
			*e.dst = n
		}
	}

	if v, ok := lookup(envPrefix + "RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT: %w", envPrefix, err)
		}
		c.RateLimit = f
	}
	if v, ok := lookup(envPrefix + "CATALOG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCATALOG: %w", envPrefix, err)
		}
		c.Catalog = b
	}
	if v, ok := lookup(envPrefix + "CAPTURE_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sCAPTURE_INTERVAL: %w", envPrefix, err)
		}
		c.CaptureInterval = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.TopK)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate_limit and rate_burst must be positive")
	}
	if c.CaptureInterval <= 0 {
		return fmt.Errorf("capture_interval must be positive, got %s", c.CaptureInterval)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds the process logger described by the config.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
