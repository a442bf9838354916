package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dqd.yaml")
	data := "top_k: 5\ntitle: Nightly\ncapture_interval: 2s\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TopK != 5 || cfg.Title != "Nightly" || cfg.CaptureInterval != 2*time.Second || cfg.LogFormat != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RateBurst != Default().RateBurst {
		t.Errorf("unset field lost its default: %d", cfg.RateBurst)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dqd.yaml")
	if err := os.WriteFile(path, []byte("topk: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"DQD_TOP_K":            "3",
		"DQD_AUTH_TOKEN":       "secret",
		"DQD_RATE_LIMIT":       "2.5",
		"DQD_CATALOG":          "true",
		"DQD_CAPTURE_INTERVAL": "250ms",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if cfg.TopK != 3 || cfg.AuthToken != "secret" || cfg.RateLimit != 2.5 || !cfg.Catalog || cfg.CaptureInterval != 250*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}

	bad := Default()
	if err := bad.ApplyEnv(env(map[string]string{"DQD_TOP_K": "many"})); err == nil {
		t.Error("expected error for non-numeric DQD_TOP_K")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero top k", func(c *Config) { c.TopK = 0 }, false},
		{"negative top k", func(c *Config) { c.TopK = -1 }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"debug level", func(c *Config) { c.LogLevel = "debug" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "kind", "top")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("log output = %q", out)
	}
}
