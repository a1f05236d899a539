package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envVars = []string{
	"RATING_SURVEY_PATH", "RATING_ROW_TOLERANCE", "RATING_PARALLELISM",
	"RATING_LOG_LEVEL", "RATING_LOG_FORMAT", "RATING_METRICS_TEXTFILE", "RATING_EVENTS_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Survey.Path != "" {
		t.Errorf("expected empty survey path, got %q", cfg.Survey.Path)
	}
	if cfg.Scoring.RowWeightTolerance != 0.01 {
		t.Errorf("expected row tolerance 0.01, got %g", cfg.Scoring.RowWeightTolerance)
	}
	if cfg.Batch.Parallelism != 4 {
		t.Errorf("expected parallelism 4, got %d", cfg.Batch.Parallelism)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.Metrics.TextfilePath != "" {
		t.Errorf("expected no metrics textfile, got %q", cfg.Metrics.TextfilePath)
	}
	if cfg.Events.URL != "" {
		t.Errorf("expected events disabled, got %q", cfg.Events.URL)
	}
	if cfg.Events.SubjectPrefix != "rating" {
		t.Errorf("expected subject prefix 'rating', got %q", cfg.Events.SubjectPrefix)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	doc := `
survey:
  path: /etc/rating/survey.yaml
scoring:
  row_weight_tolerance: 0.005
batch:
  parallelism: 8
logging:
  level: debug
  format: text
events:
  url: nats://nats:4222
`
	path := filepath.Join(t.TempDir(), "rating.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Survey.Path != "/etc/rating/survey.yaml" {
		t.Errorf("expected survey path from file, got %q", cfg.Survey.Path)
	}
	if cfg.Scoring.RowWeightTolerance != 0.005 {
		t.Errorf("expected row tolerance 0.005, got %g", cfg.Scoring.RowWeightTolerance)
	}
	if cfg.Batch.Parallelism != 8 {
		t.Errorf("expected parallelism 8, got %d", cfg.Batch.Parallelism)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Logging.Format)
	}
	if cfg.Events.URL != "nats://nats:4222" {
		t.Errorf("expected events url, got %q", cfg.Events.URL)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Events.SubjectPrefix != "rating" {
		t.Errorf("expected default subject prefix, got %q", cfg.Events.SubjectPrefix)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RATING_SURVEY_PATH", "/tmp/survey.yaml")
	t.Setenv("RATING_ROW_TOLERANCE", "0.02")
	t.Setenv("RATING_PARALLELISM", "2")
	t.Setenv("RATING_LOG_LEVEL", "debug")
	t.Setenv("RATING_LOG_FORMAT", "text")
	t.Setenv("RATING_METRICS_TEXTFILE", "/var/lib/node_exporter/rating.prom")
	t.Setenv("RATING_EVENTS_URL", "nats://nats:4222")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Survey.Path != "/tmp/survey.yaml" {
		t.Errorf("expected survey path, got %q", cfg.Survey.Path)
	}
	if cfg.Scoring.RowWeightTolerance != 0.02 {
		t.Errorf("expected row tolerance 0.02, got %g", cfg.Scoring.RowWeightTolerance)
	}
	if cfg.Batch.Parallelism != 2 {
		t.Errorf("expected parallelism 2, got %d", cfg.Batch.Parallelism)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format 'text', got '%s'", cfg.Logging.Format)
	}
	if cfg.Metrics.TextfilePath != "/var/lib/node_exporter/rating.prom" {
		t.Errorf("expected metrics textfile, got %q", cfg.Metrics.TextfilePath)
	}
	if cfg.Events.URL != "nats://nats:4222" {
		t.Errorf("expected events url, got %q", cfg.Events.URL)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATING_PARALLELISM", "lots")
	t.Setenv("RATING_ROW_TOLERANCE", "tight")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Batch.Parallelism != 4 {
		t.Errorf("expected default parallelism, got %d", cfg.Batch.Parallelism)
	}
	if cfg.Scoring.RowWeightTolerance != 0.01 {
		t.Errorf("expected default tolerance, got %g", cfg.Scoring.RowWeightTolerance)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read error, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("batch: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative tolerance", func(c *Config) { c.Scoring.RowWeightTolerance = -0.1 }, false},
		{"zero parallelism", func(c *Config) { c.Batch.Parallelism = 0 }, false},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"upper case format", func(c *Config) { c.Logging.Format = "TEXT" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Scoring: ScoringConfig{RowWeightTolerance: 0.01},
				Batch:   BatchConfig{Parallelism: 4},
				Logging: LoggingConfig{Level: "info", Format: "json"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Logging: LoggingConfig{Level: "warn", Format: "json"}}
	logger := cfg.Logger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "counterparty_id", "cp-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["msg"] != "kept" || entry["counterparty_id"] != "cp-1" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
