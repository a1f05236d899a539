package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Survey  SurveyConfig  `yaml:"survey"`
	Scoring ScoringConfig `yaml:"scoring"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
}

// SurveyConfig locates the survey definition. An empty path selects the
// embedded reference survey.
type SurveyConfig struct {
	Path string `yaml:"path"`
}

type ScoringConfig struct {
	RowWeightTolerance float64 `yaml:"row_weight_tolerance"`
}

type BatchConfig struct {
	Parallelism int `yaml:"parallelism"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// EventsConfig configures NATS publishing. An empty URL disables events.
type EventsConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Scoring: ScoringConfig{
			RowWeightTolerance: 0.01,
		},
		Batch: BatchConfig{
			Parallelism: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			SubjectPrefix: "rating",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the process cannot run with.
func (c *Config) Validate() error {
	if c.Scoring.RowWeightTolerance < 0 {
		return fmt.Errorf("scoring.row_weight_tolerance must not be negative, got %g", c.Scoring.RowWeightTolerance)
	}
	if c.Batch.Parallelism < 1 {
		return fmt.Errorf("batch.parallelism must be at least 1, got %d", c.Batch.Parallelism)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Logger builds the process logger from the logging section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Logging.Level)}
	if strings.EqualFold(c.Logging.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RATING_SURVEY_PATH"); v != "" {
		cfg.Survey.Path = v
	}
	if v := os.Getenv("RATING_ROW_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.RowWeightTolerance = f
		}
	}
	if v := os.Getenv("RATING_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Parallelism = n
		}
	}
	if v := os.Getenv("RATING_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RATING_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RATING_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.TextfilePath = v
	}
	if v := os.Getenv("RATING_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
}
