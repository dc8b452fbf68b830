// Package config loads application settings from an optional .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the application-level configuration. LLM provider settings are
// read separately by llm.ConfigFromEnv.
type Config struct {
	// DBPath is the local SQLite database. Empty means the platform default.
	DBPath string

	// ContentDSN points at the hosted Postgres corpus. Empty means chunks
	// and results come from the local database.
	ContentDSN string

	GenerationTimeout time.Duration
	EvaluatorTimeout  time.Duration
	AnswerTimeout     time.Duration

	LogLevel slog.Level
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		GenerationTimeout: 30 * time.Second,
		EvaluatorTimeout:  20 * time.Second,
		AnswerTimeout:     3 * time.Second,
		LogLevel:          slog.LevelWarn,
	}
}

// Load reads the given .env files (".env" when none are named) into the
// environment without overriding variables that are already set, then
// builds a Config. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from QUIZGEN_* variables.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.DBPath = os.Getenv("QUIZGEN_DB")
	cfg.ContentDSN = os.Getenv("QUIZGEN_CONTENT_DSN")

	var errs []error
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"QUIZGEN_GENERATION_TIMEOUT", &cfg.GenerationTimeout},
		{"QUIZGEN_EVALUATOR_TIMEOUT", &cfg.EvaluatorTimeout},
		{"QUIZGEN_ANSWER_TIMEOUT", &cfg.AnswerTimeout},
	} {
		if err := durationEnv(d.key, d.dst); err != nil {
			errs = append(errs, err)
		}
	}

	if v := os.Getenv("QUIZGEN_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			errs = append(errs, fmt.Errorf("QUIZGEN_LOG_LEVEL: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func durationEnv(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	*dst = d
	return nil
}
