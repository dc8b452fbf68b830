package quizgen

import (
	"log/slog"
	"time"
)

// Config controls a Service and the stages of its pipeline.
type Config struct {
	// Timeout bounds one whole run. Default: 30s.
	Timeout time.Duration

	Generator GeneratorConfig
	Evaluator EvaluatorConfig

	// Logger receives stage transitions. Nil uses slog.Default().
	Logger *slog.Logger
}

// GeneratorConfig controls the question generator.
type GeneratorConfig struct {
	MaxTokens   int
	Temperature float64

	// MixedTypes is how many exercise types a mixed quiz draws from.
	MixedTypes int
}

// EvaluatorConfig controls the content evaluator.
type EvaluatorConfig struct {
	// Timeout bounds the evaluator's LLM call. Expiry is treated like any
	// other evaluator failure. Default: 20s.
	Timeout time.Duration

	MaxTokens   int
	Temperature float64

	// MinQuestions is the smallest partially accepted batch.
	MinQuestions int
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Generator: GeneratorConfig{
			MaxTokens:   8192,
			Temperature: 0.7,
			MixedTypes:  4,
		},
		Evaluator: EvaluatorConfig{
			Timeout:      20 * time.Second,
			MaxTokens:    2048,
			Temperature:  0,
			MinQuestions: 3,
		},
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
