package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/config"
	"github.com/dangdai/quizgen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizgen",
	Short: "Quiz generator for A Course in Contemporary Chinese",
	Long: `quizgen builds practice quizzes from textbook content with an LLM,
checks every batch for structure and content quality, and retries with
feedback until a usable quiz is produced.`,
	SilenceUsage: true,
}

// ExecuteContext runs the root command with ctx, so that commands stop
// when ctx is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZGEN_DB)")
	rootCmd.PersistentFlags().String("content-dsn", "", "Postgres DSN of the hosted corpus (overrides QUIZGEN_CONTENT_DSN)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading QUIZGEN_* variables")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline steps to stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment, applies flag overrides and installs
// the default logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if dsn, _ := cmd.Flags().GetString("content-dsn"); dsn != "" {
		cfg.ContentDSN = dsn
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

// resolveDBPath returns cfg.DBPath (creating its directory), or the default
// XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore loads the config and opens the local database.
func openStore(cmd *cobra.Command) (config.Config, *store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, st, nil
}
