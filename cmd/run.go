package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/answer"
	"github.com/dangdai/quizgen/internal/config"
	"github.com/dangdai/quizgen/internal/content"
	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/pgstore"
	"github.com/dangdai/quizgen/internal/quizgen"
	"github.com/dangdai/quizgen/internal/store"
	"github.com/dangdai/quizgen/internal/ui/player"
	"github.com/dangdai/quizgen/internal/weakness"
)

// resultRepo is answer history that can be read and appended to.
type resultRepo interface {
	weakness.ResultSource
	player.ResultRecorder
}

// backend holds the opened stores and the LLM provider for one command.
type backend struct {
	cfg      config.Config
	store    *store.Store
	pg       *pgstore.Store
	searcher content.Searcher
	results  resultRepo
	provider llm.Provider
}

// openBackend opens the local database, the hosted corpus when a content
// DSN is configured, and the LLM provider.
func openBackend(cmd *cobra.Command) (*backend, error) {
	ctx := cmd.Context()

	cfg, st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	b := &backend{cfg: cfg, store: st}

	if cfg.ContentDSN != "" {
		pg, err := pgstore.Open(ctx, cfg.ContentDSN)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open content database: %w", err)
		}
		b.pg = pg
		b.searcher = pg.ChunkRepo()
		b.results = pg.ResultRepo()
	} else {
		b.searcher = st.ChunkRepo()
		b.results = st.ResultRepo()
		if n, err := st.ChunkRepo().Count(ctx); err == nil && n == 0 {
			slog.Warn("local corpus is empty; load chapters with `quizgen ingest` or set QUIZGEN_CONTENT_DSN")
		}
	}

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	b.provider = provider
	return b, nil
}

// Close releases both databases.
func (b *backend) Close() {
	if b.pg != nil {
		b.pg.Close()
	}
	b.store.Close()
}

// service builds the generation service over the backend.
func (b *backend) service() *quizgen.Service {
	qcfg := quizgen.DefaultConfig()
	qcfg.Timeout = b.cfg.GenerationTimeout
	qcfg.Evaluator.Timeout = b.cfg.EvaluatorTimeout
	qcfg.Logger = slog.Default()

	return quizgen.NewService(
		content.NewRetriever(b.searcher, slog.Default()),
		weakness.NewProfiler(b.results),
		b.provider,
		b.store.EventRepo(),
		qcfg,
	)
}

// validator builds the answer validator over the backend's provider.
func (b *backend) validator() *answer.Validator {
	return answer.NewValidator(b.provider, b.cfg.AnswerTimeout, slog.Default())
}
