package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/llm"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/scorer"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/summarizer"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/tokens"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/contextmgr"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/prompt"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/storage/sqlite"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/transport/mcp"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/srv"
)

// NewServices wires the manager and everything around it. Services are
// returned in start order; shutdown runs in reverse, so the database closes
// after the final snapshot flush.
func NewServices(ctx context.Context, stop context.CancelFunc) ([]srv.Service, error) {
	services := make([]srv.Service, 0)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("init env: %w", err)
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	ctxCfg := config.NewContextConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Token counting and prompts
	counter := tokens.NewCounter(ctxCfg.TokenEncoding)
	counter.Load(ctx)

	prompts, err := prompt.Load(appCfg.GetPromptsPath())
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	// 3. External collaborators
	sc, err := newScorer(ctx, ctxCfg, llmCfg)
	if err != nil {
		return nil, err
	}
	sum, err := newSummarizer(ctx, llmCfg, prompts, counter)
	if err != nil {
		return nil, err
	}

	// 4. Storage
	var opts []contextmgr.Option
	if appCfg.IsPersistenceEnabled() {
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		services = append(services, srv.NewCleanup(db.Close))
		opts = append(opts, contextmgr.WithRepository(sqlite.NewSessionRepo(db)))
	}

	// 5. Context manager
	manager, err := contextmgr.NewManager(ctxCfg, sc, sum, counter, opts...)
	if err != nil {
		return nil, fmt.Errorf("context manager: %w", err)
	}
	if err := manager.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("restore sessions: %w", err)
	}

	// 6. Background workers
	if appCfg.IsPersistenceEnabled() {
		services = append(services, contextmgr.NewSnapshotWorker(manager, appCfg.SnapshotInterval))
	}
	if appCfg.PruneInterval > 0 {
		services = append(services, contextmgr.NewPruneWorker(manager, appCfg.PruneInterval))
	}

	// 7. Transport
	services = append(services, mcp.NewServer(manager, os.Stdin, os.Stdout, mcp.WithOnClose(stop)))

	return services, nil
}

func newScorer(ctx context.Context, ctxCfg *config.ContextConfig, llmCfg *config.LLMConfig) (core.Scorer, error) {
	switch ctxCfg.Scorer {
	case config.ScorerLexical:
		return scorer.NewLexical(), nil
	case config.ScorerEmbedding:
		embedder, err := llm.NewEmbedder(ctx, llmCfg)
		if err != nil {
			return nil, fmt.Errorf("embedding scorer: %w", err)
		}
		return scorer.NewEmbedding(embedder), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", ctxCfg.Scorer)
	}
}

func newSummarizer(ctx context.Context, llmCfg *config.LLMConfig, prompts *prompt.Library, counter core.TokenCounter) (core.Summarizer, error) {
	ai, err := llm.NewProvider(ctx, llmCfg)
	if errors.Is(err, llm.ErrNoProvider) {
		log.FromCtx(ctx).Info().Msg("no llm provider configured, using extractive summaries")
		return summarizer.NewExtractive(counter, summarizer.DefaultSentencesPerItem), nil
	}
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	return summarizer.NewLLM(ai, prompts, counter), nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
