package config

import (
	"context"
	"math"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

const (
	ScorerLexical   = "lexical"
	ScorerEmbedding = "embedding"
)

// ContextConfig tunes the context manager core.
type ContextConfig struct {
	MaxItemsPerSession int `env:"CONTEXT_MAX_ITEMS" envDefault:"500"`

	// Combined score = StoredWeight*relevance + QueryWeight*queryScore
	StoredWeight      float64       `env:"CONTEXT_STORED_WEIGHT" envDefault:"0.5"`
	QueryWeight       float64       `env:"CONTEXT_QUERY_WEIGHT" envDefault:"0.5"`
	Scorer            string        `env:"CONTEXT_SCORER" envDefault:"lexical"`
	ScorerTimeout     time.Duration `env:"CONTEXT_SCORER_TIMEOUT" envDefault:"2s"`
	ScorerConcurrency int           `env:"CONTEXT_SCORER_CONCURRENCY" envDefault:"8"`

	SummarizerTimeout time.Duration `env:"CONTEXT_SUMMARIZER_TIMEOUT" envDefault:"30s"`
	SummaryCache      bool          `env:"CONTEXT_SUMMARY_CACHE" envDefault:"true"`
	TokenEncoding     string        `env:"CONTEXT_TOKEN_ENCODING" envDefault:"cl100k_base"`

	DefaultItemRelevance     float64 `env:"CONTEXT_DEFAULT_RELEVANCE" envDefault:"0.5"`
	DefaultPruneMaxRelevance float64 `env:"CONTEXT_PRUNE_MAX_RELEVANCE" envDefault:"0.1"`
}

func NewContextConfig(ctx context.Context) *ContextConfig {
	c := &ContextConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Context config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Context config")
	}
	return c
}

// DefaultContextConfig returns the envDefault values without reading the
// process environment.
func DefaultContextConfig() *ContextConfig {
	c := &ContextConfig{}
	if err := env.ParseWithOptions(c, env.Options{Environment: map[string]string{}}); err != nil {
		panic(err)
	}
	return c
}

func (c ContextConfig) Validate() error {
	switch {
	case c.MaxItemsPerSession <= 0:
		return core.NewValidationError("CONTEXT_MAX_ITEMS", "must be positive")
	case c.StoredWeight < 0 || c.QueryWeight < 0:
		return core.NewValidationError("CONTEXT_*_WEIGHT", "must not be negative")
	case c.StoredWeight == 0 && c.QueryWeight == 0:
		return core.NewValidationError("CONTEXT_*_WEIGHT", "stored and query weight cannot both be zero")
	case c.ScorerTimeout <= 0:
		return core.NewValidationError("CONTEXT_SCORER_TIMEOUT", "must be positive")
	case c.ScorerConcurrency <= 0:
		return core.NewValidationError("CONTEXT_SCORER_CONCURRENCY", "must be positive")
	case c.SummarizerTimeout <= 0:
		return core.NewValidationError("CONTEXT_SUMMARIZER_TIMEOUT", "must be positive")
	case c.Scorer != ScorerLexical && c.Scorer != ScorerEmbedding:
		return core.NewValidationError("CONTEXT_SCORER", "unknown scorer %q", c.Scorer)
	}
	if err := unitInterval("CONTEXT_DEFAULT_RELEVANCE", c.DefaultItemRelevance); err != nil {
		return err
	}
	return unitInterval("CONTEXT_PRUNE_MAX_RELEVANCE", c.DefaultPruneMaxRelevance)
}

func unitInterval(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return core.NewValidationError(field, "must be within [0,1], got %v", v)
	}
	return nil
}

func (c ContextConfig) GetMaxItemsPerSession() int           { return c.MaxItemsPerSession }
func (c ContextConfig) GetStoredWeight() float64             { return c.StoredWeight }
func (c ContextConfig) GetQueryWeight() float64              { return c.QueryWeight }
func (c ContextConfig) GetScorerTimeout() time.Duration      { return c.ScorerTimeout }
func (c ContextConfig) GetScorerConcurrency() int            { return c.ScorerConcurrency }
func (c ContextConfig) GetSummarizerTimeout() time.Duration  { return c.SummarizerTimeout }
func (c ContextConfig) GetDefaultItemRelevance() float64     { return c.DefaultItemRelevance }
func (c ContextConfig) GetDefaultPruneMaxRelevance() float64 { return c.DefaultPruneMaxRelevance }
func (c ContextConfig) IsSummaryCacheEnabled() bool          { return c.SummaryCache }
