package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetPromptsPath() string
	IsPersistenceEnabled() bool
}

type ContextConfig interface {
	GetMaxItemsPerSession() int
	GetStoredWeight() float64
	GetQueryWeight() float64
	GetScorerTimeout() time.Duration
	GetScorerConcurrency() int
	GetSummarizerTimeout() time.Duration
	GetDefaultItemRelevance() float64
	GetDefaultPruneMaxRelevance() float64
	IsSummaryCacheEnabled() bool
}

type LLMConfig interface {
	GetProvider() string
	GetModel() string
	GetAPIKey() string
	GetBaseURL() string
	GetEmbeddingModel() string
}
