package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"VIBECTX_RUNTIME_PATH" envDefault:".vibectx"`

	// Snapshot persistence
	Persist          bool          `env:"VIBECTX_PERSIST" envDefault:"true"`
	SnapshotInterval time.Duration `env:"VIBECTX_SNAPSHOT_INTERVAL" envDefault:"30s"`

	// Background capacity pruning, 0 disables the worker
	PruneInterval time.Duration `env:"VIBECTX_PRUNE_INTERVAL" envDefault:"1m"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

// DefaultAppConfig returns the envDefault values with the runtime path left
// unresolved.
func DefaultAppConfig() *AppConfig {
	c := &AppConfig{}
	if err := env.ParseWithOptions(c, env.Options{Environment: map[string]string{}}); err != nil {
		panic(err)
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "vibectx.db")
}

func (c AppConfig) GetPromptsPath() string {
	return filepath.Join(c.RuntimePath, "prompts.yaml")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c AppConfig) IsPersistenceEnabled() bool {
	return c.Persist
}
