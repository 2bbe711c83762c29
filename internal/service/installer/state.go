package installer

import (
	"fmt"
	"strings"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/env"
)

// InstallState collects answers as typed config, so the saved .env uses
// the same keys the server parses.
type InstallState struct {
	RuntimePath string
	LLM         *config.LLMConfig
	Context     *config.ContextConfig
	App         *config.AppConfig
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{
		RuntimePath: runtimePath,
		LLM:         config.DefaultLLMConfig(),
		Context:     config.DefaultContextConfig(),
		App:         config.DefaultAppConfig(),
	}
}

func (s *InstallState) provider() string {
	return strings.ToLower(s.LLM.Provider)
}

// EnvContent renders every setting that differs from its default.
func (s *InstallState) EnvContent() (string, error) {
	var b strings.Builder
	b.WriteString("# generated by vibectx init\n")
	for _, section := range []any{s.LLM, s.Context, s.App} {
		part, err := env.MarshalEnv(section)
		if err != nil {
			return "", fmt.Errorf("marshal %T: %w", section, err)
		}
		b.WriteString(part)
	}
	return b.String(), nil
}
