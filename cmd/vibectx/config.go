package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/ui"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/env"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print settings that differ from the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		llmCfg := config.NewLLMConfig(ctx)
		if llmCfg.APIKey != "" {
			llmCfg.APIKey = "********"
		}
		sections := []struct {
			title string
			cfg   any
		}{
			{title: "APP", cfg: config.NewAppConfig(ctx)},
			{title: "CONTEXT", cfg: config.NewContextConfig(ctx)},
			{title: "LLM", cfg: llmCfg},
		}

		out := cmd.OutOrStdout()
		for _, section := range sections {
			content, err := env.MarshalEnv(section.cfg)
			if err != nil {
				return err
			}
			if content == "" {
				content = ui.DescStyle.Render("(defaults)") + "\n"
			}
			fmt.Fprint(out, ui.TitleStyle.Render(section.title)+"\n"+content+"\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
