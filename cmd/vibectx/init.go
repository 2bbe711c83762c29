package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/installer"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

var initCmd = &cobra.Command{
	Use:           "init",
	Short:         "Create the runtime directory and .env interactively",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		runtimePath := config.GetRuntimePath()

		state, err := installer.RunWizard(runtimePath)
		if err != nil {
			return err
		}

		envPath := config.AppConfig{RuntimePath: state.RuntimePath}.GetEnvPath()
		if err := godotenv.Load(envPath); err != nil {
			logger.Warn().Err(err).Str("path", envPath).Msg("failed to load .env file")
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("setup complete, register 'vibectx serve' as an MCP server in your editor")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
