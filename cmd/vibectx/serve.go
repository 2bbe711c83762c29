package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP stdio server",
	Long:  `Serves the context manager as MCP tools on stdin/stdout, with background pruning and snapshot persistence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting vibectx")

		services, err := NewServices(ctx, stop)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, stop, services)
		srv.ShutdownServices(ctx, services, srv.DefaultShutdownTimeout)
		logger.Info().Msg("vibectx has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
