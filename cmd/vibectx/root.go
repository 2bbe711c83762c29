package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/ui"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

var debug bool

// helpEnv lists the variables most setups touch; `vibectx config` prints
// the full effective set.
var helpEnv = [][2]string{
	{"VIBECTX_RUNTIME_PATH", "directory holding .env, prompts.yaml and the snapshot database"},
	{"VIBECTX_PERSIST", "save sessions to sqlite and restore them on start"},
	{"LLM_PROVIDER", "summarizer backend; none keeps summaries local and extractive"},
	{"CONTEXT_SCORER", "query scorer: lexical or embedding"},
	{"CONTEXT_MAX_ITEMS", "per-session item cap enforced by pruning"},
}

var rootCmd = &cobra.Command{
	Use:   core.AppName,
	Short: "Session context store for AI coding assistants",
	Long: `vibectx collects conversation turns, code and documentation per session,
ranks them against a query and condenses them into summaries that fit a
token budget. Assistants talk to it over MCP on stdin/stdout.`,
	Example: `  vibectx init                 # write .env and prompts.yaml
  vibectx serve                # MCP stdio server for the assistant
  vibectx inspect -p my-app    # saved sessions of one project`,
	Version:       core.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.WarnStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(),
		"log at debug level to stderr (also VIBECTX_DEBUG=1)")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, debug || config.IsDebug())
}

func envHelp() string {
	var b strings.Builder
	for _, kv := range helpEnv {
		fmt.Fprintf(&b, "  %s\n      %s\n", ui.FlagStyle.Render(kv[0]), ui.DescStyle.Render(kv[1]))
	}
	return strings.TrimRight(b.String(), "\n")
}

const helpTemplate = `{{StyleTitle .CommandPath}}
{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}{{end}}

{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}{{if .HasAvailableSubCommands}}
  {{StyleUsage (printf "%s [command]" .CommandPath)}}{{end}}
{{if .HasExample}}
{{StyleTitle "EXAMPLES"}}
{{.Example}}
{{end}}{{if .HasAvailableSubCommands}}
{{StyleTitle "COMMANDS"}}{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}{{end}}
{{end}}{{if .HasAvailableLocalFlags}}
{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}{{if .HasAvailableInheritedFlags}}
{{StyleTitle "GLOBAL FLAGS"}}
{{StyleFlag (.InheritedFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}{{if not .HasParent}}
{{StyleTitle "ENVIRONMENT"}}
{{EnvHelp}}
{{end}}`

// CustomizeHelp styles help output with the ui palette. The root command
// also lists the main environment variables.
func CustomizeHelp(cmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })
	cobra.AddTemplateFunc("EnvHelp", envHelp)

	cmd.SetHelpTemplate(helpTemplate)
}
