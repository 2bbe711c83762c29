package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/ui"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/storage/sqlite"
)

var (
	inspectProject string
	inspectWidth   int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [session-id]",
	Short: "Show persisted sessions or the items of one session",
	Long:  `Reads the last flushed snapshots from the runtime database. A running server may hold newer state in memory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		dbPath := appCfg.GetDatabasePath()
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("no snapshot database at %s: %w", dbPath, err)
		}
		db, err := sqlite.NewDB(ctx, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		sessions, err := sqlite.NewSessionRepo(db).LoadSessions(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprintln(out, renderSessions(sessions, inspectProject))
			return nil
		}

		for _, s := range sessions {
			if s.ID == args[0] {
				fmt.Fprintln(out, renderSession(s, inspectWidth))
				return nil
			}
		}
		return core.SessionNotFound(args[0])
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectProject, "project", "p", "", "only sessions of this project")
	inspectCmd.Flags().IntVarP(&inspectWidth, "width", "w", 60, "truncate item content to this many characters")
	rootCmd.AddCommand(inspectCmd)
}

func renderSessions(sessions []core.Session, projectID string) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		if projectID != "" && s.ProjectID != projectID {
			continue
		}
		rows = append(rows, []string{
			s.ID,
			s.ProjectID,
			strconv.Itoa(len(s.Items)),
			s.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	if len(rows) == 0 {
		return ui.DescStyle.Render("no sessions")
	}
	return ui.TitleStyle.Render("SESSIONS") + "\n" + ui.Table([]string{"ID", "PROJECT", "ITEMS", "UPDATED"}, rows)
}

// renderSession lists items by stored relevance, newest first among equals.
func renderSession(s core.Session, width int) string {
	items := append([]core.ContextItem(nil), s.Items...)
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Relevance != items[b].Relevance {
			return items[a].Relevance > items[b].Relevance
		}
		return items[a].Timestamp.After(items[b].Timestamp)
	})

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.ID,
			string(it.Type),
			strconv.FormatFloat(it.Relevance, 'f', 2, 64),
			ui.Truncate(it.Source, 32),
			ui.Truncate(oneLine(it.Content), width),
		})
	}

	header := ui.TitleStyle.Render("SESSION "+s.ID) + "\n" +
		ui.DescStyle.Render(fmt.Sprintf("project %s, %d items, updated %s", s.ProjectID, len(s.Items), s.UpdatedAt.Local().Format(time.DateTime)))
	if len(rows) == 0 {
		return header
	}
	return header + "\n" + ui.Table([]string{"ID", "TYPE", "REL", "SOURCE", "CONTENT"}, rows)
}

func oneLine(s string) string {
	b := []rune(s)
	for i, r := range b {
		if r == '\n' || r == '\r' || r == '\t' {
			b[i] = ' '
		}
	}
	return string(b)
}
