package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/sessiondb"
)

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Import and browse agent conversation transcripts",
	}
	cmd.AddCommand(newSessionsImportCommand(), newSessionsListCommand(), newSearchCommand())
	return cmd
}

func newSessionsImportCommand() *cobra.Command {
	var skipExisting, skipDead, inferTitles bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Scan ~/.claude, ~/.codex, and ~/.gemini for new transcripts and import them",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := theApp.openSessionDB()
			if err != nil {
				return err
			}
			defer db.Close()

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve user home: %w", err)
			}

			stats, err := sessiondb.ImportAll(context.Background(), store, home, sessiondb.ImportOptions{
				SkipExisting: skipExisting,
				SkipDead:     skipDead,
				InferTitles:  inferTitles,
			})
			if err != nil {
				PrintError("import failed: %v", err)
				return err
			}
			PrintSuccess("imported %d session(s), skipped %d, dropped %d dead, %d error(s)",
				stats.Imported, stats.Skipped, stats.Dead, stats.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip sessions already imported")
	cmd.Flags().BoolVar(&skipDead, "skip-dead", true, "skip sessions with zero turns")
	cmd.Flags().BoolVar(&inferTitles, "infer-titles", true, "derive a session title from its first user message")
	return cmd
}

func newSessionsListCommand() *cobra.Command {
	var provider string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported sessions, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := theApp.openSessionDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := store.ListSessions(context.Background(), provider, limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				PrintInfo("no sessions imported yet")
				return nil
			}

			rows := [][]string{{"ID", "PROVIDER", "TITLE", "TURNS", "COST"}}
			for _, s := range sessions {
				title := ""
				if s.Title != nil {
					title = *s.Title
				}
				rows = append(rows, []string{s.ID, s.Provider, title, fmt.Sprintf("%d", s.TurnCount), fmt.Sprintf("$%.4f", s.TotalCostUSD)})
			}
			fmt.Println(renderTable(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "restrict to one provider (claude, codex, gemini)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum sessions to list")
	return cmd
}

func newSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over imported conversation turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := theApp.openSessionDB()
			if err != nil {
				return err
			}
			defer db.Close()

			hits, err := store.Search(context.Background(), args[0], limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				PrintInfo("no matches for %q", args[0])
				return nil
			}
			for _, h := range hits {
				title := h.Session.ID
				if h.Session.Title != nil {
					title = *h.Session.Title
				}
				fmt.Printf("%s  %s\n", Bold(title), Gray(h.Session.Provider))
				if h.UserHighlight != "" {
					fmt.Printf("  user: %s\n", h.UserHighlight)
				}
				if h.AssistantHighlight != "" {
					fmt.Printf("  assistant: %s\n", h.AssistantHighlight)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results to return")
	return cmd
}
