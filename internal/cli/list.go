package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/platform"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func newListCommand() *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := []platform.Kind{platform.KindRuntime, platform.KindBinary, platform.KindStack, platform.KindPrompt, platform.KindAgent}
			if kindFlag != "" {
				kinds = []platform.Kind{platform.Kind(kindFlag)}
			}

			rows := [][]string{{"KIND", "ID", "VERSION", "SOURCE"}}
			for _, k := range kinds {
				records, err := theApp.Installer.ListInstalled(k)
				if err != nil {
					return fmt.Errorf("list %s: %w", k, err)
				}
				for _, r := range records {
					rows = append(rows, []string{string(k), r.ID, r.Version, r.Source})
				}
			}
			if len(rows) == 1 {
				PrintInfo("no packages installed")
				return nil
			}
			fmt.Println(renderTable(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "restrict listing to one kind (runtime, binary, stack, prompt, agent)")
	return cmd
}

// renderTable column-aligns rows (first row is the header) with
// lipgloss styling; widths are computed from the longest cell per
// column.
func renderTable(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for r, row := range rows {
		var cells []string
		for i, cell := range row {
			padded := cell + strings.Repeat(" ", widths[i]-len(cell))
			if r == 0 {
				cells = append(cells, headerStyle.Render(padded))
			} else {
				cells = append(cells, padded)
			}
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
