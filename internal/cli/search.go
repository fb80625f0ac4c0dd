package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/platform"
)

func newRegistrySearchCommand() *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "registry-search <query>",
		Short: "Search the package registry index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := theApp.Registry.FetchIndex(false)
			if err != nil {
				PrintError("fetch registry index failed: %v", err)
				return err
			}
			hits := idx.Search(args[0], platform.Kind(kindFlag))
			if len(hits) == 0 {
				PrintInfo("no matches for %q", args[0])
				return nil
			}
			for _, h := range hits {
				fmt.Printf("%s  %s (%s)\n", Bold(string(h.Kind)+":"+h.Name), h.Version, h.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "restrict the search to one kind")
	return cmd
}
