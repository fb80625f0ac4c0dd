package cli

import (
	"github.com/spf13/cobra"
)

func newUpdateCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "update [kind:name]",
		Short: "Reinstall a package (or every installed package with --all) at its latest version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				results, err := theApp.Installer.UpdateAll(nil)
				if err != nil {
					PrintError("update-all failed: %v", err)
					return err
				}
				for _, r := range results {
					if r.Success {
						PrintSuccess("updated %s", r.ID)
					} else {
						PrintError("failed to update %s: %v", r.ID, r.Error)
					}
				}
				return nil
			}

			if len(args) != 1 {
				return cmd.Help()
			}
			result, err := theApp.Installer.Update(args[0], nil)
			if err != nil {
				PrintError("update failed: %v", err)
				return err
			}
			PrintSuccess("updated %s", result.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "update every installed package")
	return cmd
}
