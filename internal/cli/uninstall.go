package cli

import (
	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/platform"
)

func newUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <kind:name>",
		Short: "Remove an installed package and its lockfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, name, err := platform.ParsePackageID(args[0])
			if err != nil {
				PrintError("%v", err)
				return err
			}
			if kind == platform.KindStack {
				theApp.Registrar.UnregisterMcpAll(args[0], nil)
			}
			if err := theApp.Installer.Uninstall(kind, name); err != nil {
				PrintError("uninstall failed: %v", err)
				return err
			}
			PrintSuccess("uninstalled %s", args[0])
			return nil
		},
	}
}
