package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSecretsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage secret values read by installed stacks",
	}
	cmd.AddCommand(newSecretsSetCommand(), newSecretsListCommand())
	return cmd
}

func newSecretsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a secret value and mark it configured in the central config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, value := args[0], args[1]
			if err := theApp.Secrets.SetSecret(context.Background(), name, value); err != nil {
				PrintError("set secret failed: %v", err)
				return err
			}
			if _, err := theApp.Config.UpdateSecretStatus(name, true); err != nil {
				PrintError("update secret status failed: %v", err)
				return err
			}
			PrintSuccess("stored %s", name)
			return nil
		},
	}
}

func newSecretsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List secrets declared by installed stacks and whether they're configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := theApp.Config.InitConfig()
			if err != nil {
				return err
			}
			if len(doc.Secrets) == 0 {
				PrintInfo("no secrets declared")
				return nil
			}
			rows := [][]string{{"NAME", "CONFIGURED", "REQUIRED", "STACK"}}
			for name, sc := range doc.Secrets {
				rows = append(rows, []string{name, fmt.Sprintf("%v", sc.Configured), fmt.Sprintf("%v", sc.Required), sc.Stack})
			}
			fmt.Println(renderTable(rows))
			return nil
		},
	}
}
