package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/logger"
)

var (
	homeFlag    string
	verboseFlag bool
	localFlag   bool
	theApp      *app
)

// NewRootCommand builds the rudi CLI's command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "rudi",
		Short: "A local package manager and orchestrator for AI-agent tooling",
		Long: `rudi installs and manages runtimes, binaries, MCP stacks, prompts, and
agent integrations for local AI tooling, and indexes conversation
transcripts into a searchable database.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(verboseFlag)
			a, err := newApp(homeFlag, localFlag)
			if err != nil {
				return err
			}
			theApp = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&homeFlag, "home", "", "override rudi's home directory (default $HOME/.rudi)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&localFlag, "local-registry", false, "force the local/dev registry index (same as USE_LOCAL_REGISTRY=1)")

	root.AddCommand(
		newInstallCommand(),
		newUninstallCommand(),
		newListCommand(),
		newUpdateCommand(),
		newRegistrySearchCommand(),
		newSecretsCommand(),
		newSessionsCommand(),
		newDoctorCommand(),
	)
	return root
}

// Execute runs the CLI with the given version string and returns the
// process exit code.
func Execute(version string) int {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Println(Red(StatusError), err)
		return 1
	}
	return 0
}
