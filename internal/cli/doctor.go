package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-stack/rudi/internal/configstore"
	"github.com/prompt-stack/rudi/internal/platform"
)

// newDoctorCommand implements the read-only diagnostic command
// supplementing spec.md: for each installed package that has a readable
// manifest.json (or runtime.json) it checks that the record has an id
// and, for stacks and runtimes, that its version agrees with the central
// config document (spec invariant #2 in §3). Install directories without
// a readable manifest are not listed by ListInstalled, so doctor does
// not report them.
func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check installed packages for manifest/config drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := theApp.Config.InitConfig()
			if err != nil {
				return err
			}

			problems := 0
			kinds := []platform.Kind{platform.KindRuntime, platform.KindBinary, platform.KindStack, platform.KindPrompt, platform.KindAgent}
			for _, k := range kinds {
				records, err := theApp.Installer.ListInstalled(k)
				if err != nil {
					return fmt.Errorf("list %s: %w", k, err)
				}
				for _, r := range records {
					if r.ID == "" {
						PrintWarning("%s: manifest record has no id", r.InstallDir)
						problems++
						continue
					}

					configVersion, tracked := trackedVersion(doc, k, r.ID, r.Name)
					if tracked && configVersion != r.Version {
						PrintWarning("%s: manifest version %s disagrees with config version %s", r.ID, r.Version, configVersion)
						problems++
						continue
					}
					PrintSuccess("%s", r.ID)
				}
			}

			if problems == 0 {
				PrintSuccess("no problems found")
			} else {
				PrintWarning("%d problem(s) found", problems)
			}
			return nil
		},
	}
}

// trackedVersion reports the version the central config document has
// recorded for an installed package, when that kind is tracked there.
// Binaries, prompts, and agents have no config-document entry today, so
// doctor only checks that their manifest record has an id, not version
// drift.
func trackedVersion(doc *configstore.Document, kind platform.Kind, id, name string) (string, bool) {
	switch kind {
	case platform.KindStack:
		stack, ok := doc.Stacks[id]
		if !ok {
			return "", false
		}
		return stack.Version, true
	case platform.KindRuntime:
		rt, ok := doc.Runtimes[name]
		if !ok {
			return "", false
		}
		return rt.Version, true
	default:
		return "", false
	}
}
