// Command rudi is a local package manager and orchestrator for AI-agent
// tooling: it installs runtimes, binaries, MCP stacks, prompts, and
// agent integrations, registers stacks into third-party agent configs,
// and indexes conversation transcripts into a searchable database.
package main

import (
	"os"

	"github.com/prompt-stack/rudi/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
