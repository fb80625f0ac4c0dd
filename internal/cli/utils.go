// Package cli wires rudi's internal packages into a cobra command tree
// (spec §6, SPEC_FULL's DOMAIN STACK table).
package cli

import (
	"fmt"

	"github.com/fatih/color"
)

// Status symbols, grounded on the teacher's internal/cli/utils.go.
const (
	StatusSuccess = "✔"
	StatusError   = "✗"
	StatusWarning = "!"
	StatusArrow   = "→"
	StatusBullet  = "•"
)

var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Gray   = color.New(color.FgHiBlack).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

func PrintSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", Green(StatusSuccess), fmt.Sprintf(format, args...))
}

func PrintError(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", Red(StatusError), fmt.Sprintf(format, args...))
}

func PrintWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", Yellow(StatusWarning), fmt.Sprintf(format, args...))
}

func PrintInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", Gray(StatusArrow), fmt.Sprintf(format, args...))
}

func PrintBullet(format string, args ...interface{}) {
	fmt.Printf("  %s %s\n", Gray(StatusBullet), fmt.Sprintf(format, args...))
}
