// Package logger provides a global zerolog logger for rudi.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the global zerolog logger instance used by every rudi component.
var Log zerolog.Logger

func init() {
	Init(false)
}

// Init (re)initializes the global logger with the given verbosity.
func Init(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	Log = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
}
