package logger

import "fmt"

// Debugf logs a debug-level message with formatting. Used for verbose,
// --verbose-gated detail such as applied session-DB migrations and
// failed best-effort install-history writes.
func Debugf(format string, args ...interface{}) {
	Log.Debug().Msg(fmt.Sprintf(format, args...))
}

// Warnf logs a warning-level message with formatting. Used for
// recoverable failures that keep running, e.g. a download falling back
// to a placeholder manifest or an unparsable transcript being skipped.
func Warnf(format string, args ...interface{}) {
	Log.Warn().Msg(fmt.Sprintf(format, args...))
}
