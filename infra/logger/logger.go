package logger

import corelogger "github.com/kilianp07/pfexport/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger tagged with the given component. Output format is
// selected from the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
