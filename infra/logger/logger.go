package logger

import (
	"os"

	corelogger "github.com/kmrl/induction/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything. Used in tests and as a safe default.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns the process logger for a component. Output format follows
// APP_ENV (console in dev, JSON otherwise) and the minimum level follows
// LOG_LEVEL.
func New(component string) Logger {
	return newZerolog(os.Stderr, component, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}
