// Package logger defines the logging seam used by the planning core.
// Implementations live in infra/logger so core packages stay free of any
// logging backend.
package logger

// Logger is the leveled logger core packages write to.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw attaches structured fields to a debug message.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
