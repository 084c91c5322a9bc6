// Package log provides the structured logging interface used across denseflow.
//
// The interface mirrors log/slog so implementations can be swapped: the
// default is backed by zerolog, and SetupLogger installs a slog JSON handler
// in Cloud Logging field names.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("nn").With(
//	    log.ModelNameKey, "Sequential",
//	)
//	logger.Info("Epoch finished",
//	    log.EpochKey, 3,
//	    log.LossKey, 0.0712,
//	    log.AccuracyKey, 0.978,
//	)
package log

import (
	"context"
)

// Logger is a structured logger with slog-style key/value fields.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general progress such as finished epochs.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop execution.
	Warn(msg string, fields ...any)

	// Error logs failures. If the first field is an error it is attached
	// under ErrAttrKey together with its stack trace.
	//
	//   logger.Error("Training failed", err, log.EpochKey, 2)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
