package log

import (
	"os"
	"sync"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
)

var (
	providerMu sync.RWMutex
	current    Logger
)

func init() {
	SetLogger(NewZerologLogger(os.Stderr, LevelInfo, true))
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return current
}

// GetLoggerWithName returns the process-wide logger tagged with a component.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the process-wide logger and routes pkg/errors warnings
// through it.
func SetLogger(l Logger) {
	providerMu.Lock()
	current = l
	providerMu.Unlock()

	if zl, ok := l.(*ZerologLogger); ok {
		errors.SetZerologWarnFunc(zl.Warning)
		return
	}
	errors.SetZerologWarnFunc(func(w error) {
		l.Warn(w.Error(), "warning", w)
	})
}

// Setup configures the process logger from CLI-style settings. format is
// "console" (zerolog, human readable), "json" (zerolog JSON) or "slog"
// (slog JSON in Cloud Logging field names).
func Setup(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	switch format {
	case "console", "":
		SetLogger(NewZerologLogger(os.Stderr, lvl, true))
	case "json":
		SetLogger(NewZerologLogger(os.Stderr, lvl, false))
	case "slog":
		return SetupLogger(level)
	default:
		return errors.NewValidationError("log-format", "must be console, json or slog", format)
	}
	return nil
}
