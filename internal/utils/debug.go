package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger builds the process logger and installs it as the default.
// Unknown levels fall back to info.
func SetupLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "ddclient",
	})
	log.SetDefault(logger)
	return logger
}

// OpenLogFile opens (appending) the log file used while the TUI owns the terminal
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Debug writes a debug message through the default logger
func Debug(format string, args ...any) {
	log.Default().Debugf(format, args...)
}
