package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that appends to a file, creating its
// directory if needed
func NewFileLogger(path string, level log.Level) (*Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		f.Close()
	}

	return NewWithLevel(f, level), cleanup, nil
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// With returns a logger carrying the given key/value pairs on every entry
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}

// SyncScheduled logs a debounced sync being armed
func (l *Logger) SyncScheduled(direction string, delay time.Duration) {
	l.Debug("sync scheduled",
		"direction", direction,
		"delay", delay)
}

// SyncApplied logs a completed sync
func (l *Logger) SyncApplied(direction string, size int, duration time.Duration) {
	l.Info("sync applied",
		"direction", direction,
		"size", size,
		"duration", duration.Round(time.Microsecond))
}

// SyncSkipped logs a sync that had nothing to do or could not start
func (l *Logger) SyncSkipped(direction, reason string) {
	l.Debug("sync skipped",
		"direction", direction,
		"reason", reason)
}

// SyncFailed logs a sync abandoned because of an error
func (l *Logger) SyncFailed(direction string, err error) {
	l.Error("sync failed",
		"direction", direction,
		"error", err)
}

// Disposed logs an editor pair being torn down
func (l *Logger) Disposed(pending bool) {
	l.Info("editor pair disposed",
		"pending_cancelled", pending)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(path string, debounce time.Duration, strategy string) {
	l.Debug("config loaded",
		"path", path,
		"debounce", debounce,
		"cursor_strategy", strategy)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}
