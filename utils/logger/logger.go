package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Logger is the logging interface used throughout GitSign.
//
// Info, Warning and Error are internal logs: written to the debug log file when it is enabled.
// Error is additionally always shown on stderr. The *ToUser, Success and StatusMessage methods
// are meant for the person running the command: warnings go to stderr, everything else to stdout.
type Logger interface {
	// Info logs an informational message (log file only). Format follows fmt.Printf.
	Info(format string, args ...interface{})

	// Warning logs a warning (log file, and stdout when verbose).
	Warning(format string, args ...interface{})

	// Error logs an error (log file and stderr).
	Error(format string, args ...interface{})

	// InfoToUser logs an informational message to the log file and stdout.
	InfoToUser(format string, args ...interface{})

	// WarningToUser logs a warning to the log file and stderr.
	WarningToUser(format string, args ...interface{})

	// Success logs a success message to the log file and stdout.
	Success(format string, args ...interface{})

	// StatusMessage prints a plain line to stdout (never logged).
	StatusMessage(format string, args ...interface{})

	// Close flushes and closes the log file, if any.
	Close() error
}

// DefaultLogger implements Logger on top of log/slog.
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a Logger writing user messages to os.Stdout / os.Stderr.
func New(enabled bool, logFile string, verbose bool) Logger {
	return NewWithOutput(enabled, logFile, verbose, os.Stdout, os.Stderr)
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var file *os.File
	logger := slog.New(slog.NewTextHandler(stderr, opts))

	if enabled && logFile != "" {
		if dir := filepath.Dir(logFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				_, _ = fmt.Fprintf(stderr, "warning: failed to create log directory: %v\n", err)
			}
		}

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			file = f
			logger = slog.New(slog.NewTextHandler(f, opts))
			logger.Info("gesign debug logging started")
		} else {
			_, _ = fmt.Fprintf(stderr, "warning: failed to open log file: %v, using stderr instead\n", err)
		}
	}

	return &DefaultLogger{
		logger:  logger,
		enabled: enabled,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
	}
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}
	l.logger.Info(fmt.Sprintf(format, args...))
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Warn(msg)
	}
	if l.verbose {
		_, _ = fmt.Fprintf(l.stdout, "warning: %s\n", msg)
	}
}

// Error logs an error message. Errors are always shown to the user.
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Error(msg)
	}
	_, _ = fmt.Fprintf(l.stderr, "error: %s\n", msg)
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Info(msg)
	}
	_, _ = fmt.Fprintln(l.stdout, msg)
}

// WarningToUser logs a warning message to both file and stderr
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Warn(msg)
	}
	_, _ = fmt.Fprintln(l.stderr, msg)
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Info(msg)
	}
	_, _ = fmt.Fprintln(l.stdout, msg)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return err
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewWithOutput(false, "", false, io.Discard, io.Discard)
}
