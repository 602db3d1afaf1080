package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog and satisfies the shared logger interface
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Options selects level, format and destination of a logger
type Options struct {
	// DEBUG, INFO, WARN, ERROR (default: INFO)
	Level string
	// json or text (default: text)
	Format string
	// stdout, stderr, or file path (default: stderr)
	Output string
}

// DefaultLogger creates a logger using slog.Default()
func DefaultLogger() *Logger {
	return &Logger{
		Logger: slog.Default(),
	}
}

// NewLogger creates a logger configured from environment variables:
// PRODUCTFORM_LOG_LEVEL, PRODUCTFORM_LOG_FORMAT and PRODUCTFORM_LOG_OUTPUT
func NewLogger() *Logger {
	return NewLoggerWithOptions(Options{
		Level:  os.Getenv("PRODUCTFORM_LOG_LEVEL"),
		Format: os.Getenv("PRODUCTFORM_LOG_FORMAT"),
		Output: os.Getenv("PRODUCTFORM_LOG_OUTPUT"),
	})
}

// NewLoggerWithOptions creates a logger from explicit options
func NewLoggerWithOptions(o Options) *Logger {
	format := strings.ToLower(o.Format)
	if format == "" {
		format = "text"
	}

	// stdout carries CLI results, so logs default to stderr
	output := o.Output
	if output == "" {
		output = "stderr"
	}

	var writer io.Writer
	var closer io.Closer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			writer = os.Stderr
		} else {
			writer = file
			closer = file
		}
	}

	return &Logger{
		Logger: slog.New(newHandler(writer, format, parseLogLevel(o.Level))),
		closer: closer,
	}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLogLevel parses log level from string
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SLog exposes the underlying slog logger for libraries that need it
func (l *Logger) SLog() *slog.Logger {
	return l.Logger
}

// Close releases the log file, if the logger writes to one
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// SetDefaultLogger sets the logger as the default slog logger
func SetDefaultLogger(l *Logger) {
	slog.SetDefault(l.Logger)
}
