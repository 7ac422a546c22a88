package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvVarLogLevel is the environment variable name for setting the log level.
	EnvVarLogLevel = "LOG_LEVEL"

	// Module is the module attribute attached to every record.
	Module = "menugate"
)

// New creates a JSON structured logger writing to w.
// The module name and version are included in the logger's context.
// AddSource is enabled for debug level logging only.
func New(w io.Writer, version, level string) *slog.Logger {
	lev := ParseLogLevel(level)

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lev,
		AddSource: lev <= slog.LevelDebug,
	})).With("module", Module, "version", version)
}

// NewLogLogger creates a standard library log.Logger backed by slog, for
// components such as http.Server that only accept *log.Logger.
func NewLogLogger(level slog.Level, withSource bool) *log.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: withSource,
	})

	return slog.NewLogLogger(handler, level)
}

// SetDefault installs a stderr logger as the slog default.
// An empty level falls back to the LOG_LEVEL environment variable.
func SetDefault(version, level string) {
	if level == "" {
		level = os.Getenv(EnvVarLogLevel)
	}
	slog.SetDefault(New(os.Stderr, version, level))
}

// ParseLogLevel converts "debug", "info", "warn" or "error" into a slog.Level.
// Unrecognized strings yield slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
