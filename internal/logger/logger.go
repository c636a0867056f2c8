// Package logger configures the structured logger used by the jsfront
// commands.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is the minimum severity that gets logged.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Config holds logger configuration
type Config struct {
	Level     Level
	Format    string // "text" or "json"
	Output    io.Writer
	AddSource bool
	LogFile   string
}

// DefaultConfig logs warnings and errors as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// New builds a logger from cfg. The returned close function releases the
// log file, if one was opened, and is never nil.
func New(cfg Config) (*slog.Logger, func() error, error) {
	closeFn := func() error { return nil }

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file: %w", err)
		}
		output = file
		closeFn = file.Close
	}

	opts := &slog.HandlerOptions{
		Level:     toSlogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		_ = closeFn()
		return nil, func() error { return nil }, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), closeFn, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Phase logs the start of a front-end phase such as "parse" or "encode".
func Phase(log *slog.Logger, phase, source string) {
	log.Debug("starting phase", "phase", phase, "source", source)
}

// PhaseComplete logs the end of a phase with a count of what it produced.
func PhaseComplete(log *slog.Logger, phase, source string, count int) {
	log.Info("completed phase", "phase", phase, "source", source, "count", count)
}

// Diagnostic logs one compiler diagnostic at the given level.
func Diagnostic(log *slog.Logger, level slog.Level, source string, line, column int, msg string) {
	log.Log(context.Background(), level, "diagnostic",
		"source", source,
		"line", line,
		"column", column,
		"message", msg)
}
