// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vijay-prabhu/ipeds-prospector/internal/dataset"
)

// ParseLevel converts a config level name to a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Setup builds a logger writing to stderr and installs it as the default
func Setup(level, format string) (*slog.Logger, error) {
	return SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination
func SetupWriter(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// Warning logs a dropped-rows warning with its counts
func Warning(logger *slog.Logger, w dataset.DataQualityWarning) {
	if logger == nil || w.Empty() {
		return
	}
	logger.Warn("rows dropped",
		slog.String("stage", w.Stage),
		slog.String("reason", w.Reason),
		slog.Int("dropped", len(w.Dropped)),
		slog.Int("pool", w.Pool),
	)
}
