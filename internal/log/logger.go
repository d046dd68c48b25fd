// Package log installs the process-wide slog logger.
//
// Diagnostics never share stdout with reports: records go to stderr and,
// when log.outputs.file is enabled, to a rotating file as well.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"firestige.xyz/flowsniff/internal/config"
	"firestige.xyz/flowsniff/internal/core"
)

// Setup installs the default logger for one capture session. Every record
// carries session_id when sessionID is set. The returned func closes the
// log file, if any.
func Setup(cfg config.LogConfig, sessionID string) (func() error, error) {
	return setup(cfg, sessionID, os.Stderr)
}

func setup(cfg config.LogConfig, sessionID string, stderr io.Writer) (func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", core.ErrConfigInvalid, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	out := stderr
	closeFn := func() error { return nil }
	if fc := cfg.Outputs.File; fc.Enabled {
		if fc.Path == "" {
			return nil, fmt.Errorf("%w: log.outputs.file.path is required", core.ErrConfigInvalid)
		}
		rotating := &lumberjack.Logger{
			Filename:   fc.Path,
			MaxSize:    fc.Rotation.MaxSizeMB,
			MaxBackups: fc.Rotation.MaxBackups,
			MaxAge:     fc.Rotation.MaxAgeDays,
			Compress:   fc.Rotation.Compress,
		}
		out = io.MultiWriter(stderr, rotating)
		closeFn = rotating.Close
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("%w: log.format %q (must be json or text)", core.ErrConfigInvalid, cfg.Format)
	}

	logger := slog.New(handler)
	if sessionID != "" {
		logger = logger.With("session_id", sessionID)
	}
	slog.SetDefault(logger)
	return closeFn, nil
}
