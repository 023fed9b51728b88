// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"context"
	"log/slog"

	"github.com/holomush/convex/pkg/plugin"
)

// Levels outside slog's built-in four.
const (
	LevelTrace = slog.LevelDebug - 4
	LevelFatal = slog.LevelError + 4
)

// Level maps a plugin severity onto a slog level. Unknown severities log
// at info.
func Level(s plugin.Severity) slog.Level {
	switch s {
	case plugin.SeverityTrace:
		return LevelTrace
	case plugin.SeverityDebug:
		return slog.LevelDebug
	case plugin.SeverityWarning:
		return slog.LevelWarn
	case plugin.SeverityError:
		return slog.LevelError
	case plugin.SeverityFatal:
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a severity name such as "warning" into a slog level.
func ParseLevel(name string) (slog.Level, error) {
	s, err := plugin.ParseSeverity(name)
	if err != nil {
		return slog.LevelInfo, err //nolint:wrapcheck // already coded
	}
	return Level(s), nil
}

// Write logs text at the level matching severity.
func Write(ctx context.Context, logger *slog.Logger, severity plugin.Severity, text string, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(ctx, Level(severity), text, attrs...)
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch {
	case level < slog.LevelDebug:
		a.Value = slog.StringValue("TRACE")
	case level >= LevelFatal:
		a.Value = slog.StringValue("FATAL")
	}
	return a
}
