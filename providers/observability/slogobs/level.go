package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug and is used by Observer.Trace.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel parses TRACE, DEBUG, INFO, WARN/WARNING or ERROR (any case).
// The boolean is false for unknown input, in which case INFO is returned.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// GetLogLevelFromEnv reads FINCHAT_LOG_LEVEL, then LOG_LEVEL. Default INFO.
func GetLogLevelFromEnv() slog.Level {
	value := os.Getenv("FINCHAT_LOG_LEVEL")
	if value == "" {
		value = os.Getenv("LOG_LEVEL")
	}
	level, _ := ParseLevel(value)
	return level
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
