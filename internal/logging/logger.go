package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger. Production uses JSON output for log
// aggregation, everything else the text handler. level is one of debug, info,
// warn or error; empty picks info in production and debug elsewhere.
func Init(env, level string) {
	production := strings.EqualFold(env, "production")

	lvl := slog.LevelDebug
	if production {
		lvl = slog.LevelInfo
	}
	if level != "" {
		lvl = ParseLevel(level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a level name to slog; unknown names are info.
func ParseLevel(level string) slog.Level {
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

// WithTurn returns a logger scoped to one conversation turn.
func WithTurn(turnID, userID string) *slog.Logger {
	return slog.With("turn_id", turnID, "user_id", userID)
}
