package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger for the configured environment. Production
// uses a JSON handler; otherwise text. LOG_LEVEL may be debug, info, warn, or
// error (default info).
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
