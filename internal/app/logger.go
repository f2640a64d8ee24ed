package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the application logger. Production always emits JSON for
// the log pipeline; elsewhere LOG_FORMAT picks the handler, defaulting to
// human readable text.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && (cfg.IsProduction() || cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
