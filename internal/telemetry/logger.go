package telemetry

import (
	"io"
	"log/slog"
	"strings"

	"github.com/af-corp/textguard/internal/config"
)

// NewLogger builds the process logger from telemetry settings. Unknown
// levels fall back to info and unknown formats to JSON.
func NewLogger(cfg config.TelemetryConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
