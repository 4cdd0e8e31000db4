package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names are
// info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// NewHandler builds the handler for cfg writing to w. verbose forces debug.
func NewHandler(w io.Writer, cfg config.LogConfig, verbose bool) slog.Handler {
	level := ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		// piped output keeps source locations for later triage
		opts.AddSource = level == slog.LevelDebug
	}
	return slog.NewTextHandler(w, opts)
}

// Setup installs the default logger on stderr. stdout stays reserved for
// command output and the MCP stdio transport.
func Setup(cfg config.LogConfig, verbose bool) *slog.Logger {
	l := slog.New(NewHandler(os.Stderr, cfg, verbose))
	slog.SetDefault(l)
	return l
}
