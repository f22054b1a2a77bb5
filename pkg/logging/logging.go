package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is an slog level; the aliases below keep callers from importing
// log/slog just for constants.
type Level = slog.Level

// Levels accepted by ParseLevel.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the record encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes one log destination. The zero value writes info-level
// text records to stderr.
type Config struct {
	Level     Level
	Format    Format
	Output    io.Writer // nil means os.Stderr
	AddSource bool
}

// New returns a logger for cfg.
func New(cfg Config) *slog.Logger {
	return slog.New(NewHandler(cfg))
}

// NewHandler returns the handler New would use. Combine several with
// NewMultiHandler to write one record to more than one place.
func NewHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Nop discards everything. Components fall back to it when no logger is
// injected.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel maps a config or flag value to a Level. Case and surrounding
// blanks are ignored; unknown names mean LevelInfo.
func ParseLevel(s string) Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return LevelInfo
}

// ParseFormat returns FormatJSON for "json" in any case and FormatText for
// everything else.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
