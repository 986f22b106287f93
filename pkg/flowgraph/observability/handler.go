package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Log output formats accepted by NewLogger.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

type loggerConfig struct {
	level  slog.Level
	format string
	writer io.Writer
	source bool
}

// LoggerOption configures NewLogger.
type LoggerOption func(*loggerConfig)

// WithLevel sets the minimum level. Default Info.
func WithLevel(level slog.Level) LoggerOption {
	return func(c *loggerConfig) {
		c.level = level
	}
}

// WithFormat selects FormatText, FormatJSON or FormatPretty.
func WithFormat(format string) LoggerOption {
	return func(c *loggerConfig) {
		c.format = format
	}
}

// WithWriter overrides the output writer. Default os.Stderr; stdout
// carries the conversation.
func WithWriter(w io.Writer) LoggerOption {
	return func(c *loggerConfig) {
		c.writer = w
	}
}

// WithSource includes file:line in log output.
func WithSource(source bool) LoggerOption {
	return func(c *loggerConfig) {
		c.source = source
	}
}

// NewLogger builds a slog logger. Text and JSON use the stdlib handlers
// with "error" keys shortened to "err"; pretty uses charmbracelet/log.
func NewLogger(opts ...LoggerOption) *slog.Logger {
	cfg := loggerConfig{
		level:  slog.LevelInfo,
		format: FormatText,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.format == FormatPretty {
		return slog.New(charmlog.NewWithOptions(cfg.writer, charmlog.Options{
			Level:           charmLevel(cfg.level),
			ReportTimestamp: true,
			ReportCaller:    cfg.source,
		}))
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.source,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if cfg.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(cfg.writer, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(cfg.writer, handlerOpts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func charmLevel(level slog.Level) charmlog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmlog.DebugLevel
	case level <= slog.LevelInfo:
		return charmlog.InfoLevel
	case level <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
