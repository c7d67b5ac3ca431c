// Package monitoring holds the process-wide structured logger.
package monitoring

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	console "github.com/phsym/console-slog"
)

// Log output formats accepted by NewLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.Default())
}

// Logger returns the package logger. It defaults to slog.Default() but may
// be replaced by SetLogger.
func Logger() *slog.Logger {
	return defaultLogger.Load()
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	defaultLogger.Store(l)
}

// ParseLevel maps debug, info, warn and error to slog levels.
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

// NewLogger builds a logger writing to w. The console format is meant for
// terminals; json is for log collectors and renames the time key to "ts".
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		handler = console.NewHandler(w, &console.HandlerOptions{
			Level: lvl,
		})
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					a.Key = "ts"
				}
				return a
			},
		})
	default:
		return nil, fmt.Errorf("unknown log format %q: expected %s or %s", format, FormatConsole, FormatJSON)
	}
	return slog.New(handler), nil
}
