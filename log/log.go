// Package log builds the slog loggers used by imgbench.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Levels accepted by --log-level. Trace and crit extend slog's four.
const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = slog.LevelError + 4
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelCrit:  "CRIT",
}

// ParseLevel maps a --log-level value to its slog level, ignoring case.
func ParseLevel(name string) (slog.Level, error) {
	upper := strings.ToUpper(name)
	for lvl, n := range levelNames {
		if n == upper {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("log: unknown level %q (want trace, debug, info, warn, error or crit)", name)
}

// LevelName is the name a record at l is printed with. Levels between the
// named ones fall back to slog's offset form, e.g. "INFO+2".
func LevelName(l slog.Level) string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return l.String()
}

// New returns a text logger writing records at or above level to w.
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelName(l))
				}
			}
			return a
		},
	})

	return slog.New(h), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
