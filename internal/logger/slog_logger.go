package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// NewSlogLogger creates a standalone JSON logger writing to writer. It is
// mainly used by tests and by tools that run before configuration is loaded.
func NewSlogLogger(writer io.Writer, level LogLevel, timezone *time.Location) Logger {
	if writer == nil {
		writer = os.Stderr
	}
	if timezone == nil {
		timezone = time.UTC
	}
	slogLevel := parseSlogLevel(level)
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:       slogLevel,
		ReplaceAttr: timezoneReplacer(timezone),
	})
	return &moduleLogger{
		logger:   slog.New(handler),
		level:    slogLevel,
		timezone: timezone,
	}
}

// newTextHandler returns the console handler. Level names include TRACE.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	replaceTime := timezoneReplacer(tz)
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= traceLevelValue {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return replaceTime(groups, a)
		},
	})
}

func timezoneReplacer(tz *time.Location) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
			return slog.Time(slog.TimeKey, a.Value.Time().In(tz))
		}
		return a
	}
}
