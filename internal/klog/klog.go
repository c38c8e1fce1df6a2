// Package klog is the kernel-core's log/slog wrapper: five severities
// (TRACE, DEBUG, INFO, WARNING, ERROR) plus a FATAL level for conditions
// the original kernel would have called panic() on, rendered as either
// plain text or JSON depending on configuration.
//
// Grounded on gcsfuse's internal/logger package: only its test files
// survived the retrieval (internal/logger/logger_test.go,
// async_logger_test.go), which is enough to recover the shape it tests
// against — a package-level *slog.Logger rebuilt by a factory that picks
// a text or JSON handler, custom severity names substituted for slog's
// default Debug/Info/Warn/Error, and a severity filter settable at
// runtime. This file reconstructs that shape rather than copying
// (non-test) source gcsfuse's own repo no longer has in this pack.
package klog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Level is one of the six kernel-core log severities, ordered least to
// most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// slogLevel maps a klog.Level onto the slog.Level space, spacing values by
// 4 the way slog's own LevelWarn/LevelError (4/8) are spaced from LevelInfo
// so custom levels interleave cleanly with any code that does raw
// arithmetic on slog levels.
func (l Level) slogLevel() slog.Level {
	return slog.Level((int(l) - int(LevelInfo)) * 4)
}

// Format selects the handler klog builds.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Logger wraps a *slog.Logger with the kernel-core's severity names and a
// runtime-adjustable level filter.
type Logger struct {
	slog    *slog.Logger
	levelVar *slog.LevelVar
	prefix  string
}

var defaultLogger = New(os.Stderr, FormatText, LevelInfo, "")

// New builds a Logger writing to w at format, filtering below minLevel.
// prefix, if non-empty, is prepended to every message (gcsfuse's
// "TestLogs: "-style prefix used to disambiguate concurrent test output).
func New(w io.Writer, format Format, minLevel Level, prefix string) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(minLevel.slogLevel())

	var h slog.Handler
	opts := &slog.HandlerOptions{
		Level: lv,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severity"
				a.Value = slog.StringValue(severityName(a.Value.Any().(slog.Level)))
			case slog.TimeKey:
				if format == FormatText {
					a.Value = slog.StringValue(a.Value.Time().Format("2006/01/02 15:04:05.000000"))
				} else {
					a.Key = "timestamp"
					t := a.Value.Time()
					a.Value = slog.GroupValue(
						slog.Int64("seconds", t.Unix()),
						slog.Int64("nanos", int64(t.Nanosecond())),
					)
				}
			}
			return a
		},
	}
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{slog: slog.New(h), levelVar: lv, prefix: prefix}
}

func severityName(l slog.Level) string {
	level := LevelInfo + Level(int(l)/4)
	return level.String()
}

// SetLevel adjusts the minimum severity logged, without rebuilding the
// handler.
func (lg *Logger) SetLevel(min Level) { lg.levelVar.Set(min.slogLevel()) }

func (lg *Logger) log(level Level, format string, args ...any) {
	msg := lg.prefix + fmt.Sprintf(format, args...)
	lg.slog.Log(context.Background(), level.slogLevel(), msg)
}

func (lg *Logger) Tracef(format string, args ...any)   { lg.log(LevelTrace, format, args...) }
func (lg *Logger) Debugf(format string, args ...any)   { lg.log(LevelDebug, format, args...) }
func (lg *Logger) Infof(format string, args ...any)    { lg.log(LevelInfo, format, args...) }
func (lg *Logger) Warningf(format string, args ...any) { lg.log(LevelWarning, format, args...) }
func (lg *Logger) Errorf(format string, args ...any)   { lg.log(LevelError, format, args...) }

// Fatalf logs at FATAL and panics, the kernel-core's analogue of the
// original kernel's panic(): there is no "come back from this" path.
func (lg *Logger) Fatalf(format string, args ...any) {
	msg := lg.prefix + fmt.Sprintf(format, args...)
	lg.log(LevelFatal, format, args...)
	panic(msg)
}

// SetDefault replaces the package-level default logger.
func SetDefault(lg *Logger) { defaultLogger = lg }

func Tracef(format string, args ...any)   { defaultLogger.Tracef(format, args...) }
func Debugf(format string, args ...any)   { defaultLogger.Debugf(format, args...) }
func Infof(format string, args ...any)    { defaultLogger.Infof(format, args...) }
func Warningf(format string, args ...any) { defaultLogger.Warningf(format, args...) }
func Errorf(format string, args ...any)   { defaultLogger.Errorf(format, args...) }
func Fatalf(format string, args ...any)   { defaultLogger.Fatalf(format, args...) }
