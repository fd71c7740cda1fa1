// Package logging adapts zerolog to core.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Swind/go-coroutine-registry/core"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config selects the sink and verbosity of a Logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error. Defaults to info.
	Level string

	// Format is "console" (human readable) or "json". Defaults to console.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger is a core.Logger backed by zerolog. Its level can be changed at
// runtime, which the config watcher uses on reload.
type Logger struct {
	base  zerolog.Logger
	level *atomic.Int32
}

var _ core.Logger = (*Logger)(nil)

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	}

	l := &Logger{
		base:  zerolog.New(out).With().Timestamp().Logger(),
		level: new(atomic.Int32),
	}
	l.SetLevel(cfg.Level)
	return l
}

// Nop returns a Logger that never writes anything.
func Nop() *Logger {
	l := &Logger{base: zerolog.Nop(), level: new(atomic.Int32)}
	l.level.Store(int32(zerolog.Disabled))
	return l
}

// With returns a derived Logger that adds fields to every message. The
// derived logger shares its parent's level.
func (l *Logger) With(fields ...core.Field) *Logger {
	ctx := l.base.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &Logger{base: ctx.Logger(), level: l.level}
}

// SetLevel changes the minimum level. Unknown names select info.
func (l *Logger) SetLevel(level string) {
	l.level.Store(int32(ParseLevel(level, zerolog.InfoLevel)))
}

// Level returns the current minimum level.
func (l *Logger) Level() zerolog.Level {
	return zerolog.Level(l.level.Load())
}

func (l *Logger) Debug(msg string, fields ...core.Field) { l.log(zerolog.DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...core.Field)  { l.log(zerolog.InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...core.Field)  { l.log(zerolog.WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...core.Field) { l.log(zerolog.ErrorLevel, msg, fields) }

func (l *Logger) log(level zerolog.Level, msg string, fields []core.Field) {
	if threshold := l.Level(); threshold == zerolog.Disabled || level < threshold {
		return
	}
	e := l.base.WithLevel(level)
	if e == nil {
		return
	}
	for _, f := range fields {
		addField(e, f)
	}
	e.Msg(msg)
}

func addField(e *zerolog.Event, f core.Field) {
	switch v := f.Value.(type) {
	case nil:
		e.Interface(f.Key, nil)
	case string:
		e.Str(f.Key, v)
	case error:
		e.AnErr(f.Key, v)
	case time.Duration:
		e.Dur(f.Key, v)
	case int:
		e.Int(f.Key, v)
	case uint64:
		e.Uint64(f.Key, v)
	case float64:
		e.Float64(f.Key, v)
	case bool:
		e.Bool(f.Key, v)
	case fmt.Stringer:
		e.Stringer(f.Key, v)
	default:
		e.Interface(f.Key, v)
	}
}

// ParseLevel maps a level name to a zerolog level, returning def for
// unknown names.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return def
	}
}

// ValidLevel reports whether s names a level ParseLevel understands.
func ValidLevel(s string) bool {
	return ParseLevel(s, zerolog.NoLevel) != zerolog.NoLevel
}
