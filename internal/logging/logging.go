package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps debug|info|warn|error to a Level. Unknown input is warn.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "error":
		return LevelError
	default:
		return LevelWarn
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return "warn"
	}
}

// Logger gates a standard *log.Logger by level.
type Logger struct {
	*log.Logger
	level Level
}

// New returns a Logger writing to w with the healthviewer prefix.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "healthviewer: ", log.LstdFlags),
		level:  level,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// With returns a copy whose lines carry the given key=value pair.
func (l *Logger) With(key string, value any) *Logger {
	prefix := fmt.Sprintf("%s%s=%v ", l.Prefix(), key, value)
	return &Logger{
		Logger: log.New(l.Writer(), prefix, l.Flags()),
		level:  l.level,
	}
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	l.Output(3, "["+level.String()+"] "+fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
