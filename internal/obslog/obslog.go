// Package obslog is the structured logger backing syncengine.Logger. It
// logs bracketed-tag lines with key=value pairs after the message, and
// can rotate its output file on size/age.
package obslog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the minimum severity a Logger will emit.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// ParseLevel maps the config.LogConfig.Level string to a Level, defaulting
// to LevelInfo for anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes "[SYNC] level msg key=value key=value" lines, at or above
// a configured minimum level, to stderr or a rotating file.
type Logger struct {
	min Level
	std *log.Logger
}

// New builds a Logger. An empty filePath logs to stderr; otherwise output
// is rotated via lumberjack (100MB per file, 7 backups, 28 days, compressed),
// keeping a bounded, compressed history on disk.
func New(level Level, filePath string) *Logger {
	var out io.Writer = os.Stderr
	if filePath != "" {
		out = &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     28,
			Compress:   true,
		}
	}
	return &Logger{min: level, std: log.New(out, "", log.LstdFlags)}
}

func (l *Logger) emit(level Level, tag, msg string, kv ...any) {
	if level < l.min {
		return
	}
	var b strings.Builder
	b.WriteString("[SYNC] ")
	b.WriteString(tag)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	l.std.Println(b.String())
}

func (l *Logger) Info(msg string, kv ...any)  { l.emit(LevelInfo, "INFO", msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.emit(LevelWarn, "WARN", msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.emit(LevelError, "ERROR", msg, kv...) }
