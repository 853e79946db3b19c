// Package logging provides the leveled logger both tools use. daykit also
// appends every entry to the automation log file; prflow logs to the console only.
//
// Every entry has the form "[timestamp] [LEVEL] message". Entries are written to
// an optional log file and mirrored to the console, with the level colored.
package logging

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Level is the severity attached to a log entry
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Rank orders levels by severity; unknown levels rank lowest
func (l Level) Rank() int {
	switch l {
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	}
	return 0
}

// ParseLevel accepts a level name in any case. WARNING is accepted for WARN.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q (use info, warn or error)", s)
}

// TimeFormat is the timestamp layout of every entry
const TimeFormat = time.RFC3339

var levelColors = map[Level]*color.Color{
	LevelInfo:  color.New(color.Reset),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

// Logger writes timestamped entries to a file and the console.
// It is not safe for concurrent use; both tools are single-threaded.
type Logger struct {
	file    *os.File
	buf     *bufio.Writer
	fileLog *log.Logger
	console io.Writer
	now     func() time.Time
	session string
}

// New creates a console-only logger
func New(console io.Writer) *Logger {
	return &Logger{
		console: console,
		now:     time.Now,
		session: uuid.NewString(),
	}
}

// Open creates a logger that appends to path, creating the file and its parent
// directory if needed. Close must be called to flush buffered entries.
func Open(path string, console io.Writer) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l := New(console)
	l.file = f
	l.buf = bufio.NewWriter(f)
	l.fileLog = log.New(l.buf, "", 0)
	return l, nil
}

// WithClock replaces the timestamp source. Used by tests.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Session returns the identifier generated for this logger's process run
func (l *Logger) Session() string {
	return l.session
}

// Info logs at INFO level
func (l *Logger) Info(format string, a ...any) {
	l.Log(LevelInfo, format, a...)
}

// Warn logs at WARN level
func (l *Logger) Warn(format string, a ...any) {
	l.Log(LevelWarn, format, a...)
}

// Error logs at ERROR level
func (l *Logger) Error(format string, a ...any) {
	l.Log(LevelError, format, a...)
}

// Log formats and writes a single entry at the given level
func (l *Logger) Log(level Level, format string, a ...any) {
	if l == nil {
		return
	}

	entry := fmt.Sprintf("[%s] [%s] %s", l.now().Format(TimeFormat), level, fmt.Sprintf(format, a...))

	if l.fileLog != nil {
		l.fileLog.Println(entry)
	}

	if l.console != nil {
		c, ok := levelColors[level]
		if !ok {
			c = levelColors[LevelInfo]
		}
		c.Fprintln(l.console, entry)
	}
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	if err := l.buf.Flush(); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to flush log file: %w", err)
	}

	err := l.file.Close()
	l.file = nil
	l.fileLog = nil
	return err
}
