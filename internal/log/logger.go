package log

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	if int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	s := strings.ToUpper(strings.TrimSpace(levelStr))
	if s == "WARNING" {
		return LevelWarn, true
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i), true
		}
	}
	return LevelInfo, false
}

// --- Global Logger State ---

var currentLevel atomic.Uint32

// logger writes date and time with microseconds.
var logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

// holdMu serialises Hold and its release.
var holdMu sync.Mutex

func init() {
	SetLevel(LevelInfo)
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Writer returns the current log destination.
func Writer() io.Writer {
	return logger.Writer()
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Hold buffers log output until release is called, which restores the
// previous destination and writes the held lines to it. Used while another
// component owns the terminal. Release is idempotent.
func Hold() (release func()) {
	holdMu.Lock()
	held := &lockedBuffer{}
	prev := logger.Writer()
	logger.SetOutput(held)

	var once sync.Once
	return func() {
		once.Do(func() {
			logger.SetOutput(prev)
			held.WriteTo(prev)
			holdMu.Unlock()
		})
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}

func output(level LogLevel, msg string) {
	if level < GetLevel() {
		return
	}
	// Pad so messages line up after the widest tag.
	pad := strings.Repeat(" ", len("ERROR")-len(level.String())+1)
	logger.Output(3, "["+level.String()+"]"+pad+msg)
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) {
	if LevelDebug >= GetLevel() {
		output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) {
	if LevelInfo >= GetLevel() {
		output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) {
	output(LevelWarn, fmt.Sprintf(format, v...))
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) {
	output(LevelError, fmt.Sprintf(format, v...))
}

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) {
	logger.Output(2, "[FATAL] "+fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Debug logs a debug message if the level is appropriate.
func Debug(v ...any) {
	if LevelDebug >= GetLevel() {
		output(LevelDebug, fmt.Sprint(v...))
	}
}

// Info logs an info message if the level is appropriate.
func Info(v ...any) { output(LevelInfo, fmt.Sprint(v...)) }

// Warn logs a warning message if the level is appropriate.
func Warn(v ...any) { output(LevelWarn, fmt.Sprint(v...)) }

// Error logs an error message if the level is appropriate.
func Error(v ...any) { output(LevelError, fmt.Sprint(v...)) }

// Fatal logs a fatal message and exits the application.
func Fatal(v ...any) {
	logger.Output(2, "[FATAL] "+fmt.Sprint(v...))
	os.Exit(1)
}
