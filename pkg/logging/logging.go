// Package logging is the structured logger shared by every compiler stage.
// Calls take a message followed by alternating key/value pairs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/xyproto/env/v2"
)

// EnvLevel names the environment variable holding the default log level
const EnvLevel = "RALPH_ILC_LOG"

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stderr)
)

func init() {
	level.Set(ParseLevel(env.Str(EnvLevel, "warn")))
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a level name to a slog level. Unknown names map to warn.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// SetLevel changes the minimum level that gets written
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects log output, mostly for tests and the CLI's errOut
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Enabled reports whether messages at l would be written
func Enabled(l slog.Level) bool {
	return l >= level.Level()
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}
