// Package logger provides structured logging for the issue archive.
// Lines are written as JSON to stderr by default. When verbose mode is
// enabled via the --verbose flag, debug lines are emitted as well.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	pretty  bool
	output  io.Writer = os.Stderr
	base              = build()
)

// build creates the logger from the current settings (caller must hold lock
// or be in package init).
func build() zerolog.Logger {
	w := output
	if pretty {
		w = zerolog.ConsoleWriter{Out: output, NoColor: true}
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetPretty switches between JSON lines and human-readable console output.
func SetPretty(p bool) {
	mu.Lock()
	defer mu.Unlock()
	pretty = p
	base = build()
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// L returns the structured logger for field-based lines.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	L().Debug().Msg(fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func Info(format string, args ...any) {
	L().Info().Msg(fmt.Sprintf(format, args...))
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	L().Warn().Msg(fmt.Sprintf(format, args...))
}
