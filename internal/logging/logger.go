// Package logging wires the structured logger shared by the writer, reader
// and ring components. It wraps zerolog the way a long-lived component
// logs fields instead of formatted strings: record numbers, file names,
// compression types.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	current = zerolog.New(io.Discard).With().Timestamp().Logger()
)

// Set installs the logger used by every component in this module. Passing
// a disabled or Discard-backed logger silences logging entirely; this is
// the default until a caller opts in.
func Set(l zerolog.Logger) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// SetStderr installs a human-readable console logger writing to stderr at
// the given level, for interactive use (CLIs built on this module).
func SetStderr(level zerolog.Level) {
	w := zerolog.ConsoleWriter{Out: os.Stderr}
	Set(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

// For returns a child logger tagged with the given component name, e.g.
// "ring-writer" or "record-input".
func For(component string) zerolog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()

	return l.With().Str("component", component).Logger()
}
