// File: internal/logging/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package logging owns the process-wide structured logger.

package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/momentics/mediagate/api"
)

// EnvLogLevel names the environment variable consulted when no level is given explicitly.
const EnvLogLevel = "MEDIAGATE_LOG_LEVEL"

var (
	level    = new(slog.LevelVar)
	mu       sync.RWMutex
	global   *slog.Logger
	initOnce sync.Once
	format   = "json"
)

// Init installs the default JSON logger on stdout. The first call wins; SetLevel,
// SetFormat and UseWriter change the state afterwards.
func Init() {
	initOnce.Do(func() {
		if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
			level.Set(lvl)
		}
		mu.Lock()
		global = newLogger(os.Stdout, format)
		mu.Unlock()
	})
}

func newLogger(w io.Writer, f string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	}
	return 0, false
}

// SetLevel changes the runtime log level.
func SetLevel(name string) error {
	Init()
	lvl, ok := ParseLevel(name)
	if !ok {
		return errors.New("invalid log level: " + name)
	}
	level.Set(lvl)
	return nil
}

// Level returns the current runtime level name.
func Level() string {
	Init()
	return level.Level().String()
}

// SetFormat switches between "json" and "text" output on stdout.
func SetFormat(f string) error {
	Init()
	if f != "json" && f != "text" {
		return errors.New("invalid log format: " + f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	global = newLogger(os.Stdout, f)
	return nil
}

// UseWriter redirects output, mostly for tests. The current level and format are kept.
func UseWriter(w io.Writer) {
	Init()
	mu.Lock()
	defer mu.Unlock()
	global = newLogger(w, format)
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	Init()
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// WithConn attaches connection identity fields.
func WithConn(l *slog.Logger, h api.ConnHandle, remote string) *slog.Logger {
	return l.With("conn", h.String(), "remote", remote)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
