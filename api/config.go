// File: api/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Documented defaults and validation rules for the WebSocket front-end settings.

package api

import (
	"context"
	"strings"
	"time"
)

// Defaults applied when a setting is absent or invalid.
const (
	DefaultPort    = 9090
	DefaultPath    = "kurento"
	DefaultThreads = 10
)

// Write and read bounds applied when not configured. A zero read limit means unlimited.
const (
	DefaultWriteTimeout       = 10 * time.Second
	DefaultReadLimit    int64 = 0
)

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return &ConfigurationError{Key: "port", Value: port, Reason: "must be in 1..65535"}
	}
	return nil
}

// ValidateThreads checks the worker count.
func ValidateThreads(n int) error {
	if n < 1 {
		return &ConfigurationError{Key: "threads", Value: n, Reason: "must be >= 1"}
	}
	return nil
}

// ValidatePath checks the accepted resource path. The query separator can never
// survive resource normalization, so a path containing it would match nothing.
func ValidatePath(path string) error {
	if strings.ContainsRune(path, '?') {
		return &ConfigurationError{Key: "path", Value: path, Reason: "must not contain '?'"}
	}
	return nil
}

// ValidateWriteTimeout checks the per-write bound.
func ValidateWriteTimeout(d time.Duration) error {
	if d <= 0 {
		return &ConfigurationError{Key: "writeTimeout", Value: d, Reason: "must be > 0"}
	}
	return nil
}

// ValidateReadLimit checks the inbound message cap; zero disables it.
func ValidateReadLimit(n int64) error {
	if n < 0 {
		return &ConfigurationError{Key: "readLimit", Value: n, Reason: "must be >= 0"}
	}
	return nil
}

type connHandleKey struct{}

// WithConnHandle returns a context carrying the handle of the connection a
// request arrived on.
func WithConnHandle(ctx context.Context, h ConnHandle) context.Context {
	return context.WithValue(ctx, connHandleKey{}, h)
}

// ConnHandleFrom returns the connection handle stored by WithConnHandle.
func ConnHandleFrom(ctx context.Context) (ConnHandle, bool) {
	h, ok := ctx.Value(connHandleKey{}).(ConnHandle)
	return h, ok
}
