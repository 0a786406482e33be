// File: server/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log/slog"
	"net"
	"time"

	"github.com/momentics/mediagate/control"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the logger. The server adds its own component field.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records connection, message and session metrics on m.
func WithMetrics(m *control.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithDebugProbes registers the server's state probes on dp.
func WithDebugProbes(dp *control.DebugProbes) ServerOption {
	return func(s *Server) { s.probes = dp }
}

// WithListener serves on an already bound listener instead of binding
// Settings.Port. The server owns ln afterwards.
func WithListener(ln net.Listener) ServerOption {
	return func(s *Server) { s.ln = ln }
}

// WithReadLimit caps the size of one inbound message. Zero means unlimited.
func WithReadLimit(n int64) ServerOption {
	return func(s *Server) { s.readLimit = n }
}

// WithWriteTimeout bounds every response and notification write. The default
// is api.DefaultWriteTimeout; zero disables the bound.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.writeTimeout = d }
}
