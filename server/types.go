// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package server implements the WebSocket transport front-end.

package server

import (
	"time"

	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/internal/transport"
)

// Settings holds the validated front-end parameters.
type Settings struct {
	Port    int    // TCP port, 1..65535
	Path    string // accepted resource, without leading '/'
	Threads int    // event loop workers
}

// DefaultSettings returns port 9090, path "kurento" and 10 workers.
func DefaultSettings() Settings {
	return Settings{Port: api.DefaultPort, Path: api.DefaultPath, Threads: api.DefaultThreads}
}

// Configure validates the three front-end parameters. Invalid values fail with
// *api.ConfigurationError; substituting defaults is left to the caller.
func Configure(port int, path string, threads int) (Settings, error) {
	s := Settings{Port: port, Path: path, Threads: threads}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every field and returns the first violation.
func (s Settings) Validate() error {
	if err := api.ValidatePort(s.Port); err != nil {
		return err
	}
	if err := api.ValidatePath(s.Path); err != nil {
		return err
	}
	return api.ValidateThreads(s.Threads)
}

// connEvent is the payload of every event the server puts on its loop.
type connEvent struct {
	conn     *transport.Conn
	msgType  api.MessageType
	payload  []byte
	received time.Time
}
