// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared API-level type declarations and constants.

package api

import (
	"github.com/oklog/ulid/v2"
)

// ConnHandle identifies one accepted connection. It is a value type: copies of the
// handle for the same connection compare equal and hash identically, and it stays
// meaningful as a map key after the connection itself is gone.
type ConnHandle struct {
	id ulid.ULID
}

// NewConnHandle issues a fresh handle. Handles are unique for the life of the process.
func NewConnHandle() ConnHandle {
	return ConnHandle{id: ulid.Make()}
}

// IsZero reports whether h was never issued.
func (h ConnHandle) IsZero() bool {
	return h.id == ulid.ULID{}
}

func (h ConnHandle) String() string {
	if h.IsZero() {
		return "conn-invalid"
	}
	return "conn-" + h.id.String()
}

// MessageType mirrors the WebSocket data opcodes a reply is sent with.
type MessageType int

const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}
