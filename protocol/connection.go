// File: protocol/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package protocol
//
// Connection lifecycle: Connecting -> Open -> Closed. Closed is terminal and a
// reconnect is always a new connection, so there is no way back.

package protocol

import "sync/atomic"

// ConnState is the lifecycle state of one connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle is a lock-free holder for ConnState that only permits forward transitions.
type Lifecycle struct {
	state atomic.Int32
}

// State returns the current state.
func (l *Lifecycle) State() ConnState {
	return ConnState(l.state.Load())
}

// Open moves Connecting to Open. It fails if the connection already closed.
func (l *Lifecycle) Open() bool {
	return l.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// Close moves any state to Closed and reports whether this call did it.
func (l *Lifecycle) Close() bool {
	for {
		cur := l.state.Load()
		if ConnState(cur) == StateClosed {
			return false
		}
		if l.state.CompareAndSwap(cur, int32(StateClosed)) {
			return true
		}
	}
}
