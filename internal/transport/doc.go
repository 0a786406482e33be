// File: internal/transport/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package transport
//
// WebSocket transport for the media-control front-end. A WebSocketListener owns
// the listening socket and performs HTTP upgrades with gorilla/websocket; every
// upgraded connection is wrapped in a Conn that carries its handle, the requested
// resource and its lifecycle state, and serializes writes.
package transport
