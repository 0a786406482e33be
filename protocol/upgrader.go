// File: protocol/upgrader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package protocol holds the connection-open rules of the media-control endpoint.
//
// A client opens a WebSocket against a resource such as "/kurento?token=x".
// The resource is accepted when, after removing one leading separator and any
// query component, it equals the configured path exactly.

package protocol

import (
	"strings"
	"time"
)

// Close status codes used by the endpoint (RFC 6455 section 7.4.1).
const (
	CloseGoingAway     = 1001
	CloseProtocolError = 1002
)

// Close reasons.
const (
	ReasonInvalidPath    = "Invalid path"
	ReasonServerShutdown = "Server shutting down"
)

// CloseWriteTimeout bounds how long a close frame may take to write.
const CloseWriteTimeout = time.Second

// NormalizeResource strips a single leading '/' and drops everything from the
// first '?' on.
func NormalizeResource(resource string) string {
	resource = strings.TrimPrefix(resource, "/")
	if i := strings.IndexByte(resource, '?'); i >= 0 {
		resource = resource[:i]
	}
	return resource
}

// MatchResource reports whether resource addresses the configured path.
func MatchResource(resource, path string) bool {
	return NormalizeResource(resource) == path
}
