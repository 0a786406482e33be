// File: api/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package api defines the Processor boundary.

package api

import "context"

// Processor interprets a request payload and produces a complete response payload.
// Implementations must answer every request, error responses included.
type Processor interface {
	Process(ctx context.Context, request string) string
}

// ProcessorFunc adapts an ordinary function to Processor.
type ProcessorFunc func(ctx context.Context, request string) string

// Process calls f(ctx, request).
func (f ProcessorFunc) Process(ctx context.Context, request string) string {
	return f(ctx, request)
}
