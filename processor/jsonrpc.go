// File: processor/jsonrpc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package processor provides a small JSON-RPC 2.0 request processor so the
// front-end can run on its own.

package processor

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/momentics/mediagate/api"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
)

// Supported methods.
const (
	MethodConnect = "connect"
	MethodPing    = "ping"
	MethodRelease = "release"
)

// JSONRPC answers connect, ping and release. connect confirms the sessionId the
// client sent or mints a new one; the transport registers whichever ends up in
// result.sessionId.
type JSONRPC struct {
	log *slog.Logger
}

// NewJSONRPC returns a processor logging through log, or slog.Default when nil.
func NewJSONRPC(log *slog.Logger) *JSONRPC {
	if log == nil {
		log = slog.Default()
	}
	return &JSONRPC{log: log.With("component", "processor")}
}

var _ api.Processor = (*JSONRPC)(nil)

func (p *JSONRPC) Process(ctx context.Context, request string) string {
	if !gjson.Valid(request) {
		return errorResponse("null", CodeParseError, "Parse error")
	}
	req := gjson.Parse(request)
	id := rawID(req.Get("id"))
	method := req.Get("method")
	if !req.IsObject() || method.Type != gjson.String {
		return errorResponse(id, CodeInvalidRequest, "Invalid Request")
	}

	sessionID := req.Get("params.sessionId").String()
	if h, ok := api.ConnHandleFrom(ctx); ok {
		p.log.Debug("request", "method", method.Str, "conn", h.String(), "session", sessionID)
	}

	switch method.Str {
	case MethodConnect:
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		return resultResponse(id, map[string]any{"sessionId": sessionID})
	case MethodPing:
		res := map[string]any{"value": "pong"}
		if sessionID != "" {
			res["sessionId"] = sessionID
		}
		return resultResponse(id, res)
	case MethodRelease:
		return resultResponse(id, map[string]any{"released": sessionID != ""})
	default:
		return errorResponse(id, CodeMethodNotFound, "Method not found")
	}
}

// rawID keeps numeric and string ids verbatim and maps anything else to null.
func rawID(id gjson.Result) string {
	if id.Type == gjson.Number || id.Type == gjson.String {
		return id.Raw
	}
	return "null"
}

func resultResponse(id string, result map[string]any) string {
	out, _ := sjson.SetRaw(`{"jsonrpc":"2.0"}`, "id", id)
	out, _ = sjson.Set(out, "result", result)
	return out
}

func errorResponse(id string, code int, message string) string {
	out, _ := sjson.SetRaw(`{"jsonrpc":"2.0"}`, "id", id)
	out, _ = sjson.Set(out, "error.code", code)
	out, _ = sjson.Set(out, "error.message", message)
	return out
}
