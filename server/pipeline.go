// File: server/pipeline.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/internal/session"
)

const internalErrorEnvelope = `{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal error"},"id":null}`

// handleMessage processes one inbound message and answers on the same connection
// with the same message type.
func (s *Server) handleMessage(ev *connEvent) {
	c := ev.conn
	log := s.connLogger(c)
	request := string(ev.payload)
	log.Debug("message received", "type", ev.msgType.String(), "request", request)

	response := s.process(ev, request)
	log.Debug("sending response", "response", response)

	if id, ok := session.ExtractSessionID(request, response); ok {
		switch s.registry.Put(id, c.Handle()) {
		case session.Displaced:
			log.Warn("session moved to a new connection", "session", id)
			s.metrics.SessionDisplaced()
		case session.Inserted:
			log.Debug("session registered", "session", id)
		}
		s.metrics.SessionsSet(s.registry.Len())
	}

	if err := c.WriteMessage(ev.msgType, []byte(response)); err != nil {
		log.Warn("could not send response", "error", err)
		return
	}
	s.metrics.MessageHandled(ev.msgType.String(), time.Since(ev.received))
}

// process calls the processor, turning a panic into a generic error response.
func (s *Server) process(ev *connEvent, request string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			s.connLogger(ev.conn).Error("request processor failed",
				"panic", r, "stack", string(debug.Stack()))
			s.metrics.ProcessorFailed()
			response = internalErrorResponse(request)
		}
	}()
	ctx := api.WithConnHandle(context.Background(), ev.conn.Handle())
	return s.processor.Process(ctx, request)
}

// internalErrorResponse builds the JSON-RPC internal error, echoing the request
// id when it is a number or a string.
func internalErrorResponse(request string) string {
	if !gjson.Valid(request) {
		return internalErrorEnvelope
	}
	id := gjson.Get(request, "id")
	if id.Type != gjson.Number && id.Type != gjson.String {
		return internalErrorEnvelope
	}
	out, err := sjson.SetRaw(internalErrorEnvelope, "id", id.Raw)
	if err != nil {
		return internalErrorEnvelope
	}
	return out
}
