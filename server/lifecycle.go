// File: server/lifecycle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/internal/transport"
	"github.com/momentics/mediagate/protocol"
)

// onOpen admits the connection when its resource matches the configured path
// and closes it with a protocol error otherwise.
func (s *Server) onOpen(c *transport.Conn) {
	log := s.connLogger(c)
	log.Info("websocket connection opened", "origin", c.Origin(), "resource", c.Resource())

	if !protocol.MatchResource(c.Resource(), s.settings.Path) {
		err := api.NewError(api.ErrCodeProtocol, "open", protocol.ReasonInvalidPath, nil)
		log.Error("rejecting connection", "resource", c.Resource(), "path", s.settings.Path, "error", err)
		s.metrics.ConnRejected()
		_ = c.CloseWithStatus(protocol.CloseProtocolError, protocol.ReasonInvalidPath)
		return
	}
	if !c.MarkOpen() {
		log.Debug("connection closed before it could open")
	}
}

// onClose forgets the session bound to the connection, if any.
func (s *Server) onClose(c *transport.Conn) {
	if id, ok := s.registry.RemoveByHandle(c.Handle()); ok {
		s.connLogger(c).Debug("session released", "session", id)
	}
	s.metrics.SessionsSet(s.registry.Len())
}
