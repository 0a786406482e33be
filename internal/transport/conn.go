// File: internal/transport/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/protocol"
)

// Conn is one upgraded WebSocket connection. Reads happen on the connection's own
// goroutine only; writes may come from any goroutine and are serialized here.
type Conn struct {
	ws        *websocket.Conn
	handle    api.ConnHandle
	resource  string
	origin    string
	remote    string
	lifecycle protocol.Lifecycle

	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

func newConn(ws *websocket.Conn, resource, origin string, writeTimeout time.Duration) *Conn {
	remote := ""
	if addr := ws.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Conn{
		ws:           ws,
		handle:       api.NewConnHandle(),
		resource:     resource,
		origin:       origin,
		remote:       remote,
		writeTimeout: writeTimeout,
	}
}

// Handle returns the connection's identity.
func (c *Conn) Handle() api.ConnHandle { return c.handle }

// Resource returns the raw request target the client opened, query included.
func (c *Conn) Resource() string { return c.resource }

// Origin returns the Origin header sent with the upgrade request.
func (c *Conn) Origin() string { return c.origin }

// RemoteAddr returns the peer address as text.
func (c *Conn) RemoteAddr() string { return c.remote }

// State returns the lifecycle state.
func (c *Conn) State() protocol.ConnState { return c.lifecycle.State() }

// MarkOpen moves the connection to Open. It fails once the connection closed.
func (c *Conn) MarkOpen() bool { return c.lifecycle.Open() }

// ReadMessage blocks for the next data message.
func (c *Conn) ReadMessage() (api.MessageType, []byte, error) {
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		return 0, nil, err
	}
	return api.MessageType(mt), data, nil
}

// WriteMessage sends one data message with the given type.
func (c *Conn) WriteMessage(mt api.MessageType, data []byte) error {
	if c.State() == protocol.StateClosed {
		return api.ErrConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(int(mt), data); err != nil {
		return fmt.Errorf("write %s message: %w", mt, err)
	}
	return nil
}

// CloseWithStatus sends a close frame carrying code and reason, then closes the
// socket. It is safe to call concurrently with writes and with Close.
func (c *Conn) CloseWithStatus(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.lifecycle.Close()
		msg := websocket.FormatCloseMessage(code, reason)
		werr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(protocol.CloseWriteTimeout))
		cerr := c.ws.Close()
		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) && !errors.Is(werr, net.ErrClosed) {
			c.closeErr = fmt.Errorf("write close frame: %w", werr)
			return
		}
		c.closeErr = cerr
	})
	return c.closeErr
}

// Close closes the socket without a close frame.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.lifecycle.Close()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// IsNormalClose reports whether err is the expected end of a connection rather
// than a transport failure worth logging.
func IsNormalClose(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
