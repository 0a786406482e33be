// File: internal/transport/websocket_listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WebSocketListener owns the listening socket and upgrades every incoming HTTP
// request regardless of its path. Path gating is a connection-open concern and is
// applied after the upgrade, so a rejected client receives a proper close frame.

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrListenerClosed is returned by Serve after Close.
var ErrListenerClosed = errors.New("listener closed")

// ConnHandler takes ownership of an upgraded connection. ServeConn runs on the
// connection's own goroutine and the connection ends when it returns.
type ConnHandler interface {
	ServeConn(c *Conn)
}

// ConnHandlerFunc adapts a function to ConnHandler.
type ConnHandlerFunc func(c *Conn)

func (f ConnHandlerFunc) ServeConn(c *Conn) { f(c) }

// ListenerOption customizes a WebSocketListener.
type ListenerOption func(*WebSocketListener)

// WithListenerLogger sets the listener's logger.
func WithListenerLogger(l *slog.Logger) ListenerOption {
	return func(wsl *WebSocketListener) { wsl.log = l }
}

// WithReadLimit caps the size of one inbound message. Zero means unlimited.
func WithReadLimit(n int64) ListenerOption {
	return func(wsl *WebSocketListener) { wsl.readLimit = n }
}

// WithWriteTimeout bounds every outbound data message.
func WithWriteTimeout(d time.Duration) ListenerOption {
	return func(wsl *WebSocketListener) { wsl.writeTimeout = d }
}

// WithWriteBufferPool shares write buffers between connections.
func WithWriteBufferPool(bp websocket.BufferPool) ListenerOption {
	return func(wsl *WebSocketListener) { wsl.upgrader.WriteBufferPool = bp }
}

type WebSocketListener struct {
	listener     net.Listener
	httpServer   *http.Server
	upgrader     websocket.Upgrader
	log          *slog.Logger
	readLimit    int64
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Listen binds addr with SO_REUSEADDR set.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}

// NewWebSocketListener wraps an already bound listener.
func NewWebSocketListener(ln net.Listener, opts ...ListenerOption) *WebSocketListener {
	wsl := &WebSocketListener{
		listener: ln,
		log:      slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy belongs to authentication, which this endpoint does not do.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(wsl)
	}
	return wsl
}

// Addr returns the listener address.
func (wsl *WebSocketListener) Addr() net.Addr {
	return wsl.listener.Addr()
}

// Serve accepts connections until Close, handing every upgraded connection to h.
func (wsl *WebSocketListener) Serve(h ConnHandler) error {
	wsl.mu.Lock()
	if wsl.closed {
		wsl.mu.Unlock()
		return ErrListenerClosed
	}
	wsl.httpServer = &http.Server{
		Handler:           wsl.upgradeHandler(h),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(wsl.log.Handler(), slog.LevelDebug),
	}
	srv := wsl.httpServer
	wsl.mu.Unlock()

	err := srv.Serve(wsl.listener)
	if errors.Is(err, http.ErrServerClosed) {
		_ = wsl.listener.Close()
		return ErrListenerClosed
	}
	return err
}

func (wsl *WebSocketListener) upgradeHandler(h ConnHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := wsl.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error response.
			wsl.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		if wsl.readLimit > 0 {
			ws.SetReadLimit(wsl.readLimit)
		}
		h.ServeConn(newConn(ws, r.RequestURI, r.Header.Get("Origin"), wsl.writeTimeout))
	})
}

// Close stops accepting. Upgraded connections are hijacked from the HTTP server
// and are not closed here; their owner closes them.
func (wsl *WebSocketListener) Close() error {
	wsl.mu.Lock()
	defer wsl.mu.Unlock()
	if wsl.closed {
		return nil
	}
	wsl.closed = true
	if wsl.httpServer != nil {
		return wsl.httpServer.Close()
	}
	return wsl.listener.Close()
}
