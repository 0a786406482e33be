// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server accepts WebSocket connections and feeds their open, message and close
// events through one shared EventLoop drained by a fixed pool of workers.
// Every connection's reader waits for each event to be handled before reading
// the next message, so a connection's messages are processed one at a time in
// arrival order while different connections proceed in parallel.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/control"
	"github.com/momentics/mediagate/internal/concurrency"
	"github.com/momentics/mediagate/internal/logging"
	"github.com/momentics/mediagate/internal/session"
	"github.com/momentics/mediagate/internal/transport"
	"github.com/momentics/mediagate/pool"
	"github.com/momentics/mediagate/protocol"
)

type Server struct {
	settings  Settings
	processor api.Processor
	log       *slog.Logger
	metrics   *control.Metrics
	probes    *control.DebugProbes

	ln           net.Listener
	readLimit    int64
	writeTimeout time.Duration

	listener *transport.WebSocketListener
	buffers  *pool.WriteBuffers
	loop     *concurrency.EventLoop
	workers  *concurrency.WorkerPool
	registry *session.Registry

	mu        sync.Mutex
	conns     map[api.ConnHandle]*transport.Conn
	started   bool
	stopped   bool
	serveDone chan struct{}
	readers   sync.WaitGroup
}

// New binds the listening socket and prepares the worker pool. Nothing is
// accepted until Start.
func New(settings Settings, processor api.Processor, opts ...ServerOption) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("server: nil processor: %w", api.ErrInvalidArgument)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		settings:     settings,
		processor:    processor,
		log:          logging.Logger(),
		loop:         concurrency.NewEventLoop(),
		registry:     session.NewRegistry(),
		buffers:      pool.NewWriteBuffers(),
		conns:        make(map[api.ConnHandle]*transport.Conn),
		writeTimeout: api.DefaultWriteTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "server")

	workers, err := concurrency.NewWorkerPool(s.loop, settings.Threads,
		concurrency.WithPoolLogger(s.log),
		concurrency.WithRestartHook(func(int, any) { s.metrics.WorkerRestarted() }),
	)
	if err != nil {
		return nil, err
	}
	s.workers = workers
	s.loop.RegisterHandler(concurrency.EventHandlerFunc(s.handleEvent))

	if s.ln == nil {
		addr := net.JoinHostPort("", strconv.Itoa(settings.Port))
		ln, err := transport.Listen(context.Background(), addr)
		if err != nil {
			return nil, err
		}
		s.ln = ln
	}
	s.listener = transport.NewWebSocketListener(s.ln,
		transport.WithListenerLogger(s.log),
		transport.WithReadLimit(s.readLimit),
		transport.WithWriteTimeout(s.writeTimeout),
		transport.WithWriteBufferPool(s.buffers),
	)
	s.registerProbes()
	return s, nil
}

func (s *Server) registerProbes() {
	if s.probes == nil {
		return
	}
	s.probes.RegisterProbe("server.sessions", func() any { return s.registry.Len() })
	s.probes.RegisterProbe("server.connections", func() any { return s.ConnectionCount() })
	s.probes.RegisterProbe("server.workers", func() any { return s.workers.Size() })
	s.probes.RegisterProbe("server.worker_restarts", func() any { return s.workers.Restarts() })
	s.probes.RegisterProbe("server.write_buffers", func() any { return s.buffers.Stats() })
	s.probes.RegisterProbe("event_loop.pending", func() any { return s.loop.Pending() })
	s.probes.RegisterProbe("event_loop.active", func() any { return s.loop.Active() })
	s.probes.RegisterProbe("event_loop.handled", func() any { return s.loop.Handled() })
}

// Start spawns the workers and begins accepting. It returns immediately.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return api.ErrServerClosed
	}
	if s.started {
		return api.ErrAlreadyRunning
	}
	if err := s.workers.Start(); err != nil {
		return err
	}
	s.started = true
	s.serveDone = make(chan struct{})
	go func() {
		defer close(s.serveDone)
		if err := s.listener.Serve(transport.ConnHandlerFunc(s.serveConn)); err != nil && !errors.Is(err, transport.ErrListenerClosed) {
			s.log.Error("websocket listener failed", "error", err)
		}
	}()
	s.log.Info("websocket server started",
		"addr", s.Addr().String(), "path", s.settings.Path, "threads", s.settings.Threads)
	return nil
}

// Stop closes the listener and every live connection with 1001, then stops the
// event loop, joins every worker and waits for the connection readers. Closing
// the connections first also aborts writes stuck on clients that stopped
// reading. Later calls are no-ops.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	live := make([]*transport.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		live = append(live, c)
	}
	s.mu.Unlock()

	err := s.listener.Close()
	if started {
		<-s.serveDone
	}
	for _, c := range live {
		_ = c.CloseWithStatus(protocol.CloseGoingAway, protocol.ReasonServerShutdown)
	}
	if perr := s.workers.Stop(); perr != nil && err == nil {
		err = perr
	}
	s.readers.Wait()

	s.log.Info("websocket server stopped", "sessions", s.registry.Len())
	return err
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Settings returns the settings the server was built with.
func (s *Server) Settings() Settings { return s.settings }

// Registry exposes the session registry for diagnostics.
func (s *Server) Registry() *session.Registry { return s.registry }

// ConnectionCount returns the number of connections currently being served.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Notify pushes payload as a text message to the connection that currently
// serves sessionID. Failures are *api.Error values wrapping ErrSessionNotFound,
// ErrConnClosed or the write error.
func (s *Server) Notify(sessionID string, payload []byte) (err error) {
	defer func() { s.metrics.Notified(notifyOutcome(err)) }()

	h, ok := s.registry.Lookup(sessionID)
	if !ok {
		return api.NewError(api.ErrCodeNotFound, "notify", sessionID, api.ErrSessionNotFound)
	}
	s.mu.Lock()
	c := s.conns[h]
	s.mu.Unlock()
	if c == nil {
		return api.NewError(api.ErrCodeNotFound, "notify", sessionID, api.ErrConnClosed)
	}
	if err := c.WriteMessage(api.TextMessage, payload); err != nil {
		return api.NewError(api.ErrCodeInternal, "notify", sessionID, err)
	}
	return nil
}

func notifyOutcome(err error) string {
	switch api.CodeOf(err) {
	case api.ErrCodeOK:
		return "sent"
	case api.ErrCodeNotFound:
		if errors.Is(err, api.ErrSessionNotFound) {
			return "no_session"
		}
	}
	return "failed"
}

// serveConn runs on the connection's own goroutine for the connection's whole life.
func (s *Server) serveConn(c *transport.Conn) {
	if !s.track(c) {
		_ = c.CloseWithStatus(protocol.CloseGoingAway, protocol.ReasonServerShutdown)
		return
	}
	defer s.untrack(c)
	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	opened := s.loop.Dispatch(concurrency.Event{Kind: concurrency.EventOpen, Data: &connEvent{conn: c}})
	if opened && c.State() == protocol.StateOpen {
		s.readLoop(c)
	}
	_ = c.Close()

	if !s.loop.Dispatch(concurrency.Event{Kind: concurrency.EventClose, Data: &connEvent{conn: c}}) {
		// Loop already stopped; the registry must still forget the connection.
		s.onClose(c)
	}
}

func (s *Server) readLoop(c *transport.Conn) {
	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			if !transport.IsNormalClose(err) && c.State() != protocol.StateClosed {
				s.connLogger(c).Debug("connection read failed", "error", err)
			}
			return
		}
		ev := &connEvent{conn: c, msgType: mt, payload: data, received: time.Now()}
		if !s.loop.Dispatch(concurrency.Event{Kind: concurrency.EventMessage, Data: ev}) {
			return
		}
	}
}

// handleEvent runs on a worker goroutine.
func (s *Server) handleEvent(ev concurrency.Event) {
	ce, ok := ev.Data.(*connEvent)
	if !ok {
		return
	}
	switch ev.Kind {
	case concurrency.EventOpen:
		s.onOpen(ce.conn)
	case concurrency.EventMessage:
		s.handleMessage(ce)
	case concurrency.EventClose:
		s.onClose(ce.conn)
	}
}

func (s *Server) track(c *transport.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[c.Handle()] = c
	s.readers.Add(1)
	return true
}

func (s *Server) untrack(c *transport.Conn) {
	s.mu.Lock()
	delete(s.conns, c.Handle())
	s.mu.Unlock()
	s.readers.Done()
}

func (s *Server) connLogger(c *transport.Conn) *slog.Logger {
	return logging.WithConn(s.log, c.Handle(), c.RemoteAddr())
}
