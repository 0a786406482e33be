// File: internal/concurrency/eventloop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package concurrency implements the shared event loop driven by the worker pool.
//
// Any number of goroutines may call Run on the same EventLoop; each dequeues the
// next pending event and delivers it to the registered handlers. Stop drops every
// event that has not started and releases its producer.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// EventKind classifies connection events.
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the loop.
type Event struct {
	Kind EventKind
	Data any
}

// EventHandler consumes events on a worker goroutine.
type EventHandler interface {
	HandleEvent(ev Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ev Event)

func (f EventHandlerFunc) HandleEvent(ev Event) { f(ev) }

// pending carries an event plus its completion signal through the queue.
type pending struct {
	ev      Event
	done    chan struct{}
	dropped bool
}

func (p *pending) finish(dropped bool) {
	p.dropped = dropped
	close(p.done)
}

type EventLoop struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    *queue.Queue // of *pending
	closed   bool
	handlers atomic.Value // []EventHandler
	active   atomic.Int32
	handled  atomic.Int64
}

// NewEventLoop creates an open EventLoop with no handlers.
func NewEventLoop() *EventLoop {
	el := &EventLoop{queue: queue.New()}
	el.cond = sync.NewCond(&el.mu)
	el.handlers.Store([]EventHandler{})
	return el
}

// Pending returns the number of queued, not yet started events.
func (el *EventLoop) Pending() int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.queue.Length()
}

// Active returns how many goroutines are currently inside Run.
func (el *EventLoop) Active() int { return int(el.active.Load()) }

// Handled returns the number of events delivered so far.
func (el *EventLoop) Handled() int64 { return el.handled.Load() }

// RegisterHandler appends h to the handler list. Handlers see every event in
// registration order.
func (el *EventLoop) RegisterHandler(h EventHandler) {
	el.mu.Lock()
	defer el.mu.Unlock()
	old := el.handlers.Load().([]EventHandler)
	next := make([]EventHandler, 0, len(old)+1)
	next = append(next, old...)
	el.handlers.Store(append(next, h))
}

// Dispatch enqueues ev and blocks until a worker has handled it. It returns false
// if the loop stopped before the event was handled.
func (el *EventLoop) Dispatch(ev Event) bool {
	p := &pending{ev: ev, done: make(chan struct{})}
	if !el.enqueue(p) {
		return false
	}
	<-p.done
	return !p.dropped
}

func (el *EventLoop) enqueue(p *pending) bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed {
		return false
	}
	el.queue.Add(p)
	el.cond.Signal()
	return true
}

// next blocks until an event is available or the loop is stopped.
func (el *EventLoop) next() (*pending, bool) {
	el.mu.Lock()
	defer el.mu.Unlock()
	for el.queue.Length() == 0 && !el.closed {
		el.cond.Wait()
	}
	if el.closed {
		return nil, false
	}
	return el.queue.Remove().(*pending), true
}

// Run processes events until Stop is called. A panic raised by a handler
// propagates to the caller after the event's producer has been released.
func (el *EventLoop) Run() {
	el.active.Add(1)
	defer el.active.Add(-1)
	for {
		p, ok := el.next()
		if !ok {
			return
		}
		el.deliver(p)
	}
}

func (el *EventLoop) deliver(p *pending) {
	defer p.finish(false)
	el.handled.Add(1)
	for _, h := range el.handlers.Load().([]EventHandler) {
		h.HandleEvent(p.ev)
	}
}

// Stopped reports whether Stop has been called.
func (el *EventLoop) Stopped() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.closed
}

// Stop wakes every Run call so it returns, and drops queued events. Events already
// being handled run to completion. Stop does not wait for Run callers to exit.
func (el *EventLoop) Stop() {
	el.mu.Lock()
	if el.closed {
		el.mu.Unlock()
		return
	}
	el.closed = true
	var dropped []*pending
	for el.queue.Length() > 0 {
		dropped = append(dropped, el.queue.Remove().(*pending))
	}
	el.cond.Broadcast()
	el.mu.Unlock()

	for _, p := range dropped {
		p.finish(true)
	}
}
