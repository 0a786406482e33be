// File: internal/concurrency/threadpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WorkerPool runs a fixed number of goroutines over one shared EventLoop.

package concurrency

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/mediagate/api"
)

// PoolOption customizes a WorkerPool.
type PoolOption func(*WorkerPool)

// WithPoolLogger sets the logger used to report recovered panics.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *WorkerPool) { p.log = l }
}

// WithRestartHook is called after a worker recovered from a panic and before it
// re-enters the loop.
func WithRestartHook(fn func(worker int, recovered any)) PoolOption {
	return func(p *WorkerPool) { p.onRestart = fn }
}

type WorkerPool struct {
	loop      *EventLoop
	size      int
	log       *slog.Logger
	onRestart func(worker int, recovered any)

	mu       sync.Mutex
	group    *errgroup.Group
	started  bool
	stopped  bool
	restarts atomic.Int64
}

// NewWorkerPool builds a pool of size workers. size must be at least one.
func NewWorkerPool(loop *EventLoop, size int, opts ...PoolOption) (*WorkerPool, error) {
	if loop == nil {
		return nil, fmt.Errorf("worker pool: nil event loop: %w", api.ErrInvalidArgument)
	}
	if size < 1 {
		return nil, &api.ConfigurationError{Key: "threads", Value: size, Reason: "must be >= 1"}
	}
	p := &WorkerPool{loop: loop, size: size, log: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Size returns the configured number of workers.
func (p *WorkerPool) Size() int { return p.size }

// Restarts returns how many times a worker re-entered the loop after a panic.
func (p *WorkerPool) Restarts() int64 { return p.restarts.Load() }

// Start spawns the workers and returns immediately.
func (p *WorkerPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return api.ErrAlreadyRunning
	}
	p.started = true
	p.group = new(errgroup.Group)
	for i := 0; i < p.size; i++ {
		id := i
		p.group.Go(func() error {
			p.work(id)
			return nil
		})
	}
	return nil
}

// work keeps the worker inside the loop until the loop stops cleanly.
func (p *WorkerPool) work(id int) {
	for {
		recovered, stack, panicked := p.runGuarded()
		if !panicked {
			return
		}
		p.restarts.Add(1)
		p.log.Error("unexpected error while running the event loop",
			"worker", id, "panic", recovered, "stack", string(stack))
		if p.onRestart != nil {
			p.onRestart(id, recovered)
		}
		if p.loop.Stopped() {
			return
		}
	}
}

func (p *WorkerPool) runGuarded() (recovered any, stack []byte, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			recovered, stack, panicked = r, debug.Stack(), true
		}
	}()
	p.loop.Run()
	return nil, nil, false
}

// Stop stops the loop and joins every worker. Calling it again, or before Start,
// is a no-op.
func (p *WorkerPool) Stop() error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	g := p.group
	p.mu.Unlock()

	p.loop.Stop()
	return g.Wait()
}
