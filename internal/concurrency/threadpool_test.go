// File: internal/concurrency/threadpool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/mediagate/api"
	"github.com/momentics/mediagate/internal/logging"
)

func TestNewWorkerPool_Validation(t *testing.T) {
	_, err := NewWorkerPool(nil, 1)
	assert.True(t, errors.Is(err, api.ErrInvalidArgument))

	_, err = NewWorkerPool(NewEventLoop(), 0)
	assert.True(t, api.IsConfigurationError(err))
}

func TestWorkerPool_StartsExactlySizeWorkers(t *testing.T) {
	el := NewEventLoop()
	p, err := NewWorkerPool(el, 4)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	assert.ErrorIs(t, p.Start(), api.ErrAlreadyRunning)

	require.Eventually(t, func() bool { return el.Active() == 4 }, time.Second, time.Millisecond)
	require.NoError(t, p.Stop())
	assert.Equal(t, 0, el.Active(), "Stop must join every worker")
	require.NoError(t, p.Stop())
}

func TestWorkerPool_ParallelHandling(t *testing.T) {
	el := NewEventLoop()
	var inFlight, peak atomic.Int32
	el.RegisterHandler(EventHandlerFunc(func(Event) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}))
	p, err := NewWorkerPool(el, 2)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			el.Dispatch(Event{})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), peak.Load())
}

func TestWorkerPool_RecoversAndRestarts(t *testing.T) {
	el := NewEventLoop()
	var calls atomic.Int32
	el.RegisterHandler(EventHandlerFunc(func(ev Event) {
		calls.Add(1)
		if ev.Data == "boom" {
			panic("handler exploded")
		}
	}))
	var hooked atomic.Int32
	p, err := NewWorkerPool(el, 1,
		WithPoolLogger(logging.Discard()),
		WithRestartHook(func(int, any) { hooked.Add(1) }))
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	// the producer is released even though the handler panicked
	el.Dispatch(Event{Data: "boom"})
	assert.True(t, el.Dispatch(Event{Data: "ok"}), "the single worker must keep serving")
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(1), p.Restarts())
	assert.Equal(t, int32(1), hooked.Load())
}
