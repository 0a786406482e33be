package session

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/mediagate/api"
)

func TestRegistry_PutInsertsBothViews(t *testing.T) {
	r := NewRegistry()
	h := api.NewConnHandle()

	assert.Equal(t, Inserted, r.Put("s1", h))

	got, ok := r.Lookup("s1")
	require.True(t, ok)
	assert.Equal(t, h, got)
	id, ok := r.SessionOf(h)
	require.True(t, ok)
	assert.Equal(t, "s1", id)
	assert.True(t, r.consistent())
}

func TestRegistry_Displacement(t *testing.T) {
	r := NewRegistry()
	h1, h2 := api.NewConnHandle(), api.NewConnHandle()

	r.Put("S", h1)
	assert.Equal(t, Displaced, r.Put("S", h2))

	got, ok := r.Lookup("S")
	require.True(t, ok)
	assert.Equal(t, h2, got)
	_, ok = r.SessionOf(h1)
	assert.False(t, ok, "displaced handle must not keep a reverse entry")
	id, ok := r.SessionOf(h2)
	require.True(t, ok)
	assert.Equal(t, "S", id)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.consistent())
}

func TestRegistry_IdempotentReRegistration(t *testing.T) {
	r := NewRegistry()
	h := api.NewConnHandle()
	copyOfH := h

	r.Put("S", h)
	before := r.Snapshot()
	assert.Equal(t, Unchanged, r.Put("S", copyOfH))
	assert.Equal(t, before, r.Snapshot())
	assert.True(t, r.consistent())
}

func TestRegistry_HandleMovesToNewSession(t *testing.T) {
	r := NewRegistry()
	h := api.NewConnHandle()

	r.Put("old", h)
	r.Put("new", h)

	_, ok := r.Lookup("old")
	assert.False(t, ok)
	id, _ := r.SessionOf(h)
	assert.Equal(t, "new", id)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.consistent())
}

func TestRegistry_RemoveByHandle(t *testing.T) {
	r := NewRegistry()
	h1, h2 := api.NewConnHandle(), api.NewConnHandle()
	r.Put("a", h1)

	id, ok := r.RemoveByHandle(h1)
	require.True(t, ok)
	assert.Equal(t, "a", id)
	_, ok = r.Lookup("a")
	assert.False(t, ok)
	_, ok = r.SessionOf(h1)
	assert.False(t, ok)

	// never registered: no-op
	_, ok = r.RemoveByHandle(h2)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
	assert.True(t, r.consistent())
}

func TestRegistry_DisplacedHandleCloseKeepsNewOwner(t *testing.T) {
	r := NewRegistry()
	h1, h2 := api.NewConnHandle(), api.NewConnHandle()
	r.Put("S", h1)
	r.Put("S", h2)

	_, ok := r.RemoveByHandle(h1)
	assert.False(t, ok)
	got, ok := r.Lookup("S")
	require.True(t, ok)
	assert.Equal(t, h2, got)
}

// TestRegistry_InverseInvariantRandomized applies random put/remove sequences and
// checks the two views stay exact inverses after every call.
func TestRegistry_InverseInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := NewRegistry()
	handles := make([]api.ConnHandle, 8)
	for i := range handles {
		handles[i] = api.NewConnHandle()
	}
	for i := 0; i < 5000; i++ {
		h := handles[rng.Intn(len(handles))]
		if rng.Intn(3) == 0 {
			r.RemoveByHandle(h)
		} else {
			r.Put(fmt.Sprintf("s%d", rng.Intn(6)), h)
		}
		require.True(t, r.consistent(), "views diverged at step %d", i)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			h := api.NewConnHandle()
			for i := 0; i < 500; i++ {
				r.Put(fmt.Sprintf("s%d", i%10), h)
				if i%7 == 0 {
					r.RemoveByHandle(h)
				}
				r.Lookup(fmt.Sprintf("s%d", w%10))
			}
		}(w)
	}
	wg.Wait()
	assert.True(t, r.consistent())
	assert.LessOrEqual(t, r.Len(), 10)
}
