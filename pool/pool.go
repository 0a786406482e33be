// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package pool provides typed object pooling for per-connection buffers.

package pool

import (
	"sync"
	"sync/atomic"
)

// SyncPool wraps sync.Pool for typed use and counts misses. Without a creator,
// Get returns the zero value of T when the pool is empty.
type SyncPool[T any] struct {
	pool   sync.Pool
	create func() T
	gets   atomic.Int64
	misses atomic.Int64
}

// NewSyncPool creates a pool. creator may be nil.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	return &SyncPool[T]{create: creator}
}

func (sp *SyncPool[T]) Get() T {
	sp.gets.Add(1)
	if v, ok := sp.pool.Get().(T); ok {
		return v
	}
	sp.misses.Add(1)
	if sp.create != nil {
		return sp.create()
	}
	var zero T
	return zero
}

func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}

// Stats returns how many Gets were served and how many found the pool empty.
func (sp *SyncPool[T]) Stats() (gets, misses int64) {
	return sp.gets.Load(), sp.misses.Load()
}
