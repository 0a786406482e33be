// File: pool/writebuffers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

// WriteBuffers shares WebSocket write buffers between connections. It satisfies
// gorilla/websocket's BufferPool: Get returns nil when empty and the connection
// allocates its own buffer, which it later hands back through Put.
type WriteBuffers struct {
	pool *SyncPool[any]
}

// NewWriteBuffers returns an empty write buffer pool.
func NewWriteBuffers() *WriteBuffers {
	return &WriteBuffers{pool: NewSyncPool[any](nil)}
}

func (wb *WriteBuffers) Get() interface{} { return wb.pool.Get() }

func (wb *WriteBuffers) Put(v interface{}) {
	if v != nil {
		wb.pool.Put(v)
	}
}

// Stats reports pool usage for diagnostics.
func (wb *WriteBuffers) Stats() map[string]int64 {
	gets, misses := wb.pool.Stats()
	return map[string]int64{"gets": gets, "misses": misses}
}
