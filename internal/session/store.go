// File: internal/session/store.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package session
//
// Bidirectional, mutex-guarded sessionId <-> connection index.

package session

import (
	"sync"

	"github.com/momentics/mediagate/api"
)

// PutResult tells the caller what Put did to the registry.
type PutResult int

const (
	// Unchanged: the session was already bound to an equal handle.
	Unchanged PutResult = iota
	// Inserted: a new binding was created without evicting another connection.
	Inserted
	// Displaced: the session was bound to a different connection, which lost it.
	Displaced
)

func (r PutResult) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case Inserted:
		return "inserted"
	case Displaced:
		return "displaced"
	default:
		return "unknown"
	}
}

// Registry maps each session id to the connection that currently serves it, and
// each connection back to the session it serves. Both maps are only touched under mu.
type Registry struct {
	mu       sync.Mutex
	byID     map[string]api.ConnHandle
	byHandle map[api.ConnHandle]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]api.ConnHandle),
		byHandle: make(map[api.ConnHandle]string),
	}
}

// Put binds sessionID to h. A previous owner of sessionID is displaced; it keeps
// its connection but loses the association. If h already served another session,
// that stale binding is dropped so h is in at most one entry.
func (r *Registry) Put(sessionID string, h api.ConnHandle) PutResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := Inserted
	if old, ok := r.byID[sessionID]; ok {
		if old == h {
			return Unchanged
		}
		delete(r.byHandle, old)
		delete(r.byID, sessionID)
		result = Displaced
	}
	if prev, ok := r.byHandle[h]; ok {
		delete(r.byID, prev)
		delete(r.byHandle, h)
	}
	r.byID[sessionID] = h
	r.byHandle[h] = sessionID
	return result
}

// RemoveByHandle drops the binding owned by h. ok is false when h owned nothing,
// which is the normal case for connections that never produced a session id.
func (r *Registry) RemoveByHandle(h api.ConnHandle) (sessionID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok = r.byHandle[h]
	if !ok {
		return "", false
	}
	delete(r.byHandle, h)
	delete(r.byID, sessionID)
	return sessionID, true
}

// Lookup returns the connection currently serving sessionID.
func (r *Registry) Lookup(sessionID string) (api.ConnHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[sessionID]
	return h, ok
}

// SessionOf returns the session id served by h.
func (r *Registry) SessionOf(h api.ConnHandle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHandle[h]
	return id, ok
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Snapshot returns a copy of the sessionId -> handle view.
func (r *Registry) Snapshot() map[string]api.ConnHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]api.ConnHandle, len(r.byID))
	for id, h := range r.byID {
		out[id] = h
	}
	return out
}

// consistent reports whether byID and byHandle are exact inverses. Tests only.
func (r *Registry) consistent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.byID) != len(r.byHandle) {
		return false
	}
	for id, h := range r.byID {
		if r.byHandle[h] != id {
			return false
		}
	}
	for h, id := range r.byHandle {
		if got, ok := r.byID[id]; !ok || got != h {
			return false
		}
	}
	return true
}
