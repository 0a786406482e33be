// File: control/http.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Side listener exposing /metrics and /debug/state.

package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ObservabilityServer serves metrics and debug probes on its own address.
type ObservabilityServer struct {
	srv *http.Server
	ln  net.Listener
}

// NewObservabilityServer binds addr. Either of metrics or probes may be nil.
func NewObservabilityServer(addr string, metrics *Metrics, probes *DebugProbes) (*ObservabilityServer, error) {
	mux := http.NewServeMux()
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	if probes != nil {
		mux.Handle("/debug/state", probes.Handler())
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("observability listen on %s: %w", addr, err)
	}
	return &ObservabilityServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr returns the bound address.
func (o *ObservabilityServer) Addr() net.Addr { return o.ln.Addr() }

// Serve blocks until Shutdown.
func (o *ObservabilityServer) Serve() error {
	if err := o.srv.Serve(o.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener, waiting for in-flight scrapes until ctx expires.
func (o *ObservabilityServer) Shutdown(ctx context.Context) error {
	return o.srv.Shutdown(ctx)
}
