package control

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics()
	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()
	m.ConnRejected()
	m.MessageHandled("text", 3*time.Millisecond)
	m.ProcessorFailed()
	m.SessionsSet(5)
	m.SessionDisplaced()
	m.WorkerRestarted()
	m.Notified("sent")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connectionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionsRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processorFailures))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionDisplaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workerRestarts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("sent")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnOpened()
		m.ConnClosed()
		m.ConnRejected()
		m.MessageHandled("binary", time.Second)
		m.ProcessorFailed()
		m.SessionsSet(1)
		m.SessionDisplaced()
		m.WorkerRestarted()
		m.Notified("failed")
	})
}

func TestObservabilityServer(t *testing.T) {
	m := NewMetrics()
	m.ConnOpened()
	probes := NewDebugProbes()
	probes.RegisterProbe("sessions", func() any { return 3 })

	obs, err := NewObservabilityServer("127.0.0.1:0", m, probes)
	require.NoError(t, err)
	go func() { _ = obs.Serve() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()
	base := "http://" + obs.Addr().String()

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "mediagate_connections_active 1")

	resp, err = http.Get(base + "/debug/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var state map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, 3.0, state["sessions"])
	assert.Contains(t, state, "runtime.goroutines")
}
