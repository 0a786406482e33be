// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collectors for the transport front-end. Every recording method is
// safe on a nil *Metrics so components can run without instrumentation.

package control

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediagate"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	connectionsActive   prometheus.Gauge
	connectionsTotal    prometheus.Counter
	connectionsRejected prometheus.Counter
	messagesTotal       *prometheus.CounterVec
	messageDuration     prometheus.Histogram
	processorFailures   prometheus.Counter
	sessionsActive      prometheus.Gauge
	sessionDisplaced    prometheus.Counter
	workerRestarts      prometheus.Counter
	notifications       *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections_active",
			Help: "Connections currently open.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connections_total",
			Help: "Connections accepted since start.",
		}),
		connectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connections_rejected_total",
			Help: "Connections closed at open because of an invalid path.",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_total",
			Help: "Messages handled, by WebSocket message type.",
		}, []string{"type"}),
		messageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "message_duration_seconds",
			Help:    "Time from receiving a message to sending its response.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		processorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "processor_failures_total",
			Help: "Requests answered with a generic error because the processor failed.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions_active",
			Help: "Sessions currently bound to a connection.",
		}),
		sessionDisplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "session_displacements_total",
			Help: "Session bindings moved to a newer connection.",
		}),
		workerRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "worker_restarts_total",
			Help: "Event loop restarts after an unexpected failure.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_total",
			Help: "Out-of-band messages pushed to sessions, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.connectionsActive, m.connectionsTotal, m.connectionsRejected,
		m.messagesTotal, m.messageDuration, m.processorFailures,
		m.sessionsActive, m.sessionDisplaced, m.workerRestarts, m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) ConnRejected() {
	if m == nil {
		return
	}
	m.connectionsRejected.Inc()
}

// MessageHandled records one completed round trip.
func (m *Metrics) MessageHandled(msgType string, d time.Duration) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(msgType).Inc()
	m.messageDuration.Observe(d.Seconds())
}

func (m *Metrics) ProcessorFailed() {
	if m == nil {
		return
	}
	m.processorFailures.Inc()
}

// SessionsSet publishes the current registry size.
func (m *Metrics) SessionsSet(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) SessionDisplaced() {
	if m == nil {
		return
	}
	m.sessionDisplaced.Inc()
}

func (m *Metrics) WorkerRestarted() {
	if m == nil {
		return
	}
	m.workerRestarts.Inc()
}

// Notified records the outcome of an out-of-band push ("sent", "no_session", "failed").
func (m *Metrics) Notified(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
