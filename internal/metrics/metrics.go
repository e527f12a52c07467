// Package metrics holds the Prometheus collectors for the auth service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pollogram_auth"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeRotated = "rotated"
	OutcomeInvalid = "invalid"
	OutcomeReuse   = "reuse"
)

// Metrics groups the service's collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	signIns         *prometheus.CounterVec
	signUps         *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	revokedSessions *prometheus.CounterVec
	purgedSessions  prometheus.Counter
	rpcDuration     *prometheus.HistogramVec
}

// New registers all collectors, plus Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sign_ins_total", Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		signUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sign_ups_total", Help: "Sign-up attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "refreshes_total", Help: "Refresh attempts by outcome (rotated, invalid, reuse).",
		}, []string{"outcome"}),
		revokedSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_revoked_total", Help: "Sessions revoked by reason.",
		}, []string{"reason"}),
		purgedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_purged_total", Help: "Expired sessions deleted by cleanup.",
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "rpc_duration_seconds", Help: "gRPC handling latency by method and code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
	reg.MustRegister(
		m.signIns, m.signUps, m.refreshes, m.revokedSessions, m.purgedSessions, m.rpcDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SignIn(outcome string) {
	if m != nil {
		m.signIns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SignUp(outcome string) {
	if m != nil {
		m.signUps.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Refresh(outcome string) {
	if m != nil {
		m.refreshes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SessionsRevoked(reason string, n int64) {
	if m != nil && n > 0 {
		m.revokedSessions.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) SessionsPurged(n int64) {
	if m != nil && n > 0 {
		m.purgedSessions.Add(float64(n))
	}
}

func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	if m != nil {
		m.rpcDuration.WithLabelValues(method, code).Observe(d.Seconds())
	}
}
