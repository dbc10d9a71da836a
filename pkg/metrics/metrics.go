// Package metrics exposes Prometheus instrumentation for decisions, the
// audit ledger and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// Metrics owns every collector. Register it on a dedicated registry in
// tests and on prometheus.DefaultRegisterer in the server.
type Metrics struct {
	decisions     *prometheus.CounterVec
	risk          prometheus.Histogram
	failures      *prometheus.CounterVec
	auditFailures *prometheus.CounterVec

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

var _ authz.DecisionObserver = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by resource, action and outcome.",
		}, []string{"resource", "action", "allowed"}),
		risk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authz_decision_risk_score",
			Help:    "Risk score of authorization decisions.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decision_failures_total",
			Help: "Decisions that failed closed, by failure kind.",
		}, []string{"failure"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_audit_write_failures_total",
			Help: "Audit entries that could not be persisted, by category.",
		}, []string{"category"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		registerer: reg,
		gatherer:   reg,
	}
	reg.MustRegister(
		m.decisions, m.risk, m.failures, m.auditFailures,
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
	)
	return m
}

// ObserveDecision counts a finished decision.
func (m *Metrics) ObserveDecision(d authz.Decision) {
	resource, action := checkLabels(d.Check)
	m.decisions.WithLabelValues(resource, action, strconv.FormatBool(d.Allowed)).Inc()
	m.risk.Observe(float64(d.RiskScore))
	if d.Failure != "" {
		m.failures.WithLabelValues(d.Failure).Inc()
	}
}

// checkLabels keeps resource and action from a check key. Scope and
// resource id stay out of the labels.
func checkLabels(key string) (string, string) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key, ""
	}
	return parts[0], parts[1]
}

// AuditWriteFailed is a ledger failure hook.
func (m *Metrics) AuditWriteFailed(e audit.Entry, _ error) {
	m.auditFailures.WithLabelValues(e.Category.String()).Inc()
}

// TrackPending exports the size of the ledger retry queue.
func (m *Metrics) TrackPending(pending func() int) {
	m.registerer.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "authz_audit_pending_entries",
		Help: "Audit entries waiting to be persisted.",
	}, func() float64 { return float64(pending()) }))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument measures requests. Routes are labelled by their mux template
// so path parameters do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
