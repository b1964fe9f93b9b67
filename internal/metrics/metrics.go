// Package metrics exposes Prometheus instrumentation for the HTTP surfaces.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess       = "success"
	LoginInvalid       = "invalid_credentials"
	LoginBlocked       = "blocked"
	LoginResetRequired = "reset_required"
)

// Password reset events.
const (
	ResetRequested      = "requested"
	ResetForced         = "forced"
	ResetCompleted      = "completed"
	ResetInvalidToken   = "invalid_token"
	ResetDeliveryFailed = "delivery_failed"
)

// Metrics holds the application collectors and their registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LoginsTotal         *prometheus.CounterVec
	PasswordResetsTotal *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showrunner_logins_total",
				Help: "Login attempts by surface and outcome",
			},
			[]string{"surface", "outcome"},
		),
		PasswordResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showrunner_password_resets_total",
				Help: "Password reset events by kind",
			},
			[]string{"event"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showrunner_http_request_duration_seconds",
				Help:    "HTTP request latency by route, method and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
	reg.MustRegister(m.LoginsTotal, m.PasswordResetsTotal, m.RequestDuration)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLogin counts a login attempt. surface is "html" or "api".
func (m *Metrics) RecordLogin(surface, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(surface, outcome).Inc()
}

// RecordReset counts a password reset event.
func (m *Metrics) RecordReset(event string) {
	if m == nil {
		return
	}
	m.PasswordResetsTotal.WithLabelValues(event).Inc()
}

// Middleware observes request durations labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
