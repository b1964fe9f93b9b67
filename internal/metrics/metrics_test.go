package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLogin(t *testing.T) {
	m := New()
	m.RecordLogin("html", LoginSuccess)
	m.RecordLogin("html", LoginSuccess)
	m.RecordLogin("api", LoginBlocked)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("html", LoginSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("api", LoginBlocked)))
}

func TestRecordReset(t *testing.T) {
	m := New()
	m.RecordReset(ResetCompleted)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PasswordResetsTotal.WithLabelValues(ResetCompleted)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordLogin("html", LoginSuccess)
	m.RecordReset(ResetRequested)

	called := false
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/characters/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/characters/7", nil))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/characters/{id}"`), "route pattern label missing")
	assert.Contains(t, body, `status="404"`)
	assert.Contains(t, body, "go_goroutines")
}
