package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("get", "GET /api/v1/videos/{videoID}", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest("GET", "GET /api/v1/videos/{videoID}", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest("GET", "", http.StatusNotFound, time.Millisecond)

	assert.InDelta(t, 2, promtest.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/v1/videos/{videoID}", "200")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestMetrics_AuthEvent(t *testing.T) {
	m := New()

	m.AuthEvent(EventLogin, OutcomeSuccess)
	m.AuthEvent(EventLogin, OutcomeFailure)
	m.AuthEvent(EventLogin, OutcomeFailure)

	assert.InDelta(t, 1, promtest.ToFloat64(m.authEvents.WithLabelValues(EventLogin, OutcomeSuccess)), 0)
	assert.InDelta(t, 2, promtest.ToFloat64(m.authEvents.WithLabelValues(EventLogin, OutcomeFailure)), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.AuthEvent(EventRefresh, OutcomeSuccess)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `videotube_auth_events_total{event="refresh",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_Isolated(t *testing.T) {
	// Registering twice would panic with the default registry
	a, b := New(), New()
	a.AuthEvent(EventLogout, OutcomeSuccess)

	assert.InDelta(t, 0, promtest.ToFloat64(b.authEvents.WithLabelValues(EventLogout, OutcomeSuccess)), 0)
}
