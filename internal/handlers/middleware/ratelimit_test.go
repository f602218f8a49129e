package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, time.Minute, 5*time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "third attempt in a minute should be rejected")
	assert.True(t, l.Allow("10.0.0.2"), "other clients have their own budget")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills every 30 seconds")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestIPRateLimiter_ForgetsIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, time.Hour, time.Minute)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	l.Allow("10.0.0.2")
	assert.NotContains(t, l.visitors, "10.0.0.1", "idle visitor should be dropped")
	assert.True(t, l.Allow("10.0.0.1"), "dropped visitor starts with fresh budget")
}

func TestRateLimit(t *testing.T) {
	l := NewIPRateLimiter(1, time.Hour, time.Hour)
	h := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("192.0.2.1:1234").Code)

	w := do("192.0.2.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "same ip with other port is the same client")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error": "service_error", "message": "Too many requests"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do("192.0.2.2:1234").Code)
}
