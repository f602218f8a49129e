package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generated when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err, "generated id should be ULID")
		assert.Equal(t, id, seen)
	})

	t.Run("client id kept", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, " abc-123 ")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("too long client id replaced", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Len(t, seen, ulid.EncodedSize)
	})
}

func TestRequestID_Sortable(t *testing.T) {
	now := time.Now()
	first := newRequestID(now)
	second := newRequestID(now.Add(time.Second))

	assert.Less(t, first, second, "ids should sort by time")
	assert.Empty(t, RequestIDFromContext(t.Context()))
}
