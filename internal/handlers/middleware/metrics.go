package middleware

import (
	"net/http"
	"time"
)

type requestObserver interface {
	ObserveRequest(method string, route string, status int, d time.Duration)
}

// Record request count and latency labeled by the mux pattern
// Has to wrap the ServeMux directly: the mux sets r.Pattern on the request it receives
func Metrics(o requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := newLogWriter(w)

			next.ServeHTTP(lw, r)

			o.ObserveRequest(r.Method, r.Pattern, lw.data.responseStatus, time.Since(start))
		})
	}
}
