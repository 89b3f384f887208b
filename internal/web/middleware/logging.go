// Package middleware provides HTTP middleware for the event map API.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eventmap/internal/logging"
)

// RequestObserver receives one observation per finished request. route is
// the matched chi pattern, empty when nothing matched.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Logger logs one structured line per request and, when obs is non-nil,
// reports it to obs. It must run after chi's RequestID so the line carries
// the request id.
//
// Log fields:
//   - method, path, route
//   - status
//   - duration_ms
//   - ip: RemoteAddr after TrustedRealIP
//   - user_agent
func Logger(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := routePattern(r)

			if obs != nil {
				obs.ObserveRequest(r.Method, route, ww.status, duration)
			}

			level := logging.FromContext(r.Context()).Info
			if ww.status >= http.StatusInternalServerError {
				level = logging.FromContext(r.Context()).Warn
			}
			level("request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", ww.status,
				"duration_ms", duration.Milliseconds(),
				"ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the Flusher underneath, which
// the snapshot stream needs.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
