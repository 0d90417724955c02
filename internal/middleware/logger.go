package middleware

import (
	"net/http"
	"time"

	"github.com/fanvault/backend/internal/logger"
	"github.com/fanvault/backend/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Logger logs each HTTP request with method, path, status, and duration,
// and counts it by route pattern. m may be nil.
func Logger(log logger.Logger, m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, ww.status)

			log.Info("http request", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"route":    route,
				"status":   ww.status,
				"duration": time.Since(start).Round(time.Millisecond).String(),
			})
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
