package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// MetricsMiddleware records request counts and latency per route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		durationMs := float64(time.Since(start).Microseconds()) / 1000.0
		metrics.RecordHTTPRequest(routePattern(r), r.Method, strconv.Itoa(status), durationMs)
		if status >= http.StatusInternalServerError {
			metrics.RecordErrorByComponent("http", "server_error")
		}
	})
}

// routePattern keeps metric labels bounded by using the matched pattern
// instead of the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RequestLogger logs one line per request.
func RequestLogger(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Debug(r.Context(), "request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int64("duration_ms", time.Since(start).Milliseconds()),
				logger.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
		})
	}
}
