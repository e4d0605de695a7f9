package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// nurseryFromRoute extracts the nursery id of /api/nurseries/{id}/... routes
func nurseryFromRoute(r *http.Request) (int64, bool) {
	if !strings.HasPrefix(routeTemplate(r), "/api/nurseries/{id") {
		return 0, false
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// RequestID tags every request with an ID, reusing the caller's when present.
// Nursery-scoped routes also carry the nursery id into the log context.
func RequestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := logging.WithRequestID(r.Context(), id)
			if nurseryID, ok := nurseryFromRoute(r); ok {
				ctx = logging.WithNurseryID(ctx, nurseryID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Instrument records request count and latency per route and logs each request
func Instrument(logger *logging.StructuredLogger, collector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(startTime)
			endpoint := routeTemplate(r)
			collector.APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
			collector.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(rec.status))

			logger.Debug(r.Context(), "[API_REQUEST] Request served", logging.Fields{
				"endpoint":    endpoint,
				"method":      r.Method,
				"status":      rec.status,
				"duration_ms": duration.Milliseconds(),
			})
		})
	}
}
