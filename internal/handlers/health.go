package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	responder
	checker HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		checker:   checker,
	}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"storage":   "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.checker.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Storage health check failed", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		status["storage"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

// RouteRegistrar is implemented by every handler
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// NewRouter builds the API router with request ID and instrumentation
// middleware, the documentation routes and every given handler
func NewRouter(logger *logging.StructuredLogger, collector *metrics.Collector, registrars ...RouteRegistrar) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID(), Instrument(logger, collector))

	for _, registrar := range registrars {
		registrar.RegisterRoutes(router)
	}

	router.HandleFunc("/api/docs", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/docs", SwaggerUI).Methods("GET")

	return router
}
