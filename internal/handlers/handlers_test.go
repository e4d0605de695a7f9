package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"nursery-platform/internal/repository"
	"nursery-platform/internal/season"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

type testServer struct {
	router  *mux.Router
	store   *repository.MemoryStore
	metrics *metrics.Collector
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logging.NewDiscardLogger()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	store := repository.NewMemoryStore()

	seasons := services.NewSeasonService(season.NewDefaultEngine(logger), time.Hour, language.Spanish, logger, collector)
	species := services.NewSpeciesService(store, seasons, "", logger, collector)
	_, err := species.EnsureLoaded(context.Background())
	require.NoError(t, err)

	router := NewRouter(logger, collector,
		NewHealthHandler(store, logger, collector),
		NewSeasonHandler(seasons, logger, collector),
		NewSpeciesHandler(species, seasons, logger, collector),
		NewNurseryHandler(services.NewNurseryService(store, store, seasons, logger, collector), logger, collector),
		NewTaskHandler(services.NewTaskService(store, logger, collector), logger, collector),
		NewInputLogHandler(services.NewInputLogService(store, logger, collector), logger, collector),
	)

	return &testServer{router: router, store: store, metrics: collector}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

type failingChecker struct{}

func (failingChecker) HealthCheck(context.Context) error { return errors.New("connection refused") }

func TestHealthCheckUnhealthy(t *testing.T) {
	logger := logging.NewDiscardLogger()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	router := NewRouter(logger, collector, NewHealthHandler(failingChecker{}, logger, collector))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDCarriesNurseryIntoLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger("test", "0", logging.InfoLevel)
	logger.SetOutput(&buf)

	router := mux.NewRouter()
	router.Use(RequestID())
	router.HandleFunc("/api/nurseries/{id:[0-9]+}/tasks", func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.Context(), "[TEST] scoped", logging.Fields{})
	})
	router.HandleFunc("/api/species/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.Context(), "[TEST] unscoped", logging.Fields{})
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/nurseries/7/tasks", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/species/7", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var scoped, unscoped logging.LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &scoped))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &unscoped))
	assert.Equal(t, int64(7), scoped.NurseryID)
	assert.NotEmpty(t, scoped.RequestID)
	assert.Zero(t, unscoped.NurseryID)
}

func TestRequestsAreCountedByRoute(t *testing.T) {
	srv := newTestServer(t)

	srv.do(t, http.MethodGet, "/api/species/1", nil)
	srv.do(t, http.MethodGet, "/api/species/99999", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.APIRequestsTotal.WithLabelValues("/api/species/{id:[0-9]+}", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.APIRequestsTotal.WithLabelValues("/api/species/{id:[0-9]+}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.APIErrorsTotal.WithLabelValues("not_found", "/api/species/{id:[0-9]+}")))
}

func TestOpenAPISpec(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spec struct {
		Paths map[string]interface{} `json:"paths"`
	}
	decode(t, rec, &spec)
	for _, path := range []string{"/api/season", "/api/nurseries/{id}/tasks", "/api/input-logs/{id}"} {
		assert.Contains(t, spec.Paths, path)
	}

	rec = srv.do(t, http.MethodGet, "/docs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "swagger-ui"))
}
