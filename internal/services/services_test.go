package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"nursery-platform/internal/repository"
	"nursery-platform/internal/season"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

type testEnv struct {
	store    *repository.MemoryStore
	metrics  *metrics.Collector
	seasons  *SeasonService
	species  *SpeciesService
	nursery  *NurseryService
	tasks    *TaskService
	logs     *InputLogService
	fixedNow time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logging.NewDiscardLogger()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	store := repository.NewMemoryStore()
	now := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	seasons := NewSeasonService(season.NewDefaultEngine(logger), time.Hour, language.Spanish, logger, collector)
	seasons.now = clock

	env := &testEnv{
		store:    store,
		metrics:  collector,
		seasons:  seasons,
		species:  NewSpeciesService(store, seasons, "", logger, collector),
		nursery:  NewNurseryService(store, store, seasons, logger, collector),
		tasks:    NewTaskService(store, logger, collector),
		logs:     NewInputLogService(store, logger, collector),
		fixedNow: now,
	}
	env.nursery.now = clock
	env.tasks.now = clock
	env.logs.now = clock
	return env
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nopLogger() *logging.StructuredLogger {
	return logging.NewDiscardLogger()
}
