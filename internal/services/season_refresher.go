package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/text/language"

	"nursery-platform/internal/season"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// SeasonChangeFunc is notified when a region enters a new season
type SeasonChangeFunc func(ctx context.Context, region string, from, to season.Season)

// SeasonRefresher periodically recomputes the current season of every region,
// publishes it as a gauge and notifies subscribers of changes.
type SeasonRefresher struct {
	seasons  *SeasonService
	interval time.Duration
	logger   *logging.ContextLogger
	metrics  *metrics.Collector

	mu          sync.Mutex
	current     map[string]season.Season
	subscribers []SeasonChangeFunc
}

// NewSeasonRefresher creates a refresher ticking every interval
func NewSeasonRefresher(seasons *SeasonService, interval time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SeasonRefresher {
	return &SeasonRefresher{
		seasons:  seasons,
		interval: interval,
		logger:   logger.WithFields(logging.Fields{"component": "season_refresher"}),
		metrics:  metricsCollector,
		current:  make(map[string]season.Season),
	}
}

// Subscribe registers fn for season changes
func (r *SeasonRefresher) Subscribe(fn SeasonChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Current returns the last computed season of a region
func (r *SeasonRefresher) Current(region string) (season.Season, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.current[region]
	return s, ok
}

// Refresh recomputes every region once
func (r *SeasonRefresher) Refresh(ctx context.Context) {
	engine := r.seasons.Engine()
	all := make([]string, len(season.All))
	for i, s := range season.All {
		all[i] = string(s)
	}

	for _, id := range engine.AvailableRegions() {
		info := engine.InfoNow(r.seasons.now(), id, language.Spanish)
		r.metrics.SetCurrentSeason(id, string(info.Season), all)

		r.mu.Lock()
		previous, known := r.current[id]
		r.current[id] = info.Season
		subscribers := append([]SeasonChangeFunc(nil), r.subscribers...)
		r.mu.Unlock()

		if !known || previous == info.Season {
			continue
		}

		r.metrics.SeasonChangesTotal.WithLabelValues(id, string(info.Season)).Inc()
		r.logger.Info(ctx, "[SEASON_CHANGE] Region entered a new season", logging.Fields{
			"region": id,
			"from":   string(previous),
			"to":     string(info.Season),
		})
		for _, fn := range subscribers {
			fn(ctx, id, previous, info.Season)
		}
	}

	r.seasons.cache.DeleteExpired()
	r.metrics.SeasonRefreshTotal.Inc()
}

// Run refreshes immediately and then on every tick until ctx is cancelled
func (r *SeasonRefresher) Run(ctx context.Context) {
	r.logger.Info(ctx, "[SEASON_REFRESHER_START] Season refresher started", logging.Fields{
		"interval": r.interval.String(),
	})

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "[SEASON_REFRESHER_STOP] Season refresher stopped", logging.Fields{})
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}
