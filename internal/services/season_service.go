package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/language"

	"nursery-platform/internal/season"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// SeasonService serves season lookups for the API and the CLI. Results are
// memoized per calendar day, region and language.
type SeasonService struct {
	engine  *season.Engine
	cache   *cache.Cache
	lang    language.Tag
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// SeasonPreview is the season a prospective nursery start month falls in
type SeasonPreview struct {
	Region          string        `json:"region"`
	Month           int           `json:"month"`
	MonthName       string        `json:"month_name"`
	Season          season.Season `json:"season"`
	SeasonName      string        `json:"season_name"`
	Recommendations []string      `json:"recommendations"`
}

// NewSeasonService creates a new season service. A non-positive cacheTTL
// falls back to one hour.
func NewSeasonService(engine *season.Engine, cacheTTL time.Duration, defaultLang language.Tag, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SeasonService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &SeasonService{
		engine:  engine,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		lang:    defaultLang,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// Engine exposes the underlying season engine
func (s *SeasonService) Engine() *season.Engine {
	return s.engine
}

// Language resolves the display language from request preferences, falling
// back to the configured default.
func (s *SeasonService) Language(preferences ...string) language.Tag {
	for _, p := range preferences {
		if p != "" {
			return season.MatchLanguage(preferences...)
		}
	}
	return s.lang
}

// resolve maps a requested region to a configured one and records the lookup
func (s *SeasonService) resolve(regionID string) season.RegionConfig {
	if regionID == "" {
		regionID = s.engine.DefaultRegion()
	}
	cfg, direct := s.engine.Resolve(regionID)
	s.metrics.RecordSeasonLookup(cfg.ID, !direct)
	return cfg
}

// Current describes the season of today in the region's time zone
func (s *SeasonService) Current(ctx context.Context, regionID string, lang language.Tag) season.Info {
	cfg := s.resolve(regionID)
	return s.info(ctx, s.now().In(cfg.Location()), cfg.ID, lang)
}

// At describes the season date falls in
func (s *SeasonService) At(ctx context.Context, date time.Time, regionID string, lang language.Tag) season.Info {
	cfg := s.resolve(regionID)
	return s.info(ctx, date, cfg.ID, lang)
}

func (s *SeasonService) info(ctx context.Context, date time.Time, regionID string, lang language.Tag) season.Info {
	base, _ := lang.Base()
	key := fmt.Sprintf("%s|%s|%s|%s", date.Format("2006-01-02"), date.Location(), regionID, base)

	if cached, ok := s.cache.Get(key); ok {
		s.metrics.SeasonCacheHits.Inc()
		return copyInfo(cached.(season.Info))
	}
	s.metrics.SeasonCacheMisses.Inc()

	info := s.engine.Info(date, regionID, lang)
	s.cache.SetDefault(key, info)

	s.logger.Debug(ctx, "[SEASON_LOOKUP] Season computed", logging.Fields{
		"region": regionID,
		"date":   date.Format("2006-01-02"),
		"season": string(info.Season),
	})

	return copyInfo(info)
}

func copyInfo(info season.Info) season.Info {
	info.Recommendations = append([]string(nil), info.Recommendations...)
	return info
}

// NextChange returns the next season change after date
func (s *SeasonService) NextChange(date time.Time, regionID string) (season.Change, error) {
	cfg := s.resolve(regionID)
	return s.engine.NextChange(date, cfg.ID)
}

// Calendar lists the season of every month for a region
func (s *SeasonService) Calendar(regionID string, lang language.Tag) (string, []season.CalendarMonth) {
	cfg := s.resolve(regionID)
	return cfg.ID, s.engine.YearlyCalendar(cfg.ID, lang)
}

// Preview classifies a prospective nursery start month in the current year
func (s *SeasonService) Preview(month int, regionID string, lang language.Tag) (*SeasonPreview, error) {
	cfg := s.resolve(regionID)
	year := s.now().In(cfg.Location()).Year()

	current, err := s.engine.SeasonForMonth(month, year, cfg.ID)
	if err != nil {
		return nil, err
	}

	return &SeasonPreview{
		Region:          cfg.ID,
		Month:           month,
		MonthName:       season.MonthName(month, lang),
		Season:          current,
		SeasonName:      season.SeasonName(current, lang),
		Recommendations: season.Recommendations(current, lang),
	}, nil
}

// WateringWindow returns the recommended watering hours on date
func (s *SeasonService) WateringWindow(date time.Time, regionID string) (season.WateringWindow, error) {
	cfg := s.resolve(regionID)
	return s.engine.WateringWindow(date, cfg.ID)
}

// WateringInterval returns the effective watering interval on date for a
// species with the given per-season intervals
func (s *SeasonService) WateringInterval(drySeasonDays, rainySeasonDays int, date time.Time, regionID string) (int, season.Season, string) {
	cfg := s.resolve(regionID)
	current := s.engine.Classify(date, cfg.ID)
	return season.WateringInterval(drySeasonDays, rainySeasonDays, current), current, cfg.ID
}

// Regions lists every configured region ordered by id
func (s *SeasonService) Regions() []season.RegionConfig {
	ids := s.engine.AvailableRegions()
	regions := make([]season.RegionConfig, 0, len(ids))
	for _, id := range ids {
		if cfg, ok := s.engine.Region(id); ok {
			regions = append(regions, cfg)
		}
	}
	return regions
}

// Region looks up a configured region without falling back
func (s *SeasonService) Region(id string) (season.RegionConfig, bool) {
	return s.engine.Region(id)
}

// Today returns the current date in the region's time zone
func (s *SeasonService) Today(regionID string) time.Time {
	cfg, _ := s.engine.Resolve(regionID)
	return s.now().In(cfg.Location())
}

// Location returns the time zone of a region, falling back to the default
// region
func (s *SeasonService) Location(regionID string) *time.Location {
	return s.engine.Location(regionID)
}
