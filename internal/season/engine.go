package season

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"nursery-platform/pkg/logging"
)

// ErrNoSeasonChange is returned by NextChange when a region never leaves the
// current season (every month is a transition month).
var ErrNoSeasonChange = errors.New("season: region has no upcoming season change")

type region struct {
	config RegionConfig
	loc    *time.Location
}

// Engine answers season questions against an immutable region table. The
// default region is the only mutable state and is safe for concurrent use.
type Engine struct {
	regions map[string]region
	ids     []string
	logger  *logging.StructuredLogger

	mu            sync.RWMutex
	defaultRegion string
}

// NewEngine validates the region table and builds an engine. A malformed
// table is a configuration defect and fails here, never during a lookup.
func NewEngine(regions []RegionConfig, defaultRegion string, logger *logging.StructuredLogger) (*Engine, error) {
	if err := ValidateRegions(regions); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	e := &Engine{
		regions: make(map[string]region, len(regions)),
		logger:  logger,
	}
	for _, r := range regions {
		cfg := r.clone()
		e.regions[cfg.ID] = region{config: cfg, loc: cfg.Location()}
		e.ids = append(e.ids, cfg.ID)
	}
	sort.Strings(e.ids)

	defaultRegion = normalizeRegionID(defaultRegion)
	if _, ok := e.regions[defaultRegion]; !ok {
		return nil, &ConfigError{Region: defaultRegion, Field: "default_region", Message: "not present in region table"}
	}
	e.defaultRegion = defaultRegion

	return e, nil
}

// NewDefaultEngine builds an engine over the compiled-in regions.
func NewDefaultEngine(logger *logging.StructuredLogger) *Engine {
	e, err := NewEngine(DefaultRegions(), DefaultRegionID, logger)
	if err != nil {
		panic(fmt.Sprintf("season: built-in region table is invalid: %v", err))
	}
	return e
}

func normalizeRegionID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// DefaultRegion returns the id used for unknown regions.
func (e *Engine) DefaultRegion() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaultRegion
}

// SetDefaultRegion changes the fallback region. Unknown ids are rejected.
func (e *Engine) SetDefaultRegion(id string) error {
	id = normalizeRegionID(id)
	if _, ok := e.regions[id]; !ok {
		return &ConfigError{Region: id, Field: "default_region", Message: "not present in region table"}
	}

	e.mu.Lock()
	e.defaultRegion = id
	e.mu.Unlock()
	return nil
}

// AvailableRegions returns the known region ids, sorted.
func (e *Engine) AvailableRegions() []string {
	return append([]string(nil), e.ids...)
}

// Region returns the configuration of a region without falling back.
func (e *Engine) Region(id string) (RegionConfig, bool) {
	r, ok := e.regions[normalizeRegionID(id)]
	if !ok {
		return RegionConfig{}, false
	}
	return r.config.clone(), true
}

// Resolve returns the region for id, substituting the default region for
// unknown ids. direct is false when the fallback was used; an empty id names
// the default region directly.
func (e *Engine) Resolve(id string) (cfg RegionConfig, direct bool) {
	r, direct := e.resolve(id)
	return r.config.clone(), direct
}

// resolve treats an empty id as a request for the default region.
func (e *Engine) resolve(id string) (region, bool) {
	key := normalizeRegionID(id)
	if key == "" {
		return e.regions[e.DefaultRegion()], true
	}
	if r, ok := e.regions[key]; ok {
		return r, true
	}

	fallback := e.DefaultRegion()
	e.logger.Warn(context.Background(), "[SEASON_REGION_FALLBACK] Region not found, using default", logging.Fields{
		"requested": id,
		"resolved":  fallback,
	})
	return e.regions[fallback], false
}

// Classify returns the season date falls in for the region. The calendar
// month is read in the date's own location.
func (e *Engine) Classify(date time.Time, regionID string) Season {
	r, _ := e.resolve(regionID)
	return r.config.ClassifyMonth(int(date.Month()))
}

// IsDrySeason reports whether date falls in the dry season of the region.
func (e *Engine) IsDrySeason(date time.Time, regionID string) bool {
	return e.Classify(date, regionID) == Dry
}

// IsRainySeason reports whether date falls in the rainy season of the region.
func (e *Engine) IsRainySeason(date time.Time, regionID string) bool {
	return e.Classify(date, regionID) == Rainy
}

// Info computes the full season description for date. Display strings are
// rendered in lang; an undetermined tag renders Spanish.
func (e *Engine) Info(date time.Time, regionID string, lang language.Tag) Info {
	r, _ := e.resolve(regionID)
	cfg := r.config
	month := int(date.Month())
	s := cfg.ClassifyMonth(month)
	texts := catalogFor(lang)

	start, end := Boundaries(s, cfg, date)
	next, _ := nextChange(s, cfg, date)

	return Info{
		Region:             cfg.ID,
		Season:             s,
		SeasonName:         texts.seasonNames[s],
		Month:              month,
		MonthName:          texts.months[month-1],
		StartDate:          start,
		EndDate:            end,
		Description:        texts.descriptions[s],
		WateringMultiplier: Multiplier(s),
		Recommendations:    append([]string(nil), texts.recommendations[s]...),
		NextSeasonChange:   next,
	}
}

// InfoNow computes Info for the current instant in the region's time zone.
func (e *Engine) InfoNow(now time.Time, regionID string, lang language.Tag) Info {
	r, _ := e.resolve(regionID)
	return e.Info(now.In(r.loc), r.config.ID, lang)
}

// Location returns the time zone of a region (default region for unknown ids).
func (e *Engine) Location(regionID string) *time.Location {
	r, _ := e.resolve(regionID)
	return r.loc
}

// NextChange returns the next season change after date. It returns
// ErrNoSeasonChange when the region has no month outside the current season.
func (e *Engine) NextChange(date time.Time, regionID string) (Change, error) {
	r, _ := e.resolve(regionID)
	s := r.config.ClassifyMonth(int(date.Month()))
	return nextChange(s, r.config, date)
}

// WateringIntervalAt classifies date and returns the effective watering
// interval for a species with the given per-season intervals.
func (e *Engine) WateringIntervalAt(drySeasonDays, rainySeasonDays int, date time.Time, regionID string) int {
	return WateringInterval(drySeasonDays, rainySeasonDays, e.Classify(date, regionID))
}

// SeasonForMonth classifies the middle of month (1-12) in the given year.
// Used to preview the season of a nursery start month before it is saved.
func (e *Engine) SeasonForMonth(month, year int, regionID string) (Season, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("season: month %d outside 1-12", month)
	}
	return e.Classify(time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC), regionID), nil
}

// YearlyCalendar lists the season of every month for a region.
func (e *Engine) YearlyCalendar(regionID string, lang language.Tag) []CalendarMonth {
	r, _ := e.resolve(regionID)
	texts := catalogFor(lang)

	calendar := make([]CalendarMonth, 0, 12)
	for m := 1; m <= 12; m++ {
		s := r.config.ClassifyMonth(m)
		calendar = append(calendar, CalendarMonth{
			Month:      m,
			MonthName:  texts.months[m-1],
			Season:     s,
			SeasonName: texts.shortNames[s],
		})
	}
	return calendar
}
