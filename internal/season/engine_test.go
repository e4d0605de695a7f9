package season

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"nursery-platform/pkg/logging"
)

func newTestEngine(t *testing.T, extra ...RegionConfig) *Engine {
	t.Helper()
	e, err := NewEngine(append(DefaultRegions(), extra...), DefaultRegionID, nil)
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsMalformedTable(t *testing.T) {
	bad := RegionConfig{ID: "bad", DrySeason: MonthRange{1, 6}, RainySeason: MonthRange{6, 12}}
	_, err := NewEngine(append(DefaultRegions(), bad), DefaultRegionID, nil)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "bad", cfgErr.Region)
}

func TestNewEngine_UnknownDefaultRegion(t *testing.T) {
	_, err := NewEngine(DefaultRegions(), "atlantis", nil)
	assert.Error(t, err)
}

func TestEngine_ClassifyTotality(t *testing.T) {
	e := newTestEngine(t,
		RegionConfig{ID: "carved", DrySeason: MonthRange{1, 3}, RainySeason: MonthRange{5, 11}, TransitionMonths: []int{4, 12}},
		RegionConfig{ID: "gappy", DrySeason: MonthRange{1, 2}, RainySeason: MonthRange{7, 9}},
	)

	for _, id := range e.AvailableRegions() {
		for m := 1; m <= 12; m++ {
			got := e.Classify(d(2025, time.Month(m), 10), id)
			assert.True(t, got.Valid(), "region %s month %d classified as %q", id, m, got)
		}
	}
}

func TestEngine_ClassifyWraparound(t *testing.T) {
	e := newTestEngine(t)

	for _, m := range []time.Month{time.December, time.January, time.February, time.March, time.April} {
		assert.Equal(t, Dry, e.Classify(d(2025, m, 1), "guanacaste"), m.String())
	}
	for m := time.May; m <= time.November; m++ {
		assert.Equal(t, Rainy, e.Classify(d(2025, m, 28), "guanacaste"), m.String())
	}
}

func TestEngine_ClassifyRegionIDCaseInsensitive(t *testing.T) {
	e := newTestEngine(t)
	_, direct := e.Resolve(" Central-Valley ")
	assert.True(t, direct)
}

func TestEngine_UnknownRegionFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger("test", "test", logging.DebugLevel)
	logger.SetOutput(&buf)

	e, err := NewEngine(DefaultRegions(), DefaultRegionID, logger)
	require.NoError(t, err)

	for m := 1; m <= 12; m++ {
		date := d(2025, time.Month(m), 15)
		assert.Equal(t, e.Classify(date, DefaultRegionID), e.Classify(date, "atlantis"))
	}

	cfg, direct := e.Resolve("atlantis")
	assert.False(t, direct)
	assert.Equal(t, DefaultRegionID, cfg.ID)
	assert.Contains(t, buf.String(), "SEASON_REGION_FALLBACK")

	date := d(2025, time.January, 15)
	assert.Equal(t,
		e.Info(date, DefaultRegionID, language.Spanish),
		e.Info(date, "atlantis", language.Spanish))
}

func TestEngine_EmptyRegionIsDefaultWithoutFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger("test", "test", logging.DebugLevel)
	logger.SetOutput(&buf)

	e, err := NewEngine(DefaultRegions(), DefaultRegionID, logger)
	require.NoError(t, err)

	cfg, direct := e.Resolve("  ")
	assert.True(t, direct)
	assert.Equal(t, DefaultRegionID, cfg.ID)
	assert.Equal(t, "America/Costa_Rica", e.Location("").String())
	assert.Equal(t, Dry, e.Classify(d(2025, time.January, 15), ""))
	assert.NotContains(t, buf.String(), "SEASON_REGION_FALLBACK")
}

func TestEngine_SetDefaultRegion(t *testing.T) {
	e := newTestEngine(t, RegionConfig{ID: "always-dry", DrySeason: MonthRange{1, 12}, RainySeason: MonthRange{1, 1}, TransitionMonths: []int{1}})

	require.NoError(t, e.SetDefaultRegion("always-dry"))
	assert.Equal(t, "always-dry", e.DefaultRegion())
	assert.Equal(t, Dry, e.Classify(d(2025, time.July, 1), "nowhere"))

	assert.Error(t, e.SetDefaultRegion("nowhere"))
	assert.Equal(t, "always-dry", e.DefaultRegion())
}

func TestEngine_InfoJanuaryBoundaries(t *testing.T) {
	e := newTestEngine(t)
	info := e.Info(d(2025, time.January, 15), "guanacaste", language.Spanish)

	assert.Equal(t, Dry, info.Season)
	assert.Equal(t, "Temporada Seca", info.SeasonName)
	assert.Equal(t, 1, info.Month)
	assert.Equal(t, "Enero", info.MonthName)
	assert.Equal(t, d(2024, time.December, 1), info.StartDate)
	assert.Equal(t, d(2025, time.April, 30), info.EndDate)
	assert.Equal(t, 1.5, info.WateringMultiplier)
	assert.Len(t, info.Recommendations, 5)

	assert.Equal(t, Rainy, info.NextSeasonChange.Season)
	assert.Equal(t, d(2025, time.May, 1), info.NextSeasonChange.Date)
	assert.Equal(t, 106, info.NextSeasonChange.DaysUntil)
	assert.True(t, info.NextSeasonChange.Resolved)
}

func TestEngine_InfoDecemberBoundaries(t *testing.T) {
	e := newTestEngine(t)
	info := e.Info(d(2025, time.December, 10), "guanacaste", language.English)

	assert.Equal(t, "Dry Season", info.SeasonName)
	assert.Equal(t, "December", info.MonthName)
	assert.Equal(t, d(2025, time.December, 1), info.StartDate)
	assert.Equal(t, d(2026, time.April, 30), info.EndDate)
	assert.Equal(t, d(2026, time.May, 1), info.NextSeasonChange.Date)
}

func TestEngine_InfoRainy(t *testing.T) {
	e := newTestEngine(t)
	info := e.Info(d(2025, time.August, 20), "central-valley", language.Spanish)

	assert.Equal(t, Rainy, info.Season)
	assert.Equal(t, d(2025, time.May, 1), info.StartDate)
	assert.Equal(t, d(2025, time.November, 30), info.EndDate)
	assert.Equal(t, 0.5, info.WateringMultiplier)
	assert.Equal(t, Dry, info.NextSeasonChange.Season)
	assert.Equal(t, d(2025, time.December, 1), info.NextSeasonChange.Date)
	assert.Equal(t, 103, info.NextSeasonChange.DaysUntil)
}

func TestEngine_InfoIdempotent(t *testing.T) {
	e := newTestEngine(t)
	date := time.Date(2025, time.March, 3, 17, 45, 0, 0, time.UTC)

	first := e.Info(date, "guanacaste", language.Spanish)
	second := e.Info(date, "guanacaste", language.Spanish)
	assert.True(t, reflect.DeepEqual(first, second))

	first.Recommendations[0] = "mutated"
	third := e.Info(date, "guanacaste", language.Spanish)
	assert.NotEqual(t, "mutated", third.Recommendations[0])
}

func TestEngine_InfoNowUsesRegionTimezone(t *testing.T) {
	e := newTestEngine(t)
	// 2025-05-01 03:00 UTC is still April 30 in Costa Rica (UTC-6).
	info := e.InfoNow(time.Date(2025, time.May, 1, 3, 0, 0, 0, time.UTC), "guanacaste", language.Spanish)

	assert.Equal(t, Dry, info.Season)
	assert.Equal(t, 4, info.Month)
	assert.Equal(t, 1, info.NextSeasonChange.DaysUntil)
}

func TestEngine_NextChangeLandsOnFirstOfMonth(t *testing.T) {
	e := newTestEngine(t,
		RegionConfig{ID: "carved", DrySeason: MonthRange{1, 3}, RainySeason: MonthRange{5, 11}, TransitionMonths: []int{4, 12}},
	)

	for _, id := range e.AvailableRegions() {
		for day := d(2024, time.January, 1); day.Year() < 2026; day = day.AddDate(0, 0, 1) {
			ref := day.Add(13 * time.Hour)
			change, err := e.NextChange(ref, id)
			require.NoError(t, err)

			require.GreaterOrEqual(t, change.DaysUntil, 0, "%s %s", id, ref)
			landed := ref.AddDate(0, 0, change.DaysUntil)
			require.Equal(t, 1, landed.Day(), "%s %s", id, ref)
			require.Equal(t, change.Date.Month(), landed.Month(), "%s %s", id, ref)
			require.True(t, change.Date.After(ref), "%s %s", id, ref)
		}
	}
}

func TestEngine_NextChangeFromTransition(t *testing.T) {
	e := newTestEngine(t,
		RegionConfig{ID: "carved", DrySeason: MonthRange{1, 3}, RainySeason: MonthRange{5, 11}, TransitionMonths: []int{4, 12}},
	)

	change, err := e.NextChange(d(2025, time.April, 10), "carved")
	require.NoError(t, err)
	assert.Equal(t, Rainy, change.Season)
	assert.Equal(t, d(2025, time.May, 1), change.Date)
	assert.Equal(t, 21, change.DaysUntil)

	change, err = e.NextChange(d(2025, time.December, 31), "carved")
	require.NoError(t, err)
	assert.Equal(t, Dry, change.Season)
	assert.Equal(t, d(2026, time.January, 1), change.Date)
	assert.Equal(t, 1, change.DaysUntil)
}

func TestEngine_NextChangeAllTransition(t *testing.T) {
	e := newTestEngine(t, RegionConfig{
		ID:               "limbo",
		DrySeason:        MonthRange{1, 6},
		RainySeason:      MonthRange{7, 12},
		TransitionMonths: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	})

	change, err := e.NextChange(d(2025, time.June, 5), "limbo")
	assert.ErrorIs(t, err, ErrNoSeasonChange)
	assert.False(t, change.Resolved)
	assert.Equal(t, Transition, change.Season)

	info := e.Info(d(2025, time.June, 5), "limbo", language.Spanish)
	assert.False(t, info.NextSeasonChange.Resolved)
	assert.Equal(t, d(2024, time.July, 1), info.StartDate)
	assert.Equal(t, d(2025, time.June, 30), info.EndDate)
}

func TestEngine_TransitionBoundaries(t *testing.T) {
	e := newTestEngine(t, RegionConfig{
		ID:               "shoulders",
		DrySeason:        MonthRange{2, 4},
		RainySeason:      MonthRange{6, 10},
		TransitionMonths: []int{11, 12, 1, 5},
	})

	info := e.Info(d(2025, time.December, 20), "shoulders", language.Spanish)
	assert.Equal(t, Transition, info.Season)
	assert.Equal(t, d(2025, time.November, 1), info.StartDate)
	assert.Equal(t, d(2026, time.January, 31), info.EndDate)
	assert.Equal(t, Dry, info.NextSeasonChange.Season)
	assert.Equal(t, d(2026, time.February, 1), info.NextSeasonChange.Date)

	info = e.Info(d(2026, time.January, 5), "shoulders", language.Spanish)
	assert.Equal(t, d(2025, time.November, 1), info.StartDate)
	assert.Equal(t, d(2026, time.January, 31), info.EndDate)

	info = e.Info(d(2025, time.May, 5), "shoulders", language.Spanish)
	assert.Equal(t, d(2025, time.May, 1), info.StartDate)
	assert.Equal(t, d(2025, time.May, 31), info.EndDate)
	assert.Equal(t, 1.0, info.WateringMultiplier)
}

func TestEngine_UncoveredMonthsFormRainySpan(t *testing.T) {
	e := newTestEngine(t, RegionConfig{ID: "gappy", DrySeason: MonthRange{1, 2}, RainySeason: MonthRange{7, 9}})

	info := e.Info(d(2025, time.March, 10), "gappy", language.Spanish)
	assert.Equal(t, Rainy, info.Season)
	assert.Equal(t, d(2025, time.March, 1), info.StartDate)
	assert.Equal(t, d(2025, time.December, 31), info.EndDate)
	assert.False(t, info.StartDate.After(d(2025, time.March, 10)))
	assert.Equal(t, Dry, info.NextSeasonChange.Season)
	assert.Equal(t, d(2026, time.January, 1), info.NextSeasonChange.Date)

	info = e.Info(d(2025, time.February, 10), "gappy", language.Spanish)
	assert.Equal(t, Dry, info.Season)
	assert.Equal(t, d(2025, time.January, 1), info.StartDate)
	assert.Equal(t, d(2025, time.February, 28), info.EndDate)
	assert.Equal(t, Rainy, info.NextSeasonChange.Season)
	assert.Equal(t, d(2025, time.March, 1), info.NextSeasonChange.Date)
	assert.Equal(t, 19, info.NextSeasonChange.DaysUntil)
}

func TestEngine_SpanAlwaysContainsReference(t *testing.T) {
	e := newTestEngine(t,
		RegionConfig{ID: "gappy", DrySeason: MonthRange{1, 2}, RainySeason: MonthRange{7, 9}},
		RegionConfig{ID: "carved", DrySeason: MonthRange{1, 3}, RainySeason: MonthRange{5, 11}, TransitionMonths: []int{4, 12}},
	)

	for _, id := range e.AvailableRegions() {
		for month := time.January; month <= time.December; month++ {
			ref := d(2025, month, 15)
			info := e.Info(ref, id, language.Spanish)
			require.False(t, ref.Before(info.StartDate), "%s %s", id, month)
			require.False(t, ref.After(info.EndDate.AddDate(0, 0, 1)), "%s %s", id, month)
		}
	}
}

func TestEngine_NextChangeWithoutOtherPrimarySeason(t *testing.T) {
	e := newTestEngine(t, RegionConfig{ID: "always-dry", DrySeason: MonthRange{1, 12}, RainySeason: MonthRange{1, 1}, TransitionMonths: []int{1}})

	change, err := e.NextChange(d(2025, time.June, 5), "always-dry")
	require.NoError(t, err)
	assert.Equal(t, Transition, change.Season)
	assert.Equal(t, d(2026, time.January, 1), change.Date)
}

func TestEngine_SeasonForMonth(t *testing.T) {
	e := newTestEngine(t)

	s, err := e.SeasonForMonth(12, 2025, "guanacaste")
	require.NoError(t, err)
	assert.Equal(t, Dry, s)

	s, err = e.SeasonForMonth(6, 2025, "guanacaste")
	require.NoError(t, err)
	assert.Equal(t, Rainy, s)

	_, err = e.SeasonForMonth(13, 2025, "guanacaste")
	assert.Error(t, err)
}

func TestEngine_YearlyCalendar(t *testing.T) {
	e := newTestEngine(t)
	calendar := e.YearlyCalendar("guanacaste", language.Spanish)

	require.Len(t, calendar, 12)
	assert.Equal(t, CalendarMonth{Month: 1, MonthName: "Enero", Season: Dry, SeasonName: "Seca"}, calendar[0])
	assert.Equal(t, CalendarMonth{Month: 7, MonthName: "Julio", Season: Rainy, SeasonName: "Lluviosa"}, calendar[6])
	assert.Equal(t, Dry, calendar[11].Season)
}

func TestEngine_WateringIntervalAt(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, 7, e.WateringIntervalAt(7, 14, d(2025, time.February, 1), "guanacaste"))
	assert.Equal(t, 14, e.WateringIntervalAt(7, 14, d(2025, time.September, 1), "guanacaste"))
}

func TestEngine_Predicates(t *testing.T) {
	e := newTestEngine(t)
	assert.True(t, e.IsDrySeason(d(2025, time.March, 1), "guanacaste"))
	assert.False(t, e.IsRainySeason(d(2025, time.March, 1), "guanacaste"))
	assert.True(t, e.IsRainySeason(d(2025, time.October, 1), "guanacaste"))
}

func TestEngine_RegionLookup(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, []string{"central-valley", "guanacaste"}, e.AvailableRegions())

	cfg, ok := e.Region("GUANACASTE")
	require.True(t, ok)
	assert.Equal(t, "Guanacaste", cfg.Name)

	_, ok = e.Region("atlantis")
	assert.False(t, ok)
}

func TestEngine_WateringWindow(t *testing.T) {
	e := newTestEngine(t)
	window, err := e.WateringWindow(time.Date(2025, time.March, 21, 15, 0, 0, 0, time.UTC), "guanacaste")
	require.NoError(t, err)

	assert.Equal(t, "America/Costa_Rica", window.Sunrise.Location().String())
	assert.Equal(t, 21, window.Date.Day())
	// Near the equinox at ~10°N sunrise is close to 05:40 and sunset 17:50 local time.
	assert.InDelta(t, 5.7, float64(window.Sunrise.Hour())+float64(window.Sunrise.Minute())/60, 0.5)
	assert.InDelta(t, 17.9, float64(window.Sunset.Hour())+float64(window.Sunset.Minute())/60, 0.5)
	assert.True(t, window.Morning.Start.Before(window.Sunrise))
	assert.Equal(t, window.Sunset, window.Evening.End)
	assert.True(t, strings.HasPrefix(window.Date.Format(time.RFC3339), "2025-03-21"))
}
