// Package season classifies calendar dates into the climate seasons of a
// region and derives the season-dependent figures the nursery uses for
// planning: season boundaries, the next season change and watering intervals.
//
// Every operation is a pure function of its inputs and of the read-only region
// table held by an Engine. Nothing is cached; callers that render the same
// day repeatedly may memoize by (calendar day, region).
package season

import (
	"math"
	"time"
)

// Season is the climate classification of a calendar month in a region.
type Season string

const (
	// Dry is the season of the months in a region's dry range.
	Dry Season = "dry"
	// Rainy is the season of the rainy range and of any month no other
	// season claims.
	Rainy Season = "rainy"
	// Transition marks the shoulder months listed by a region.
	Transition Season = "transition"
)

// All lists every season in display order.
var All = []Season{Dry, Rainy, Transition}

// Valid reports whether s is one of the known seasons.
func (s Season) Valid() bool {
	switch s {
	case Dry, Rainy, Transition:
		return true
	}
	return false
}

// MonthRange is an inclusive span of calendar months. A StartMonth greater
// than EndMonth wraps across the December to January boundary.
type MonthRange struct {
	StartMonth int `json:"start_month" yaml:"start_month"`
	EndMonth   int `json:"end_month" yaml:"end_month"`
}

// Wraps reports whether the range crosses the year boundary.
func (r MonthRange) Wraps() bool {
	return r.StartMonth > r.EndMonth
}

// Contains reports whether month (1-12) falls inside the range.
func (r MonthRange) Contains(month int) bool {
	if r.Wraps() {
		return month >= r.StartMonth || month <= r.EndMonth
	}
	return month >= r.StartMonth && month <= r.EndMonth
}

// Months returns the months covered by the range in calendar order starting at StartMonth.
func (r MonthRange) Months() []int {
	var months []int
	for m, i := r.StartMonth, 0; i < 12; m, i = nextMonth(m), i+1 {
		months = append(months, m)
		if m == r.EndMonth {
			break
		}
	}
	return months
}

// Info is the derived description of the season a date falls in.
type Info struct {
	Region             string    `json:"region"`
	Season             Season    `json:"season"`
	SeasonName         string    `json:"season_name"`
	Month              int       `json:"month"`
	MonthName          string    `json:"month_name"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Description        string    `json:"description"`
	WateringMultiplier float64   `json:"watering_multiplier"`
	Recommendations    []string  `json:"recommendations"`
	NextSeasonChange   Change    `json:"next_season_change"`
}

// Change describes the upcoming season change relative to a reference date.
// Resolved is false when the region never leaves the current season, in
// which case Date is zero and DaysUntil is 0.
type Change struct {
	Season    Season    `json:"season"`
	Date      time.Time `json:"date"`
	DaysUntil int       `json:"days_until"`
	Resolved  bool      `json:"resolved"`
}

// CalendarMonth is one row of a yearly season calendar.
type CalendarMonth struct {
	Month      int    `json:"month"`
	MonthName  string `json:"month_name"`
	Season     Season `json:"season"`
	SeasonName string `json:"season_name"`
}

// Multiplier returns the watering-frequency multiplier for a season relative
// to a species' base frequency.
func Multiplier(s Season) float64 {
	switch s {
	case Dry:
		return 1.5
	case Rainy:
		return 0.5
	default:
		return 1.0
	}
}

// WateringInterval picks the effective watering interval in days for a
// species given its dry- and rainy-season intervals. Transition months use
// the mean of both, rounded half away from zero (7 and 14 give 11). Negative
// inputs are clamped to zero.
func WateringInterval(drySeasonDays, rainySeasonDays int, s Season) int {
	drySeasonDays = max(drySeasonDays, 0)
	rainySeasonDays = max(rainySeasonDays, 0)

	switch s {
	case Dry:
		return drySeasonDays
	case Rainy:
		return rainySeasonDays
	default:
		return int(math.Round(float64(drySeasonDays+rainySeasonDays) / 2))
	}
}

func nextMonth(m int) int {
	return m%12 + 1
}

func prevMonth(m int) int {
	return (m+10)%12 + 1
}
