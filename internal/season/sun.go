package season

import (
	"fmt"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// Window is a span of local time.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WateringWindow holds the recommended watering hours of a day: the cool
// hours after sunrise and before sunset, when evaporation is lowest.
type WateringWindow struct {
	Region  string    `json:"region"`
	Date    time.Time `json:"date"`
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
	Morning Window    `json:"morning"`
	Evening Window    `json:"evening"`
}

const (
	morningLead   = 30 * time.Minute
	morningLength = 2 * time.Hour
	eveningLength = 2 * time.Hour
)

// WateringWindow computes sunrise, sunset and the watering windows for the
// calendar day of date at the region's representative site. Times are
// returned in the region time zone.
func (e *Engine) WateringWindow(date time.Time, regionID string) (WateringWindow, error) {
	r, _ := e.resolve(regionID)
	local := date.In(r.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, r.loc)

	observer := astral.Observer{Latitude: r.config.Latitude, Longitude: r.config.Longitude}

	sunrise, err := astral.Sunrise(observer, day)
	if err != nil {
		return WateringWindow{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}
	sunset, err := astral.Sunset(observer, day)
	if err != nil {
		return WateringWindow{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}
	sunrise, sunset = sunrise.In(r.loc), sunset.In(r.loc)

	return WateringWindow{
		Region:  r.config.ID,
		Date:    time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc),
		Sunrise: sunrise,
		Sunset:  sunset,
		Morning: Window{Start: sunrise.Add(-morningLead), End: sunrise.Add(morningLength)},
		Evening: Window{Start: sunset.Add(-eveningLength), End: sunset},
	}, nil
}
