package season

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// DefaultRegionID is the region used when a caller names an unknown one.
const DefaultRegionID = "guanacaste"

// RegionConfig holds the season calendar of one region.
type RegionConfig struct {
	ID               string     `json:"id" yaml:"id"`
	Name             string     `json:"name" yaml:"name"`
	DrySeason        MonthRange `json:"dry_season" yaml:"dry_season"`
	RainySeason      MonthRange `json:"rainy_season" yaml:"rainy_season"`
	TransitionMonths []int      `json:"transition_months,omitempty" yaml:"transition_months,omitempty"`

	// Location of a representative site, used for sunrise and sunset.
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Timezone  string  `json:"timezone" yaml:"timezone"`
}

// builtinRegions is the compiled-in region table. Both Costa Rican regions
// share the Pacific-slope calendar: dry December through April, rainy May
// through November.
var builtinRegions = []RegionConfig{
	{
		ID:          "guanacaste",
		Name:        "Guanacaste",
		DrySeason:   MonthRange{StartMonth: 12, EndMonth: 4},
		RainySeason: MonthRange{StartMonth: 5, EndMonth: 11},
		Latitude:    10.6346,
		Longitude:   -85.4407,
		Timezone:    "America/Costa_Rica",
	},
	{
		ID:          "central-valley",
		Name:        "Valle Central",
		DrySeason:   MonthRange{StartMonth: 12, EndMonth: 4},
		RainySeason: MonthRange{StartMonth: 5, EndMonth: 11},
		Latitude:    9.9281,
		Longitude:   -84.0907,
		Timezone:    "America/Costa_Rica",
	},
}

// DefaultRegions returns a copy of the compiled-in region table.
func DefaultRegions() []RegionConfig {
	regions := make([]RegionConfig, len(builtinRegions))
	for i, r := range builtinRegions {
		regions[i] = r.clone()
	}
	return regions
}

func (c RegionConfig) clone() RegionConfig {
	if c.TransitionMonths != nil {
		c.TransitionMonths = append([]int(nil), c.TransitionMonths...)
	}
	return c
}

// IsTransitionMonth reports whether month is explicitly reserved as transition.
func (c RegionConfig) IsTransitionMonth(month int) bool {
	for _, m := range c.TransitionMonths {
		if m == month {
			return true
		}
	}
	return false
}

// ClassifyMonth classifies a calendar month (1-12). Transition months are
// checked first, then dry-season membership. Any other month is rainy,
// including months outside the declared rainy range.
func (c RegionConfig) ClassifyMonth(month int) Season {
	if c.IsTransitionMonth(month) {
		return Transition
	}
	if c.DrySeason.Contains(month) {
		return Dry
	}
	return Rainy
}

// Range returns the declared month range of a primary season.
func (c RegionConfig) Range(s Season) MonthRange {
	if s == Dry {
		return c.DrySeason
	}
	return c.RainySeason
}

// Location resolves the region time zone, falling back to UTC.
func (c RegionConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConfigError reports a malformed region definition. It is raised while the
// region table is loaded and is never produced by a season computation.
type ConfigError struct {
	Region  string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Region == "" {
		return fmt.Sprintf("region config: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("region config %q: %s: %s", e.Region, e.Field, e.Message)
}

// IsTransient returns false as configuration defects are permanent
func (e *ConfigError) IsTransient() bool {
	return false
}

// Validate checks that every month classifies to exactly one season.
func (c RegionConfig) Validate() error {
	if c.ID == "" {
		return &ConfigError{Field: "id", Message: "must not be empty"}
	}
	if c.ID != strings.ToLower(strings.TrimSpace(c.ID)) {
		return &ConfigError{Region: c.ID, Field: "id", Message: "must be lower case without surrounding spaces"}
	}

	if err := validateRange(c.ID, "dry_season", c.DrySeason); err != nil {
		return err
	}
	if err := validateRange(c.ID, "rainy_season", c.RainySeason); err != nil {
		return err
	}

	seen := make(map[int]bool, len(c.TransitionMonths))
	for _, m := range c.TransitionMonths {
		if m < 1 || m > 12 {
			return &ConfigError{Region: c.ID, Field: "transition_months", Message: fmt.Sprintf("month %d outside 1-12", m)}
		}
		if seen[m] {
			return &ConfigError{Region: c.ID, Field: "transition_months", Message: fmt.Sprintf("month %d listed twice", m)}
		}
		seen[m] = true
	}

	for m := 1; m <= 12; m++ {
		if seen[m] {
			continue
		}
		if c.DrySeason.Contains(m) && c.RainySeason.Contains(m) {
			return &ConfigError{
				Region:  c.ID,
				Field:   "rainy_season",
				Message: fmt.Sprintf("overlaps dry_season in month %d without a transition carve-out", m),
			}
		}
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return &ConfigError{Region: c.ID, Field: "latitude", Message: "must be within [-90, 90]"}
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return &ConfigError{Region: c.ID, Field: "longitude", Message: "must be within [-180, 180]"}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return &ConfigError{Region: c.ID, Field: "timezone", Message: err.Error()}
		}
	}

	return nil
}

func validateRange(region, field string, r MonthRange) error {
	if r.StartMonth < 1 || r.StartMonth > 12 {
		return &ConfigError{Region: region, Field: field, Message: fmt.Sprintf("start_month %d outside 1-12", r.StartMonth)}
	}
	if r.EndMonth < 1 || r.EndMonth > 12 {
		return &ConfigError{Region: region, Field: field, Message: fmt.Sprintf("end_month %d outside 1-12", r.EndMonth)}
	}
	return nil
}

// ValidateRegions validates every region and rejects duplicate ids.
func ValidateRegions(regions []RegionConfig) error {
	if len(regions) == 0 {
		return &ConfigError{Field: "regions", Message: "at least one region is required"}
	}

	ids := make(map[string]bool, len(regions))
	for _, r := range regions {
		if err := r.Validate(); err != nil {
			return err
		}
		if ids[r.ID] {
			return &ConfigError{Region: r.ID, Field: "id", Message: "duplicate region id"}
		}
		ids[r.ID] = true
	}
	return nil
}

type regionFile struct {
	Regions []RegionConfig `yaml:"regions"`
}

// LoadRegions decodes a YAML region table and validates it. Unknown keys are
// rejected so that a misspelt option fails at startup instead of silently
// classifying every month as rainy.
func LoadRegions(r io.Reader) ([]RegionConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file regionFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Field: "regions", Message: "empty region file"}
		}
		return nil, fmt.Errorf("failed to decode region file: %w", err)
	}

	if err := ValidateRegions(file.Regions); err != nil {
		return nil, err
	}
	return file.Regions, nil
}

// MergeRegions overlays overrides on base by id; new ids are appended. The
// result is sorted by id.
func MergeRegions(base, overrides []RegionConfig) []RegionConfig {
	byID := make(map[string]RegionConfig, len(base)+len(overrides))
	for _, r := range base {
		byID[r.ID] = r.clone()
	}
	for _, r := range overrides {
		byID[r.ID] = r.clone()
	}

	merged := make([]RegionConfig, 0, len(byID))
	for _, r := range byID {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}
