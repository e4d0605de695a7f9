package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Species is an entry of the reference species library
type Species struct {
	ID                      int64               `json:"id" db:"id" yaml:"-"`
	CommonName              string              `json:"common_name" db:"common_name" yaml:"common_name"`
	ScientificName          string              `json:"scientific_name" db:"scientific_name" yaml:"scientific_name"`
	Category                string              `json:"category" db:"category" yaml:"category"`
	Description             string              `json:"description" db:"description" yaml:"description"`
	PotSizeMinGal           float64             `json:"pot_size_min_gal" db:"pot_size_min_gal" yaml:"pot_size_min_gal"`
	PotSizeMaxGal           float64             `json:"pot_size_max_gal" db:"pot_size_max_gal" yaml:"pot_size_max_gal"`
	PotDepthCm              float64             `json:"pot_depth_cm" db:"pot_depth_cm" yaml:"pot_depth_cm"`
	RootBehavior            string              `json:"root_behavior" db:"root_behavior" yaml:"root_behavior"`
	WateringDrySeasonDays   int                 `json:"watering_dry_season_days" db:"watering_dry_season_days" yaml:"watering_dry_season_days"`
	WateringRainySeasonDays int                 `json:"watering_rainy_season_days" db:"watering_rainy_season_days" yaml:"watering_rainy_season_days"`
	ShadeRequirements       string              `json:"shade_requirements" db:"shade_requirements" yaml:"shade_requirements"`
	ShadeTolerancePercent   int                 `json:"shade_tolerance_percent" db:"shade_tolerance_percent" yaml:"shade_tolerance_percent"`
	Fertilization           Fertilization       `json:"fertilization" db:"fertilization" yaml:"fertilization"`
	HardeningRules          HardeningRules      `json:"hardening_rules" db:"hardening_rules" yaml:"hardening_rules"`
	TransplantReadiness     TransplantReadiness `json:"transplant_readiness" db:"transplant_readiness" yaml:"transplant_readiness"`
	CommonIssues            pq.StringArray      `json:"common_issues" db:"common_issues" yaml:"common_issues"`
	GrowthRate              string              `json:"growth_rate" db:"growth_rate" yaml:"growth_rate"`
	NativeToRegion          bool                `json:"native_to_region" db:"native_to_region" yaml:"native_to_region"`
	NitrogenFixer           bool                `json:"nitrogen_fixer" db:"nitrogen_fixer" yaml:"nitrogen_fixer"`
}

// Fertilization describes the feeding plan of a species
type Fertilization struct {
	Type          string   `json:"type" yaml:"type"`
	Notes         string   `json:"notes" yaml:"notes"`
	FrequencyDays int      `json:"frequency_days" yaml:"frequency_days"`
	NPKRatio      string   `json:"npk_ratio" yaml:"npk_ratio"`
	OrganicInputs []string `json:"organic_inputs" yaml:"organic_inputs"`
}

// HardeningRules describes how a species is hardened off before planting out
type HardeningRules struct {
	TotalWeeks             int             `json:"total_weeks" yaml:"total_weeks"`
	ShadeReductionSchedule []HardeningStep `json:"shade_reduction_schedule" yaml:"shade_reduction_schedule"`
	Notes                  string          `json:"notes" yaml:"notes"`
}

// HardeningStep is one week of a hardening schedule
type HardeningStep struct {
	Week              int     `json:"week" yaml:"week"`
	ShadePercent      int     `json:"shade_percent" yaml:"shade_percent"`
	WindExposureHours float64 `json:"wind_exposure_hours" yaml:"wind_exposure_hours"`
}

// TransplantReadiness lists the criteria for moving a species to the field
type TransplantReadiness struct {
	MinHeightCm       float64 `json:"min_height_cm" yaml:"min_height_cm"`
	MinMonthsInPot    int     `json:"min_months_in_pot" yaml:"min_months_in_pot"`
	RootCheckCriteria string  `json:"root_check_criteria" yaml:"root_check_criteria"`
	LeafMaturity      string  `json:"leaf_maturity" yaml:"leaf_maturity"`
}

// JSONB column support

func (f Fertilization) Value() (driver.Value, error) { return jsonValue(f) }

func (f *Fertilization) Scan(src interface{}) error { return jsonScan(src, f) }

func (h HardeningRules) Value() (driver.Value, error) { return jsonValue(h) }

func (h *HardeningRules) Scan(src interface{}) error { return jsonScan(src, h) }

func (t TransplantReadiness) Value() (driver.Value, error) { return jsonValue(t) }

func (t *TransplantReadiness) Scan(src interface{}) error { return jsonScan(src, t) }

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("cannot scan %T into %T", src, dst)
}

// Validate checks the species fields
func (s *Species) Validate() error {
	if strings.TrimSpace(s.CommonName) == "" {
		return invalid("common_name", s.CommonName, "common name is required")
	}
	if strings.TrimSpace(s.ScientificName) == "" {
		return invalid("scientific_name", s.ScientificName, "scientific name is required")
	}
	if s.Category == "" {
		return invalid("category", s.Category, "category is required")
	}
	if s.WateringDrySeasonDays <= 0 {
		return invalid("watering_dry_season_days", s.WateringDrySeasonDays, "dry season watering interval must be positive")
	}
	if s.WateringRainySeasonDays <= 0 {
		return invalid("watering_rainy_season_days", s.WateringRainySeasonDays, "rainy season watering interval must be positive")
	}
	if s.PotSizeMaxGal < s.PotSizeMinGal {
		return invalid("pot_size_max_gal", s.PotSizeMaxGal, "maximum pot size is below the minimum")
	}
	if s.ShadeTolerancePercent < 0 || s.ShadeTolerancePercent > 100 {
		return invalid("shade_tolerance_percent", s.ShadeTolerancePercent, "shade tolerance must be between 0 and 100")
	}
	return nil
}

// SpeciesStats summarises the species library
type SpeciesStats struct {
	Total          int            `json:"total"`
	ByCategory     map[string]int `json:"by_category"`
	NitrogenFixers int            `json:"nitrogen_fixers"`
	NativeSpecies  int            `json:"native_species"`
}

// WateringRecommendation is the watering interval of a species for a given day
type WateringRecommendation struct {
	SpeciesID    int64   `json:"species_id"`
	CommonName   string  `json:"common_name"`
	Region       string  `json:"region"`
	Season       string  `json:"season"`
	IntervalDays int     `json:"interval_days"`
	Multiplier   float64 `json:"watering_multiplier"`
}
