package models

import (
	"strings"
	"time"
)

// Nursery is a plant nursery operated by the user.
type Nursery struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	StartMonth int       `json:"start_month" db:"start_month"` // 1-12
	Region     string    `json:"region" db:"region"`
	Language   string    `json:"language" db:"language"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultLanguage is assigned to nurseries created without one.
const DefaultLanguage = "es"

// Normalize trims user input and fills defaults.
func (n *Nursery) Normalize() {
	n.Name = strings.TrimSpace(n.Name)
	n.Region = strings.ToLower(strings.TrimSpace(n.Region))
	n.Language = strings.TrimSpace(n.Language)
	if n.Language == "" {
		n.Language = DefaultLanguage
	}
}

// Validate checks the nursery fields
func (n *Nursery) Validate() error {
	if n.Name == "" {
		return invalid("name", n.Name, "name is required")
	}
	if len(n.Name) > 120 {
		return invalid("name", n.Name, "name must be at most 120 characters")
	}
	if n.StartMonth < 1 || n.StartMonth > 12 {
		return invalid("start_month", n.StartMonth, "start month must be between 1 and 12")
	}
	if n.Region == "" {
		return invalid("region", n.Region, "region is required")
	}
	return nil
}

// NurseryUpdate carries the fields of a partial nursery update
type NurseryUpdate struct {
	Name       *string `json:"name,omitempty"`
	StartMonth *int    `json:"start_month,omitempty"`
	Region     *string `json:"region,omitempty"`
	Language   *string `json:"language,omitempty"`
}

// Apply copies the set fields onto n.
func (u NurseryUpdate) Apply(n *Nursery) {
	if u.Name != nil {
		n.Name = *u.Name
	}
	if u.StartMonth != nil {
		n.StartMonth = *u.StartMonth
	}
	if u.Region != nil {
		n.Region = *u.Region
	}
	if u.Language != nil {
		n.Language = *u.Language
	}
}

// NurseryStats summarises the contents of a nursery
type NurseryStats struct {
	NurseryID      int64 `json:"nursery_id" db:"nursery_id"`
	TotalPlants    int   `json:"total_plants" db:"total_plants"`
	TotalSpecies   int   `json:"total_species" db:"total_species"`
	PendingTasks   int   `json:"pending_tasks" db:"pending_tasks"`
	CompletedTasks int   `json:"completed_tasks" db:"completed_tasks"`
}

// Planting is a batch of one species growing in a nursery
type Planting struct {
	ID                     int64      `json:"id" db:"id"`
	NurseryID              int64      `json:"nursery_id" db:"nursery_id"`
	SpeciesID              *int64     `json:"species_id,omitempty" db:"species_id"`
	SpeciesName            string     `json:"species_name" db:"species_name"`
	Quantity               int        `json:"quantity" db:"quantity"`
	PotSizeGal             float64    `json:"pot_size_gal" db:"pot_size_gal"`
	PotDepthCm             float64    `json:"pot_depth_cm" db:"pot_depth_cm"`
	ExpectedTransplantDate *time.Time `json:"expected_transplant_date,omitempty" db:"expected_transplant_date"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
}

// Validate checks the planting fields
func (p *Planting) Validate() error {
	p.SpeciesName = strings.TrimSpace(p.SpeciesName)

	if p.NurseryID <= 0 {
		return invalid("nursery_id", p.NurseryID, "nursery id is required")
	}
	if p.SpeciesID == nil && p.SpeciesName == "" {
		return invalid("species_name", p.SpeciesName, "species id or species name is required")
	}
	if p.Quantity <= 0 {
		return invalid("quantity", p.Quantity, "quantity must be positive")
	}
	if p.PotSizeGal < 0 {
		return invalid("pot_size_gal", p.PotSizeGal, "pot size must not be negative")
	}
	if p.PotDepthCm < 0 {
		return invalid("pot_depth_cm", p.PotDepthCm, "pot depth must not be negative")
	}
	return nil
}

// AppSettings stores application-wide preferences
type AppSettings struct {
	ActiveNurseryID *int64    `json:"active_nursery_id" db:"active_nursery_id"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
