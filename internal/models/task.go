package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a care task
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskSkipped   TaskStatus = "skipped"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskCompleted, TaskSkipped:
		return true
	}
	return false
}

// CanTransition reports whether a task may move from s to next. A pending
// task is closed as completed or skipped; a closed task may only be reopened.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskPending:
		return next == TaskCompleted || next == TaskSkipped
	case TaskCompleted, TaskSkipped:
		return next == TaskPending
	}
	return false
}

// TaskCategory identifies the kind of care a task performs
type TaskCategory string

const (
	CategoryWater      TaskCategory = "water"
	CategoryFertilize  TaskCategory = "fertilize"
	CategoryEM         TaskCategory = "em"
	CategoryPrune      TaskCategory = "prune"
	CategoryHardening  TaskCategory = "hardening"
	CategoryTransplant TaskCategory = "transplant"
)

// TaskCategories lists every category in display order.
var TaskCategories = []TaskCategory{
	CategoryWater, CategoryFertilize, CategoryEM, CategoryPrune, CategoryHardening, CategoryTransplant,
}

// Valid reports whether c is a known category.
func (c TaskCategory) Valid() bool {
	for _, known := range TaskCategories {
		if c == known {
			return true
		}
	}
	return false
}

// TaskDetails is the category-specific part of a task. The concrete type
// determines the category.
type TaskDetails interface {
	Category() TaskCategory
	Validate() error
}

// WaterDetails describes a watering task
type WaterDetails struct {
	VolumeLiters float64 `json:"volume_liters"`
	Note         string  `json:"note,omitempty"`
}

func (WaterDetails) Category() TaskCategory { return CategoryWater }

func (d WaterDetails) Validate() error {
	if d.VolumeLiters < 0 {
		return invalid("details.volume_liters", d.VolumeLiters, "volume must not be negative")
	}
	return nil
}

// FertilizeDetails describes a fertilizer application (bokashi, compost tea, wood ash...)
type FertilizeDetails struct {
	Type     string  `json:"type"`
	Dilution string  `json:"dilution,omitempty"`
	Liters   float64 `json:"liters,omitempty"`
	NPKRatio string  `json:"npk_ratio,omitempty"`
}

func (FertilizeDetails) Category() TaskCategory { return CategoryFertilize }

func (d FertilizeDetails) Validate() error {
	if d.Type == "" {
		return invalid("details.type", d.Type, "fertilizer type is required")
	}
	if d.Liters < 0 {
		return invalid("details.liters", d.Liters, "liters must not be negative")
	}
	return nil
}

// EMDetails describes an effective-microorganisms application
type EMDetails struct {
	Dilution string  `json:"dilution"`
	Liters   float64 `json:"liters,omitempty"`
	Tip      string  `json:"tip,omitempty"`
}

func (EMDetails) Category() TaskCategory { return CategoryEM }

func (d EMDetails) Validate() error {
	if d.Dilution == "" {
		return invalid("details.dilution", d.Dilution, "dilution is required")
	}
	if d.Liters < 0 {
		return invalid("details.liters", d.Liters, "liters must not be negative")
	}
	return nil
}

// PruneDetails describes a pruning task
type PruneDetails struct {
	Technique string `json:"technique,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (PruneDetails) Category() TaskCategory { return CategoryPrune }

func (PruneDetails) Validate() error { return nil }

// HardeningDetails describes one hardening-off session
type HardeningDetails struct {
	Week          int     `json:"week,omitempty"`
	ShadePercent  int     `json:"shade_percent"`
	DurationHours float64 `json:"duration_hours"`
}

func (HardeningDetails) Category() TaskCategory { return CategoryHardening }

func (d HardeningDetails) Validate() error {
	if d.ShadePercent < 0 || d.ShadePercent > 100 {
		return invalid("details.shade_percent", d.ShadePercent, "shade percent must be between 0 and 100")
	}
	if d.DurationHours < 0 || d.DurationHours > 24 {
		return invalid("details.duration_hours", d.DurationHours, "duration must be between 0 and 24 hours")
	}
	return nil
}

// TransplantDetails describes moving plants to a bigger pot or the field
type TransplantDetails struct {
	Destination string  `json:"destination"`
	PotSizeGal  float64 `json:"pot_size_gal,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

func (TransplantDetails) Category() TaskCategory { return CategoryTransplant }

func (d TransplantDetails) Validate() error {
	if d.Destination == "" {
		return invalid("details.destination", d.Destination, "destination is required")
	}
	return nil
}

// ErrUnknownCategory is returned when a payload names no known category
var ErrUnknownCategory = errors.New("unknown task category")

// TaskPayload carries TaskDetails through JSON and the database. It encodes as
// a flat object with a "category" discriminator next to the detail fields.
type TaskPayload struct {
	Details TaskDetails
}

// MarshalJSON implements json.Marshaler
func (p TaskPayload) MarshalJSON() ([]byte, error) {
	if p.Details == nil {
		return []byte("null"), nil
	}

	raw, err := json.Marshal(p.Details)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	category, _ := json.Marshal(p.Details.Category())
	fields["category"] = category

	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *TaskPayload) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.Details = nil
		return nil
	}

	var head struct {
		Category TaskCategory `json:"category"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	details, err := decodeDetails(head.Category, data)
	if err != nil {
		return err
	}
	p.Details = details
	return nil
}

func decodeDetails(category TaskCategory, data []byte) (TaskDetails, error) {
	switch category {
	case CategoryWater:
		var d WaterDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case CategoryFertilize:
		var d FertilizeDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case CategoryEM:
		var d EMDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case CategoryPrune:
		var d PruneDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case CategoryHardening:
		var d HardeningDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case CategoryTransplant:
		var d TransplantDetails
		err := json.Unmarshal(data, &d)
		return d, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
}

// Value implements driver.Valuer for the JSONB details column
func (p TaskPayload) Value() (driver.Value, error) {
	if p.Details == nil {
		return nil, nil
	}
	return p.MarshalJSON()
}

// Scan implements sql.Scanner for the JSONB details column
func (p *TaskPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		p.Details = nil
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("cannot scan %T into TaskPayload", src)
}

// Task is a scheduled care action in a nursery
type Task struct {
	ID          int64        `json:"id" db:"id"`
	NurseryID   int64        `json:"nursery_id" db:"nursery_id"`
	PlantingID  *int64       `json:"planting_id,omitempty" db:"planting_id"`
	Date        time.Time    `json:"date" db:"task_date"`
	Category    TaskCategory `json:"category" db:"category"`
	Details     TaskPayload  `json:"details" db:"details"`
	Status      TaskStatus   `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

// Validate checks the task fields. A task without details takes the default
// status; details, when present, must match the task category.
func (t *Task) Validate() error {
	if t.NurseryID <= 0 {
		return invalid("nursery_id", t.NurseryID, "nursery id is required")
	}
	if t.Date.IsZero() {
		return invalid("date", "", "date is required")
	}

	if t.Category == "" && t.Details.Details != nil {
		t.Category = t.Details.Details.Category()
	}
	if !t.Category.Valid() {
		return invalid("category", t.Category, "unknown task category")
	}

	if t.Status == "" {
		t.Status = TaskPending
	}
	if !t.Status.Valid() {
		return invalid("status", t.Status, "unknown task status")
	}

	if d := t.Details.Details; d != nil {
		if d.Category() != t.Category {
			return invalid("details.category", d.Category(), fmt.Sprintf("details do not match task category %q", t.Category))
		}
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyStatus moves the task to next, stamping or clearing CompletedAt.
func (t *Task) ApplyStatus(next TaskStatus, now time.Time) error {
	if !next.Valid() {
		return invalid("status", next, "unknown task status")
	}
	if !t.Status.CanTransition(next) {
		return invalid("status", next, fmt.Sprintf("cannot move task from %s to %s", t.Status, next))
	}

	t.Status = next
	if next == TaskPending {
		t.CompletedAt = nil
	} else {
		stamp := now.UTC()
		t.CompletedAt = &stamp
	}
	return nil
}
