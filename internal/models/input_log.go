package models

import (
	"strings"
	"time"
)

// InputLog records a substance applied in a nursery
type InputLog struct {
	ID         int64     `json:"id" db:"id"`
	NurseryID  int64     `json:"nursery_id" db:"nursery_id"`
	TaskID     *int64    `json:"task_id,omitempty" db:"task_id"`
	PlantingID *int64    `json:"planting_id,omitempty" db:"planting_id"`
	Date       time.Time `json:"date" db:"log_date"`
	InputType  string    `json:"input_type" db:"input_type"`
	Quantity   float64   `json:"quantity" db:"quantity"`
	Units      string    `json:"units" db:"units"`
	Notes      string    `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Known input types
var InputTypes = []string{"water", "em", "compost_tea", "bokashi", "wood_ash", "fertilizer"}

// Known measurement units
var InputUnits = []string{"L", "ml", "kg", "g", "cups"}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Validate checks the input log fields
func (l *InputLog) Validate() error {
	l.InputType = strings.ToLower(strings.TrimSpace(l.InputType))
	l.Units = strings.TrimSpace(l.Units)

	if l.NurseryID <= 0 {
		return invalid("nursery_id", l.NurseryID, "nursery id is required")
	}
	if l.Date.IsZero() {
		return invalid("date", "", "date is required")
	}
	if !contains(InputTypes, l.InputType) {
		return invalid("input_type", l.InputType, "input type must be one of "+strings.Join(InputTypes, ", "))
	}
	if l.Quantity < 0 {
		return invalid("quantity", l.Quantity, "quantity must not be negative")
	}
	if !contains(InputUnits, l.Units) {
		return invalid("units", l.Units, "units must be one of "+strings.Join(InputUnits, ", "))
	}
	return nil
}

// InputTypeStats aggregates the logs of one input type
type InputTypeStats struct {
	Count         int     `json:"count"`
	TotalQuantity float64 `json:"total_quantity"`
}

// InputLogStats summarises the input logs of a nursery
type InputLogStats struct {
	NurseryID  int64                     `json:"nursery_id"`
	TotalLogs  int                       `json:"total_logs"`
	ByType     map[string]InputTypeStats `json:"by_type"`
	RecentLogs []InputLog                `json:"recent_logs"`
}
