package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nursery-platform/internal/models"
)

// NurseryRepository provides data access for nurseries and everything they own
type NurseryRepository interface {
	// Nursery operations
	CreateNursery(ctx context.Context, nursery *models.Nursery) error
	GetNursery(ctx context.Context, id int64) (*models.Nursery, error)
	ListNurseries(ctx context.Context) ([]*models.Nursery, error)
	UpdateNursery(ctx context.Context, nursery *models.Nursery) error
	DeleteNursery(ctx context.Context, id int64) error
	GetNurseryStats(ctx context.Context, id int64) (*models.NurseryStats, error)

	// Settings operations
	GetSettings(ctx context.Context) (*models.AppSettings, error)
	SetActiveNursery(ctx context.Context, id *int64) error

	// Planting operations
	CreatePlanting(ctx context.Context, planting *models.Planting) error
	GetPlanting(ctx context.Context, id int64) (*models.Planting, error)
	ListPlantings(ctx context.Context, nurseryID int64) ([]*models.Planting, error)
	DeletePlanting(ctx context.Context, id int64) error

	// Task operations
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, int, error)
	UpdateTaskStatus(ctx context.Context, task *models.Task) error

	// Input log operations
	CreateInputLog(ctx context.Context, log *models.InputLog) error
	ListInputLogs(ctx context.Context, filter InputLogFilter) ([]*models.InputLog, int, error)
	DeleteInputLog(ctx context.Context, id int64) error

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// SpeciesRepository provides data access for the reference species library
type SpeciesRepository interface {
	CountSpecies(ctx context.Context) (int, error)
	InsertSpeciesBatch(ctx context.Context, species []*models.Species) error
	ReplaceSpecies(ctx context.Context, species []*models.Species) error
	GetSpecies(ctx context.Context, id int64) (*models.Species, error)
	ListSpecies(ctx context.Context, filter SpeciesFilter) ([]*models.Species, int, error)
	GetSpeciesStats(ctx context.Context) (*models.SpeciesStats, error)
}

// TaskFilter defines filters for querying tasks
type TaskFilter struct {
	NurseryID  int64
	PlantingID *int64
	Status     *models.TaskStatus
	Category   *models.TaskCategory
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int // 0 means no limit
	Offset     int
}

// InputLogFilter defines filters for querying input logs
type InputLogFilter struct {
	NurseryID  int64
	PlantingID *int64
	InputType  *string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int // 0 means no limit
	Offset     int
}

// SpeciesFilter defines filters for querying the species library
type SpeciesFilter struct {
	Category      *string
	Search        string // case-insensitive match on common or scientific name
	NitrogenFixer *bool
	Native        *bool
	Limit         int // 0 means no limit
	Offset        int
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsTransient returns false as a missing resource stays missing
func (e *NotFoundError) IsTransient() bool {
	return false
}

// DuplicateError reports a unique key that already exists
type DuplicateError struct {
	Resource string
	Key      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.Key)
}

// IsTransient returns false as retrying the same insert fails again
func (e *DuplicateError) IsTransient() bool {
	return false
}

func notFound(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// conditions accumulates WHERE clauses with numbered placeholders
type conditions struct {
	clauses []string
	args    []interface{}
}

// add appends a clause; each "?" in it is bound to the next argument.
func (c *conditions) add(clause string, args ...interface{}) {
	for _, arg := range args {
		c.args = append(c.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page returns the LIMIT/OFFSET suffix and binds its arguments.
func (c *conditions) page(limit, offset int) string {
	suffix := ""
	if limit > 0 {
		c.args = append(c.args, limit)
		suffix += fmt.Sprintf(" LIMIT $%d", len(c.args))
	}
	if offset > 0 {
		c.args = append(c.args, offset)
		suffix += fmt.Sprintf(" OFFSET $%d", len(c.args))
	}
	return suffix
}

func taskConditions(f TaskFilter) *conditions {
	c := &conditions{}
	c.add("nursery_id = ?", f.NurseryID)
	if f.PlantingID != nil {
		c.add("planting_id = ?", *f.PlantingID)
	}
	if f.Status != nil {
		c.add("status = ?", string(*f.Status))
	}
	if f.Category != nil {
		c.add("category = ?", string(*f.Category))
	}
	if f.StartDate != nil {
		c.add("task_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		c.add("task_date <= ?", *f.EndDate)
	}
	return c
}

func inputLogConditions(f InputLogFilter) *conditions {
	c := &conditions{}
	c.add("nursery_id = ?", f.NurseryID)
	if f.PlantingID != nil {
		c.add("planting_id = ?", *f.PlantingID)
	}
	if f.InputType != nil {
		c.add("input_type = ?", *f.InputType)
	}
	if f.StartDate != nil {
		c.add("log_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		c.add("log_date <= ?", *f.EndDate)
	}
	return c
}

func speciesConditions(f SpeciesFilter) *conditions {
	c := &conditions{}
	if f.Category != nil {
		c.add("category = ?", *f.Category)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		c.add("(LOWER(common_name) LIKE ? OR LOWER(scientific_name) LIKE ?)", pattern, pattern)
	}
	if f.NitrogenFixer != nil {
		c.add("nitrogen_fixer = ?", *f.NitrogenFixer)
	}
	if f.Native != nil {
		c.add("native_to_region = ?", *f.Native)
	}
	return c
}
