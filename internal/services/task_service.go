package services

import (
	"context"
	"fmt"
	"time"

	"nursery-platform/internal/models"
	"nursery-platform/internal/repository"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// TaskService schedules and tracks nursery care tasks
type TaskService struct {
	repo    repository.NurseryRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(repo repository.NurseryRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *TaskService {
	return &TaskService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// checkPlanting verifies a planting exists and belongs to the nursery
func checkPlanting(ctx context.Context, repo repository.NurseryRepository, nurseryID int64, plantingID *int64) error {
	if plantingID == nil {
		return nil
	}
	planting, err := repo.GetPlanting(ctx, *plantingID)
	if err != nil {
		return err
	}
	if planting.NurseryID != nurseryID {
		return &models.ValidationError{Field: "planting_id", Value: fmt.Sprint(*plantingID), Message: "planting belongs to another nursery"}
	}
	return nil
}

// Create schedules a task
func (s *TaskService) Create(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetNursery(ctx, task.NurseryID); err != nil {
		return err
	}
	if err := checkPlanting(ctx, s.repo, task.NurseryID, task.PlantingID); err != nil {
		return err
	}

	now := s.now().UTC()
	task.CreatedAt = now
	task.CompletedAt = nil
	if task.Status != models.TaskPending {
		task.CompletedAt = &now
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return err
	}

	s.logger.Info(ctx, "[TASK_CREATE] Task scheduled", logging.Fields{
		"nursery_id": task.NurseryID,
		"task_id":    task.ID,
		"category":   string(task.Category),
		"date":       task.Date.Format("2006-01-02"),
	})
	return nil
}

// Get returns a task by id
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// List returns tasks matching filter ordered by date
func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]*models.Task, int, error) {
	if _, err := s.repo.GetNursery(ctx, filter.NurseryID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListTasks(ctx, filter)
}

// UpdateStatus moves a task to a new status
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := task.Status
	if err := task.ApplyStatus(status, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTaskStatus(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[TASK_STATUS] Task status changed", logging.Fields{
		"task_id": task.ID,
		"from":    string(previous),
		"to":      string(task.Status),
	})
	return task, nil
}
