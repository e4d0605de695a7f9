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

// recentLogLimit bounds the recent logs returned with statistics
const recentLogLimit = 10

// InputLogService records the inputs applied in a nursery
type InputLogService struct {
	repo    repository.NurseryRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewInputLogService creates a new input log service
func NewInputLogService(repo repository.NurseryRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *InputLogService {
	return &InputLogService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// Create records an input application
func (s *InputLogService) Create(ctx context.Context, log *models.InputLog) error {
	if err := log.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetNursery(ctx, log.NurseryID); err != nil {
		return err
	}
	if err := checkPlanting(ctx, s.repo, log.NurseryID, log.PlantingID); err != nil {
		return err
	}
	if log.TaskID != nil {
		task, err := s.repo.GetTask(ctx, *log.TaskID)
		if err != nil {
			return err
		}
		if task.NurseryID != log.NurseryID {
			return &models.ValidationError{Field: "task_id", Value: fmt.Sprint(*log.TaskID), Message: "task belongs to another nursery"}
		}
	}

	log.CreatedAt = s.now().UTC()
	if err := s.repo.CreateInputLog(ctx, log); err != nil {
		return err
	}

	s.logger.Info(ctx, "[INPUT_LOG_CREATE] Input logged", logging.Fields{
		"nursery_id": log.NurseryID,
		"log_id":     log.ID,
		"input_type": log.InputType,
		"quantity":   log.Quantity,
		"units":      log.Units,
	})
	return nil
}

// List returns logs matching filter, newest first
func (s *InputLogService) List(ctx context.Context, filter repository.InputLogFilter) ([]*models.InputLog, int, error) {
	if _, err := s.repo.GetNursery(ctx, filter.NurseryID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListInputLogs(ctx, filter)
}

// Delete removes a log
func (s *InputLogService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteInputLog(ctx, id)
}

// Stats aggregates the logs of a nursery per input type within an optional
// date range
func (s *InputLogService) Stats(ctx context.Context, nurseryID int64, start, end *time.Time) (*models.InputLogStats, error) {
	logs, total, err := s.List(ctx, repository.InputLogFilter{
		NurseryID: nurseryID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, err
	}

	stats := &models.InputLogStats{
		NurseryID:  nurseryID,
		TotalLogs:  total,
		ByType:     make(map[string]models.InputTypeStats),
		RecentLogs: make([]models.InputLog, 0, recentLogLimit),
	}
	for i, log := range logs {
		entry := stats.ByType[log.InputType]
		entry.Count++
		entry.TotalQuantity += log.Quantity
		stats.ByType[log.InputType] = entry

		if i < recentLogLimit {
			stats.RecentLogs = append(stats.RecentLogs, *log)
		}
	}

	return stats, nil
}
