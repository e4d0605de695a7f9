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

// NurseryService manages nurseries, their plantings and the active nursery
type NurseryService struct {
	repo    repository.NurseryRepository
	species repository.SpeciesRepository
	seasons *SeasonService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewNurseryService creates a new nursery service
func NewNurseryService(repo repository.NurseryRepository, species repository.SpeciesRepository, seasons *SeasonService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *NurseryService {
	return &NurseryService{
		repo:    repo,
		species: species,
		seasons: seasons,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

func (s *NurseryService) checkRegion(region string) error {
	if _, ok := s.seasons.Region(region); !ok {
		return &models.ValidationError{Field: "region", Value: region, Message: "unknown region"}
	}
	return nil
}

// Create stores a new nursery. The first nursery becomes the active one.
func (s *NurseryService) Create(ctx context.Context, nursery *models.Nursery) error {
	nursery.Normalize()
	if err := nursery.Validate(); err != nil {
		return err
	}
	if err := s.checkRegion(nursery.Region); err != nil {
		return err
	}

	now := s.now().UTC()
	nursery.CreatedAt = now
	nursery.UpdatedAt = now

	if err := s.repo.CreateNursery(ctx, nursery); err != nil {
		return err
	}

	s.logger.Info(ctx, "[NURSERY_CREATE] Nursery created", logging.Fields{
		"nursery_id":  nursery.ID,
		"region":      nursery.Region,
		"start_month": nursery.StartMonth,
	})

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.ActiveNurseryID == nil {
		if err := s.repo.SetActiveNursery(ctx, &nursery.ID); err != nil {
			return err
		}
	}

	return nil
}

// Get returns a nursery by id
func (s *NurseryService) Get(ctx context.Context, id int64) (*models.Nursery, error) {
	return s.repo.GetNursery(ctx, id)
}

// List returns every nursery ordered by id
func (s *NurseryService) List(ctx context.Context) ([]*models.Nursery, error) {
	return s.repo.ListNurseries(ctx)
}

// Update applies a partial update to a nursery
func (s *NurseryService) Update(ctx context.Context, id int64, update models.NurseryUpdate) (*models.Nursery, error) {
	nursery, err := s.repo.GetNursery(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(nursery)
	nursery.Normalize()
	if err := nursery.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRegion(nursery.Region); err != nil {
		return nil, err
	}

	nursery.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateNursery(ctx, nursery); err != nil {
		return nil, err
	}

	return nursery, nil
}

// Delete removes a nursery together with its plantings, tasks and logs
func (s *NurseryService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteNursery(ctx, id)
}

// Stats summarizes a nursery
func (s *NurseryService) Stats(ctx context.Context, id int64) (*models.NurseryStats, error) {
	if _, err := s.repo.GetNursery(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetNurseryStats(ctx, id)
}

// ActiveNursery returns the selected nursery, or the oldest one when none is
// selected. It returns nil when there are no nurseries.
func (s *NurseryService) ActiveNursery(ctx context.Context) (*models.Nursery, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.ActiveNurseryID != nil {
		return s.repo.GetNursery(ctx, *settings.ActiveNurseryID)
	}

	nurseries, err := s.repo.ListNurseries(ctx)
	if err != nil {
		return nil, err
	}
	if len(nurseries) == 0 {
		return nil, nil
	}
	return nurseries[0], nil
}

// SetActiveNursery selects the active nursery; nil clears the selection
func (s *NurseryService) SetActiveNursery(ctx context.Context, id *int64) error {
	if id != nil {
		if _, err := s.repo.GetNursery(ctx, *id); err != nil {
			return err
		}
	}
	if err := s.repo.SetActiveNursery(ctx, id); err != nil {
		return err
	}

	fields := logging.Fields{"nursery_id": nil}
	if id != nil {
		fields["nursery_id"] = *id
	}
	s.logger.Info(ctx, "[NURSERY_ACTIVE] Active nursery changed", fields)
	return nil
}

// HasNursery reports whether any nursery exists
func (s *NurseryService) HasNursery(ctx context.Context) (bool, error) {
	nurseries, err := s.repo.ListNurseries(ctx)
	if err != nil {
		return false, err
	}
	return len(nurseries) > 0, nil
}

// AddPlanting records a batch of plants. A referenced species fills in the
// name, pot dimensions and expected transplant date when they are missing.
func (s *NurseryService) AddPlanting(ctx context.Context, planting *models.Planting) error {
	if _, err := s.repo.GetNursery(ctx, planting.NurseryID); err != nil {
		return err
	}

	now := s.now().UTC()
	if planting.SpeciesID != nil {
		species, err := s.species.GetSpecies(ctx, *planting.SpeciesID)
		if err != nil {
			return err
		}
		if planting.SpeciesName == "" {
			planting.SpeciesName = species.CommonName
		}
		if planting.PotSizeGal == 0 {
			planting.PotSizeGal = species.PotSizeMinGal
		}
		if planting.PotDepthCm == 0 {
			planting.PotDepthCm = species.PotDepthCm
		}
		if planting.ExpectedTransplantDate == nil && species.TransplantReadiness.MinMonthsInPot > 0 {
			d := now.AddDate(0, species.TransplantReadiness.MinMonthsInPot, 0).Truncate(24 * time.Hour)
			planting.ExpectedTransplantDate = &d
		}
	}

	if err := planting.Validate(); err != nil {
		return err
	}
	planting.CreatedAt = now

	if err := s.repo.CreatePlanting(ctx, planting); err != nil {
		return fmt.Errorf("failed to add planting: %w", err)
	}

	s.logger.Info(ctx, "[PLANTING_CREATE] Planting added", logging.Fields{
		"nursery_id":  planting.NurseryID,
		"planting_id": planting.ID,
		"species":     planting.SpeciesName,
		"quantity":    planting.Quantity,
	})
	return nil
}

// ListPlantings returns the plantings of a nursery
func (s *NurseryService) ListPlantings(ctx context.Context, nurseryID int64) ([]*models.Planting, error) {
	if _, err := s.repo.GetNursery(ctx, nurseryID); err != nil {
		return nil, err
	}
	return s.repo.ListPlantings(ctx, nurseryID)
}

// DeletePlanting removes a planting; its tasks and logs are kept but detached
func (s *NurseryService) DeletePlanting(ctx context.Context, id int64) error {
	return s.repo.DeletePlanting(ctx, id)
}
