package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"nursery-platform/internal/models"
	"nursery-platform/internal/repository"
	"nursery-platform/internal/season"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

//go:embed data/species.yaml
var embeddedSpecies []byte

// SpeciesService owns the reference species library
type SpeciesService struct {
	repo     repository.SpeciesRepository
	seasons  *SeasonService
	seedFile string
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector

	group singleflight.Group
	mu    sync.Mutex
}

// LoadResult reports what a library load did
type LoadResult struct {
	Loaded   int           `json:"loaded"`
	Existing int           `json:"existing"`
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"-"`
}

// NewSpeciesService creates a new species service. An empty seedFile uses the
// embedded library.
func NewSpeciesService(repo repository.SpeciesRepository, seasons *SeasonService, seedFile string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SpeciesService {
	return &SpeciesService{
		repo:     repo,
		seasons:  seasons,
		seedFile: seedFile,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// LoadSpeciesLibrary parses a YAML species library and validates every entry
func LoadSpeciesLibrary(r io.Reader) ([]*models.Species, error) {
	var doc struct {
		Species []*models.Species `yaml:"species"`
	}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse species library: %w", err)
	}

	seen := make(map[string]bool, len(doc.Species))
	for i, s := range doc.Species {
		if s == nil {
			return nil, fmt.Errorf("species entry %d is empty", i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("species entry %d: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(s.ScientificName))
		if seen[key] {
			return nil, fmt.Errorf("species entry %d: duplicate scientific name %q", i, s.ScientificName)
		}
		seen[key] = true
	}

	return doc.Species, nil
}

func (s *SpeciesService) library() ([]*models.Species, error) {
	if s.seedFile == "" {
		return LoadSpeciesLibrary(bytes.NewReader(embeddedSpecies))
	}

	f, err := os.Open(s.seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open species seed file: %w", err)
	}
	defer f.Close()

	return LoadSpeciesLibrary(f)
}

// EnsureLoaded populates an empty library. Concurrent callers share a single
// in-flight load, which outlives the cancellation of any one caller.
func (s *SpeciesService) EnsureLoaded(ctx context.Context) (LoadResult, error) {
	v, err, shared := s.group.Do("ensure", func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		existing, err := s.repo.CountSpecies(ctx)
		if err != nil {
			return LoadResult{}, err
		}
		if existing > 0 {
			s.logger.Debug(ctx, "[SPECIES_LOAD_SKIP] Species library already populated", logging.Fields{
				"existing": existing,
			})
			return LoadResult{Existing: existing, Skipped: true}, nil
		}
		return s.load(ctx, s.repo.InsertSpeciesBatch)
	})
	if err != nil {
		return LoadResult{}, err
	}

	if shared {
		s.logger.Debug(ctx, "[SPECIES_LOAD_SHARED] Joined in-flight species load", logging.Fields{})
	}
	return v.(LoadResult), nil
}

// Reload replaces the library with a fresh load. The library is parsed before
// anything is removed, and the swap is atomic, so a failed reload leaves the
// previous library in place.
func (s *SpeciesService) Reload(ctx context.Context) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.CountSpecies(ctx)
	if err != nil {
		return LoadResult{}, err
	}

	result, err := s.load(ctx, s.repo.ReplaceSpecies)
	if err != nil {
		return LoadResult{}, err
	}
	result.Existing = existing
	return result, nil
}

func (s *SpeciesService) load(ctx context.Context, store func(context.Context, []*models.Species) error) (LoadResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[SPECIES_LOAD_START] Loading species library", logging.Fields{
		"source": s.source(),
	})

	species, err := s.library()
	if err != nil {
		s.logger.Error(ctx, "[SPECIES_LOAD_ERROR] Species library is invalid", logging.Fields{
			"source": s.source(),
		}, err)
		return LoadResult{}, err
	}

	if err := store(ctx, species); err != nil {
		s.logger.Error(ctx, "[SPECIES_LOAD_ERROR] Species insert failed", logging.Fields{
			"count": len(species),
		}, err)
		return LoadResult{}, err
	}

	result := LoadResult{Loaded: len(species), Duration: time.Since(startTime)}
	s.metrics.SpeciesLoadDuration.Observe(result.Duration.Seconds())
	s.metrics.SpeciesLoadedTotal.Add(float64(result.Loaded))

	s.logger.Info(ctx, "[SPECIES_LOAD_COMPLETE] Species library loaded", logging.Fields{
		"loaded":      result.Loaded,
		"duration_ms": result.Duration.Milliseconds(),
	})

	return result, nil
}

func (s *SpeciesService) source() string {
	if s.seedFile == "" {
		return "embedded"
	}
	return s.seedFile
}

// List returns species matching filter with the total match count
func (s *SpeciesService) List(ctx context.Context, filter repository.SpeciesFilter) ([]*models.Species, int, error) {
	return s.repo.ListSpecies(ctx, filter)
}

// Get returns a single species
func (s *SpeciesService) Get(ctx context.Context, id int64) (*models.Species, error) {
	return s.repo.GetSpecies(ctx, id)
}

// Search matches term against common and scientific names
func (s *SpeciesService) Search(ctx context.Context, term string) ([]*models.Species, error) {
	species, _, err := s.repo.ListSpecies(ctx, repository.SpeciesFilter{Search: term})
	return species, err
}

// ByCategory returns every species of a category
func (s *SpeciesService) ByCategory(ctx context.Context, category string) ([]*models.Species, error) {
	species, _, err := s.repo.ListSpecies(ctx, repository.SpeciesFilter{Category: &category})
	return species, err
}

// NitrogenFixers returns every nitrogen-fixing species
func (s *SpeciesService) NitrogenFixers(ctx context.Context) ([]*models.Species, error) {
	yes := true
	species, _, err := s.repo.ListSpecies(ctx, repository.SpeciesFilter{NitrogenFixer: &yes})
	return species, err
}

// Native returns every species native to the region
func (s *SpeciesService) Native(ctx context.Context) ([]*models.Species, error) {
	yes := true
	species, _, err := s.repo.ListSpecies(ctx, repository.SpeciesFilter{Native: &yes})
	return species, err
}

// Count returns the library size
func (s *SpeciesService) Count(ctx context.Context) (int, error) {
	return s.repo.CountSpecies(ctx)
}

// Stats summarizes the library
func (s *SpeciesService) Stats(ctx context.Context) (*models.SpeciesStats, error) {
	return s.repo.GetSpeciesStats(ctx)
}

// WateringRecommendation computes how often a species should be watered on date
func (s *SpeciesService) WateringRecommendation(ctx context.Context, id int64, date time.Time, region string) (*models.WateringRecommendation, error) {
	species, err := s.repo.GetSpecies(ctx, id)
	if err != nil {
		return nil, err
	}

	interval, current, resolved := s.seasons.WateringInterval(species.WateringDrySeasonDays, species.WateringRainySeasonDays, date, region)

	return &models.WateringRecommendation{
		SpeciesID:    species.ID,
		CommonName:   species.CommonName,
		Region:       resolved,
		Season:       string(current),
		IntervalDays: interval,
		Multiplier:   season.Multiplier(current),
	}, nil
}
