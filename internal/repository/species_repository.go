package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"nursery-platform/internal/models"
	"nursery-platform/pkg/database"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// speciesRepository implements SpeciesRepository on PostgreSQL
type speciesRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSpeciesRepository creates a new species repository
func NewSpeciesRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) SpeciesRepository {
	return &speciesRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

const speciesColumns = `id, common_name, scientific_name, category, description,
	pot_size_min_gal, pot_size_max_gal, pot_depth_cm, root_behavior,
	watering_dry_season_days, watering_rainy_season_days,
	shade_requirements, shade_tolerance_percent,
	fertilization, hardening_rules, transplant_readiness, common_issues,
	growth_rate, native_to_region, nitrogen_fixer`

// CountSpecies returns the number of species in the library
func (r *speciesRepository) CountSpecies(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, "count_species", &count, `SELECT COUNT(*) FROM species`); err != nil {
		return 0, fmt.Errorf("failed to count species: %w", err)
	}
	return count, nil
}

// InsertSpeciesBatch inserts multiple species in a single transaction
func (r *speciesRepository) InsertSpeciesBatch(ctx context.Context, species []*models.Species) error {
	if len(species) == 0 {
		return nil
	}
	defer r.observeBatch(ctx, "[REPO_BATCH_INSERT] Species batch insert completed", len(species), time.Now())

	return r.db.InTx(ctx, "insert_species_batch", func(tx *sqlx.Tx) error {
		return insertSpecies(ctx, tx, species)
	})
}

// ReplaceSpecies swaps the whole library in one transaction; on error the
// previous library is kept
func (r *speciesRepository) ReplaceSpecies(ctx context.Context, species []*models.Species) error {
	defer r.observeBatch(ctx, "[REPO_REPLACE_SPECIES] Species library replaced", len(species), time.Now())

	return r.db.InTx(ctx, "replace_species", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM species`)
		if err != nil {
			return fmt.Errorf("failed to delete species: %w", err)
		}
		n, _ := result.RowsAffected()
		r.logger.Debug(ctx, "[REPO_CLEAR_SPECIES] Species library cleared", logging.Fields{
			"deleted": n,
		})

		if len(species) == 0 {
			return nil
		}
		return insertSpecies(ctx, tx, species)
	})
}

func (r *speciesRepository) observeBatch(ctx context.Context, message string, count int, start time.Time) {
	duration := time.Since(start)
	r.metrics.SpeciesBatchSize.Observe(float64(count))
	r.logger.Debug(ctx, message, logging.Fields{
		"count":       count,
		"duration_ms": duration.Milliseconds(),
	})
}

func insertSpecies(ctx context.Context, tx *sqlx.Tx, species []*models.Species) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO species (
			common_name, scientific_name, category, description,
			pot_size_min_gal, pot_size_max_gal, pot_depth_cm, root_behavior,
			watering_dry_season_days, watering_rainy_season_days,
			shade_requirements, shade_tolerance_percent,
			fertilization, hardening_rules, transplant_readiness, common_issues,
			growth_rate, native_to_region, nitrogen_fixer
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range species {
		issues := s.CommonIssues
		if issues == nil {
			issues = pq.StringArray{}
		}

		err := stmt.QueryRowContext(ctx,
			s.CommonName,
			s.ScientificName,
			s.Category,
			s.Description,
			s.PotSizeMinGal,
			s.PotSizeMaxGal,
			s.PotDepthCm,
			s.RootBehavior,
			s.WateringDrySeasonDays,
			s.WateringRainySeasonDays,
			s.ShadeRequirements,
			s.ShadeTolerancePercent,
			s.Fertilization,
			s.HardeningRules,
			s.TransplantReadiness,
			issues,
			s.GrowthRate,
			s.NativeToRegion,
			s.NitrogenFixer,
		).Scan(&s.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return &DuplicateError{Resource: "species", Key: s.ScientificName}
			}
			return fmt.Errorf("failed to insert species %q: %w", s.ScientificName, err)
		}
	}
	return nil
}

// GetSpecies retrieves a species by ID
func (r *speciesRepository) GetSpecies(ctx context.Context, id int64) (*models.Species, error) {
	query := `SELECT ` + speciesColumns + ` FROM species WHERE id = $1`

	var species models.Species
	err := r.db.GetContext(ctx, "get_species", &species, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("species", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get species: %w", err)
	}

	return &species, nil
}

// ListSpecies retrieves species with filtering and pagination
func (r *speciesRepository) ListSpecies(ctx context.Context, filter SpeciesFilter) ([]*models.Species, int, error) {
	cond := speciesConditions(filter)

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM species` + cond.where()
	if err := r.db.GetContext(ctx, "count_species_filtered", &totalCount, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count species: %w", err)
	}

	query := `SELECT ` + speciesColumns + ` FROM species` + cond.where() + ` ORDER BY common_name, id`
	query += cond.page(filter.Limit, filter.Offset)

	var species []*models.Species
	if err := r.db.SelectContext(ctx, "list_species", &species, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list species: %w", err)
	}

	return species, totalCount, nil
}

// GetSpeciesStats counts the library by category, nitrogen fixers and natives
func (r *speciesRepository) GetSpeciesStats(ctx context.Context) (*models.SpeciesStats, error) {
	var totals struct {
		Total          int `db:"total"`
		NitrogenFixers int `db:"nitrogen_fixers"`
		NativeSpecies  int `db:"native_species"`
	}
	err := r.db.GetContext(ctx, "species_totals", &totals, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE nitrogen_fixer) AS nitrogen_fixers,
			COUNT(*) FILTER (WHERE native_to_region) AS native_species
		FROM species
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate species totals: %w", err)
	}

	var rows []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	err = r.db.SelectContext(ctx, "species_by_category", &rows,
		`SELECT category, COUNT(*) AS count FROM species GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count species by category: %w", err)
	}

	stats := &models.SpeciesStats{
		Total:          totals.Total,
		ByCategory:     make(map[string]int, len(rows)),
		NitrogenFixers: totals.NitrogenFixers,
		NativeSpecies:  totals.NativeSpecies,
	}
	for _, row := range rows {
		stats.ByCategory[row.Category] = row.Count
	}

	return stats, nil
}
