package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nursery-platform/internal/models"
	"nursery-platform/pkg/database"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// nurseryRepository implements NurseryRepository on PostgreSQL
type nurseryRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewNurseryRepository creates a new nursery repository
func NewNurseryRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) NurseryRepository {
	return &nurseryRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const nurseryColumns = `id, name, start_month, region, language, created_at, updated_at`

// CreateNursery creates a new nursery
func (r *nurseryRepository) CreateNursery(ctx context.Context, nursery *models.Nursery) error {
	query := `
		INSERT INTO nurseries (name, start_month, region, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		nursery.Name,
		nursery.StartMonth,
		nursery.Region,
		nursery.Language,
		nursery.CreatedAt,
		nursery.UpdatedAt,
	).Scan(&nursery.ID)

	if err != nil {
		r.metrics.RecordDBError("insert_error")
		return fmt.Errorf("failed to create nursery: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_NURSERY] Nursery created", logging.Fields{
		"nursery_id": nursery.ID,
		"region":     nursery.Region,
	})

	return nil
}

// GetNursery retrieves a nursery by ID
func (r *nurseryRepository) GetNursery(ctx context.Context, id int64) (*models.Nursery, error) {
	query := `SELECT ` + nurseryColumns + ` FROM nurseries WHERE id = $1`

	var nursery models.Nursery
	err := r.db.GetContext(ctx, "get_nursery", &nursery, query, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("nursery", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get nursery: %w", err)
	}

	return &nursery, nil
}

// ListNurseries retrieves every nursery ordered by creation
func (r *nurseryRepository) ListNurseries(ctx context.Context) ([]*models.Nursery, error) {
	query := `SELECT ` + nurseryColumns + ` FROM nurseries ORDER BY id`

	var nurseries []*models.Nursery
	if err := r.db.SelectContext(ctx, "list_nurseries", &nurseries, query); err != nil {
		return nil, fmt.Errorf("failed to list nurseries: %w", err)
	}

	return nurseries, nil
}

// UpdateNursery stores the editable fields of a nursery
func (r *nurseryRepository) UpdateNursery(ctx context.Context, nursery *models.Nursery) error {
	query := `
		UPDATE nurseries
		SET name = $2, start_month = $3, region = $4, language = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, "update_nursery", query,
		nursery.ID,
		nursery.Name,
		nursery.StartMonth,
		nursery.Region,
		nursery.Language,
		nursery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update nursery: %w", err)
	}

	return expectAffected(result, "nursery", nursery.ID)
}

// DeleteNursery removes a nursery with its plantings, tasks and input logs in
// one transaction
func (r *nurseryRepository) DeleteNursery(ctx context.Context, id int64) error {
	var removed struct{ plantings, tasks, logs int64 }

	err := r.db.InTx(ctx, "delete_nursery", func(tx *sqlx.Tx) error {
		var err error
		if removed.logs, err = execCount(ctx, tx, `DELETE FROM input_logs WHERE nursery_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete input logs: %w", err)
		}
		if removed.tasks, err = execCount(ctx, tx, `DELETE FROM tasks WHERE nursery_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if removed.plantings, err = execCount(ctx, tx, `DELETE FROM plantings WHERE nursery_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete plantings: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `UPDATE app_settings SET active_nursery_id = NULL, updated_at = NOW() WHERE active_nursery_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear active nursery: %w", err)
		}

		n, err := execCount(ctx, tx, `DELETE FROM nurseries WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete nursery: %w", err)
		}
		if n == 0 {
			return notFound("nursery", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info(ctx, "[REPO_DELETE_NURSERY] Nursery and owned records deleted", logging.Fields{
		"nursery_id": id,
		"plantings":  removed.plantings,
		"tasks":      removed.tasks,
		"input_logs": removed.logs,
	})

	return nil
}

// GetNurseryStats aggregates plant and task counts of a nursery
func (r *nurseryRepository) GetNurseryStats(ctx context.Context, id int64) (*models.NurseryStats, error) {
	if _, err := r.GetNursery(ctx, id); err != nil {
		return nil, err
	}

	query := `
		SELECT
			$1::bigint AS nursery_id,
			(SELECT COALESCE(SUM(quantity), 0) FROM plantings WHERE nursery_id = $1) AS total_plants,
			(SELECT COUNT(DISTINCT COALESCE(species_id::text, LOWER(species_name)))
			   FROM plantings WHERE nursery_id = $1) AS total_species,
			(SELECT COUNT(*) FROM tasks WHERE nursery_id = $1 AND status = 'pending') AS pending_tasks,
			(SELECT COUNT(*) FROM tasks WHERE nursery_id = $1 AND status = 'completed') AS completed_tasks
	`

	var stats models.NurseryStats
	if err := r.db.GetContext(ctx, "nursery_stats", &stats, query, id); err != nil {
		return nil, fmt.Errorf("failed to calculate nursery stats: %w", err)
	}

	return &stats, nil
}

// GetSettings retrieves the application settings row
func (r *nurseryRepository) GetSettings(ctx context.Context) (*models.AppSettings, error) {
	query := `SELECT active_nursery_id, updated_at FROM app_settings WHERE id = 1`

	var settings models.AppSettings
	err := r.db.GetContext(ctx, "get_settings", &settings, query)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.AppSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// SetActiveNursery records the selected nursery; nil clears the selection
func (r *nurseryRepository) SetActiveNursery(ctx context.Context, id *int64) error {
	query := `
		INSERT INTO app_settings (id, active_nursery_id, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			active_nursery_id = EXCLUDED.active_nursery_id,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, "set_active_nursery", query, id); err != nil {
		return fmt.Errorf("failed to set active nursery: %w", err)
	}

	return nil
}

const plantingColumns = `id, nursery_id, species_id, species_name, quantity, pot_size_gal, pot_depth_cm,
	expected_transplant_date, created_at`

// CreatePlanting creates a new planting
func (r *nurseryRepository) CreatePlanting(ctx context.Context, planting *models.Planting) error {
	query := `
		INSERT INTO plantings (
			nursery_id, species_id, species_name, quantity, pot_size_gal, pot_depth_cm,
			expected_transplant_date, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		planting.NurseryID,
		planting.SpeciesID,
		planting.SpeciesName,
		planting.Quantity,
		planting.PotSizeGal,
		planting.PotDepthCm,
		planting.ExpectedTransplantDate,
		planting.CreatedAt,
	).Scan(&planting.ID)

	if err != nil {
		r.metrics.RecordDBError("insert_error")
		return fmt.Errorf("failed to create planting: %w", err)
	}

	return nil
}

// GetPlanting retrieves a planting by ID
func (r *nurseryRepository) GetPlanting(ctx context.Context, id int64) (*models.Planting, error) {
	query := `SELECT ` + plantingColumns + ` FROM plantings WHERE id = $1`

	var planting models.Planting
	err := r.db.GetContext(ctx, "get_planting", &planting, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("planting", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planting: %w", err)
	}

	return &planting, nil
}

// ListPlantings retrieves the plantings of a nursery
func (r *nurseryRepository) ListPlantings(ctx context.Context, nurseryID int64) ([]*models.Planting, error) {
	query := `SELECT ` + plantingColumns + ` FROM plantings WHERE nursery_id = $1 ORDER BY id`

	var plantings []*models.Planting
	if err := r.db.SelectContext(ctx, "list_plantings", &plantings, query, nurseryID); err != nil {
		return nil, fmt.Errorf("failed to list plantings: %w", err)
	}

	return plantings, nil
}

// DeletePlanting removes a planting
func (r *nurseryRepository) DeletePlanting(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "delete_planting", `DELETE FROM plantings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete planting: %w", err)
	}

	return expectAffected(result, "planting", id)
}

const taskColumns = `id, nursery_id, planting_id, task_date, category, details, status, created_at, completed_at`

// CreateTask creates a new task
func (r *nurseryRepository) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (nursery_id, planting_id, task_date, category, details, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		task.NurseryID,
		task.PlantingID,
		task.Date,
		string(task.Category),
		task.Details,
		string(task.Status),
		task.CreatedAt,
		task.CompletedAt,
	).Scan(&task.ID)

	if err != nil {
		r.metrics.RecordDBError("insert_error")
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID
func (r *nurseryRepository) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task models.Task
	err := r.db.GetContext(ctx, "get_task", &task, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// ListTasks retrieves tasks with filtering and pagination
func (r *nurseryRepository) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, int, error) {
	cond := taskConditions(filter)

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM tasks` + cond.where()
	if err := r.db.GetContext(ctx, "count_tasks", &totalCount, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + cond.where() + ` ORDER BY task_date, id`
	query += cond.page(filter.Limit, filter.Offset)

	var tasks []*models.Task
	if err := r.db.SelectContext(ctx, "list_tasks", &tasks, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, totalCount, nil
}

// UpdateTaskStatus stores the status and completion time of a task
func (r *nurseryRepository) UpdateTaskStatus(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET status = $2, completed_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, "update_task_status", query, task.ID, string(task.Status), task.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	return expectAffected(result, "task", task.ID)
}

const inputLogColumns = `id, nursery_id, task_id, planting_id, log_date, input_type, quantity, units, notes, created_at`

// CreateInputLog creates a new input log
func (r *nurseryRepository) CreateInputLog(ctx context.Context, log *models.InputLog) error {
	query := `
		INSERT INTO input_logs (nursery_id, task_id, planting_id, log_date, input_type, quantity, units, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		log.NurseryID,
		log.TaskID,
		log.PlantingID,
		log.Date,
		log.InputType,
		log.Quantity,
		log.Units,
		log.Notes,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		r.metrics.RecordDBError("insert_error")
		return fmt.Errorf("failed to create input log: %w", err)
	}

	return nil
}

// ListInputLogs retrieves input logs newest first
func (r *nurseryRepository) ListInputLogs(ctx context.Context, filter InputLogFilter) ([]*models.InputLog, int, error) {
	cond := inputLogConditions(filter)

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM input_logs` + cond.where()
	if err := r.db.GetContext(ctx, "count_input_logs", &totalCount, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count input logs: %w", err)
	}

	query := `SELECT ` + inputLogColumns + ` FROM input_logs` + cond.where() + ` ORDER BY log_date DESC, id DESC`
	query += cond.page(filter.Limit, filter.Offset)

	var logs []*models.InputLog
	if err := r.db.SelectContext(ctx, "list_input_logs", &logs, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list input logs: %w", err)
	}

	return logs, totalCount, nil
}

// DeleteInputLog removes an input log
func (r *nurseryRepository) DeleteInputLog(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "delete_input_log", `DELETE FROM input_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete input log: %w", err)
	}

	return expectAffected(result, "input_log", id)
}

// HealthCheck performs a repository health check
func (r *nurseryRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func expectAffected(result sql.Result, resource string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(resource, id)
	}
	return nil
}

func execCount(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
