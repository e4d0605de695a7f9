// Package app wires configuration, storage and services for the
// nursery-platform binaries.
package app

import (
	"context"
	"fmt"
	"os"

	"nursery-platform/internal/config"
	"nursery-platform/internal/repository"
	"nursery-platform/internal/season"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/database"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

// Version is reported in logs by every binary
const Version = "1.0.0"

// App holds the wired services of a running binary
type App struct {
	Config  *config.Config
	Logger  *logging.StructuredLogger
	Metrics *metrics.Collector

	Engine    *season.Engine
	Nurseries repository.NurseryRepository
	Library   repository.SpeciesRepository

	Seasons   *services.SeasonService
	Species   *services.SpeciesService
	Nursery   *services.NurseryService
	Tasks     *services.TaskService
	InputLogs *services.InputLogService

	db *database.PostgresDB
}

// NewLogger creates the structured logger for a binary at the configured level
func NewLogger(cfg *config.Config, service string) *logging.StructuredLogger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.InfoLevel
	}
	return logging.NewStructuredLogger(service, Version, level)
}

// NewEngine builds the season engine from the built-in regions, overlaid with
// the configured regions file when one is set
func NewEngine(cfg config.SeasonConfig, logger *logging.StructuredLogger) (*season.Engine, error) {
	regions := season.DefaultRegions()

	if cfg.RegionsFile != "" {
		f, err := os.Open(cfg.RegionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open regions file: %w", err)
		}
		defer f.Close()

		overrides, err := season.LoadRegions(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load regions file %s: %w", cfg.RegionsFile, err)
		}
		regions = season.MergeRegions(regions, overrides)

		logger.Info(context.Background(), "[SEASON_REGIONS] Region overrides loaded", logging.Fields{
			"file":    cfg.RegionsFile,
			"regions": len(overrides),
		})
	}

	return season.NewEngine(regions, cfg.DefaultRegion, logger)
}

// NewSeasonService builds the engine and wraps it in a season service
func NewSeasonService(cfg *config.Config, logger *logging.StructuredLogger, collector *metrics.Collector) (*services.SeasonService, error) {
	engine, err := NewEngine(cfg.Season, logger)
	if err != nil {
		return nil, err
	}
	return services.NewSeasonService(engine, cfg.Season.CacheTTL, season.MatchLanguage(cfg.Season.Language), logger, collector), nil
}

// New opens the configured storage backend and builds every service
func New(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, collector *metrics.Collector) (*App, error) {
	seasons, err := NewSeasonService(cfg, logger, collector)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: collector,
		Engine:  seasons.Engine(),
		Seasons: seasons,
	}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := repository.NewMemoryStore()
		a.Nurseries = store
		a.Library = store
	default:
		db, err := database.NewPostgresDB(&database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger, collector)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.Nurseries = repository.NewNurseryRepository(db, logger, collector)
		a.Library = repository.NewSpeciesRepository(db, logger, collector)
	}

	logger.Info(ctx, "[STORAGE_READY] Storage backend initialized", logging.Fields{
		"driver": cfg.Database.Driver,
	})

	a.Species = services.NewSpeciesService(a.Library, seasons, cfg.Species.SeedFile, logger, collector)
	a.Nursery = services.NewNurseryService(a.Nurseries, a.Library, seasons, logger, collector)
	a.Tasks = services.NewTaskService(a.Nurseries, logger, collector)
	a.InputLogs = services.NewInputLogService(a.Nurseries, logger, collector)

	return a, nil
}

// Close releases the storage backend
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
