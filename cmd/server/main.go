package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nursery-platform/internal/app"
	"nursery-platform/internal/config"
	"nursery-platform/internal/handlers"
	"nursery-platform/internal/season"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "nursery-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting nursery platform API server", logging.Fields{
		"version":        app.Version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"db_driver":      cfg.Database.Driver,
		"default_region": cfg.Season.DefaultRegion,
	})

	metricsCollector := metrics.NewCollector("nursery_platform", prometheus.DefaultRegisterer)

	platform, err := app.New(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to initialize services", logging.Fields{}, err)
	}
	defer platform.Close()

	if cfg.Species.LoadOnStartup {
		result, err := platform.Species.EnsureLoaded(ctx)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load species library", logging.Fields{}, err)
		}
		logger.Info(ctx, "[STARTUP_SPECIES] Species library ready", logging.Fields{
			"loaded":   result.Loaded,
			"existing": result.Existing,
			"skipped":  result.Skipped,
		})
	}

	// Season refresher
	refresher := services.NewSeasonRefresher(platform.Seasons, cfg.Season.RefreshInterval, logger, metricsCollector)
	refresher.Subscribe(func(ctx context.Context, region string, from, to season.Season) {
		logger.Info(ctx, "[SEASON_NOTICE] Care recommendations changed", logging.Fields{
			"region":          region,
			"season":          string(to),
			"recommendations": season.Recommendations(to, platform.Seasons.Language()),
		})
	})
	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		refresher.Run(ctx)
	}()

	router := handlers.NewRouter(logger, metricsCollector,
		handlers.NewHealthHandler(platform.Nurseries, logger, metricsCollector),
		handlers.NewSeasonHandler(platform.Seasons, logger, metricsCollector),
		handlers.NewSpeciesHandler(platform.Species, platform.Seasons, logger, metricsCollector),
		handlers.NewNurseryHandler(platform.Nursery, logger, metricsCollector),
		handlers.NewTaskHandler(platform.Tasks, logger, metricsCollector),
		handlers.NewInputLogHandler(platform.InputLogs, logger, metricsCollector),
	)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}
	<-refresherDone

	logger.Info(shutdownCtx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
