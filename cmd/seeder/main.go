package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"nursery-platform/internal/app"
	"nursery-platform/internal/config"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	reload := flag.Bool("reload", false, "Delete the species library before loading it")
	seedFile := flag.String("seed-file", "", "YAML species library to load instead of the configured one")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *seedFile != "" {
		cfg.Species.SeedFile = *seedFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "nursery-seeder")

	ctx := context.Background()
	logger.Info(ctx, "[SEEDER_START] Starting species library load", logging.Fields{
		"version":   app.Version,
		"reload":    *reload,
		"seed_file": cfg.Species.SeedFile,
		"db_driver": cfg.Database.Driver,
	})

	metricsCollector := metrics.NewCollector("nursery_seeder", prometheus.NewRegistry())

	platform, err := app.New(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEEDER_ERROR] Failed to initialize services", logging.Fields{}, err)
	}
	defer platform.Close()

	var result services.LoadResult
	if *reload {
		result, err = platform.Species.Reload(ctx)
	} else {
		result, err = platform.Species.EnsureLoaded(ctx)
	}
	if err != nil {
		logger.Fatal(ctx, "[SEEDER_ERROR] Species load failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	stats, err := platform.Species.Stats(ctx)
	if err != nil {
		logger.Fatal(ctx, "[SEEDER_ERROR] Failed to read species statistics", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SPECIES LIBRARY")
	fmt.Println(strings.Repeat("=", 80))
	if result.Skipped {
		fmt.Printf("Library already populated with %d species, nothing loaded\n", result.Existing)
	} else {
		fmt.Printf("Loaded Species:     %d\n", result.Loaded)
		fmt.Printf("Duration:           %v\n", result.Duration)
	}
	fmt.Printf("Total Species:      %d\n", stats.Total)
	fmt.Printf("Nitrogen Fixers:    %d\n", stats.NitrogenFixers)
	fmt.Printf("Native Species:     %d\n", stats.NativeSpecies)

	categories := make([]string, 0, len(stats.ByCategory))
	for category := range stats.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	fmt.Println("\nBy Category:")
	for _, category := range categories {
		fmt.Printf("  %-24s %d\n", category, stats.ByCategory[category])
	}

	logger.Info(ctx, "[SEEDER_COMPLETE] Species library load completed", logging.Fields{
		"loaded":   result.Loaded,
		"existing": result.Existing,
		"skipped":  result.Skipped,
		"total":    stats.Total,
	})
}
