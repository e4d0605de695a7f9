package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nursery-platform/internal/config"
	"nursery-platform/internal/season"
	"nursery-platform/pkg/logging"
	"nursery-platform/pkg/metrics"
)

const caribbeanRegion = `
regions:
  - id: caribe
    name: Caribe Sur
    dry_season: {start_month: 9, end_month: 10}
    rainy_season: {start_month: 11, end_month: 8}
    latitude: 9.65
    longitude: -82.75
    timezone: America/Costa_Rica
`

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNewEngineMergesRegionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(caribbeanRegion), 0o600))

	engine, err := NewEngine(config.SeasonConfig{DefaultRegion: "guanacaste", RegionsFile: path}, logging.NewDiscardLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"caribe", "central-valley", "guanacaste"}, engine.AvailableRegions())
	assert.Equal(t, season.Dry, engine.Classify(time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC), "caribe"))
}

func TestNewEngineErrors(t *testing.T) {
	logger := logging.NewDiscardLogger()

	_, err := NewEngine(config.SeasonConfig{DefaultRegion: "guanacaste", RegionsFile: filepath.Join(t.TempDir(), "missing.yaml")}, logger)
	assert.Error(t, err)

	_, err = NewEngine(config.SeasonConfig{DefaultRegion: "atlantis"}, logger)
	var cfgErr *season.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewWithMemoryDriver(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Database.Driver = config.DriverMemory
	collector := metrics.NewCollector("test", prometheus.NewRegistry())

	a, err := New(context.Background(), cfg, logging.NewDiscardLogger(), collector)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Species.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Positive(t, result.Loaded)
	assert.NoError(t, a.Nurseries.HealthCheck(context.Background()))
	assert.Equal(t, "guanacaste", a.Engine.DefaultRegion())
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Logging.Level = "loud"
	assert.NotNil(t, NewLogger(cfg, "test"))
}
