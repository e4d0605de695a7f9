package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "guanacaste", cfg.Season.DefaultRegion)
	assert.Equal(t, time.Hour, cfg.Season.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Season.RefreshInterval)
	assert.True(t, cfg.Species.LoadOnStartup)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  port: 9090
database:
  driver: memory
season:
  default_region: Central-Valley
  cache_ttl: 30m
`), 0o600))

	t.Setenv("NURSERY_LOGGING_LEVEL", "debug")
	t.Setenv("NURSERY_SEASON_LANGUAGE", "en")

	v := newViper()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "central-valley", cfg.Season.DefaultRegion)
	assert.Equal(t, 30*time.Minute, cfg.Season.CacheTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "en", cfg.Season.Language)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nursery.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 7070\n"), 0o600))
	t.Setenv("NURSERY_CONFIG", file)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }},
		{name: "postgres host", mutate: func(c *Config) { c.Database.Host = "" }},
		{name: "idle above open", mutate: func(c *Config) { c.Database.MaxIdleConns = 50 }},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "default region", mutate: func(c *Config) { c.Season.DefaultRegion = "" }},
		{name: "negative ttl", mutate: func(c *Config) { c.Season.CacheTTL = -time.Second }},
		{name: "refresh too fast", mutate: func(c *Config) { c.Season.RefreshInterval = time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromViper(newViper())
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateMemoryDriverIgnoresPostgresFields(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	cfg.Database.Driver = DriverMemory
	cfg.Database.Host = ""
	assert.NoError(t, cfg.Validate())
}
