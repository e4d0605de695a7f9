// Package config loads the service configuration from config.yaml and
// NURSERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. NURSERY_DATABASE_HOST.
const EnvPrefix = "NURSERY"

// Config is the root configuration of every nursery-platform binary
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Season   SeasonConfig   `mapstructure:"season"`
	Species  SpeciesConfig  `mapstructure:"species"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// SeasonConfig configures the season engine and its service wrapper
type SeasonConfig struct {
	DefaultRegion   string        `mapstructure:"default_region"`
	RegionsFile     string        `mapstructure:"regions_file"` // optional YAML overlay on the built-in regions
	Language        string        `mapstructure:"language"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// SpeciesConfig configures the reference species library
type SpeciesConfig struct {
	SeedFile      string `mapstructure:"seed_file"` // overrides the embedded library when set
	LoadOnStartup bool   `mapstructure:"load_on_startup"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// SetDefaults registers the default value of every key. Environment overrides
// only apply to keys viper knows about, so every key is listed here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "nursery")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "nursery_platform")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", time.Minute)

	v.SetDefault("logging.level", "info")

	v.SetDefault("season.default_region", "guanacaste")
	v.SetDefault("season.regions_file", "")
	v.SetDefault("season.language", "es")
	v.SetDefault("season.cache_ttl", time.Hour)
	v.SetDefault("season.refresh_interval", 24*time.Hour)

	v.SetDefault("species.seed_file", "")
	v.SetDefault("species.load_on_startup", true)
}

// ConfigPaths lists the directories searched for config.yaml, in order.
var ConfigPaths = []string{".", "/etc/nursery-platform"}

// LoadConfig reads config.yaml (if any) and environment overrides. The
// NURSERY_CONFIG variable names an explicit file and skips the search.
func LoadConfig() (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if file := os.Getenv(EnvPrefix + "_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range ConfigPaths {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper binds environment overrides on v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Season.DefaultRegion = strings.ToLower(strings.TrimSpace(cfg.Season.DefaultRegion))
	return &cfg, nil
}

// Validate checks the configuration for values no binary can run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return errors.New("database.host is required for the postgres driver")
		}
		if c.Database.Database == "" {
			return errors.New("database.database is required for the postgres driver")
		}
		if c.Database.MaxOpenConns > 0 && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("database.max_idle_conns %d exceeds max_open_conns %d",
				c.Database.MaxIdleConns, c.Database.MaxOpenConns)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q must be %q or %q", c.Database.Driver, DriverPostgres, DriverMemory)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}

	if c.Season.DefaultRegion == "" {
		return errors.New("season.default_region is required")
	}
	if c.Season.CacheTTL < 0 {
		return errors.New("season.cache_ttl must not be negative")
	}
	if c.Season.RefreshInterval < time.Minute {
		return fmt.Errorf("season.refresh_interval %s is shorter than one minute", c.Season.RefreshInterval)
	}

	return nil
}
