// Package config provides configuration management for searchd.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

const (
	// DefaultPort is the default HTTP listen port.
	DefaultPort = 37700

	// DefaultStrategy is the aggregation strategy used when a request
	// names none.
	DefaultStrategy = "borda"

	// DefaultMaxConns is the default SQLite connection pool size.
	DefaultMaxConns = 4

	// DefaultWeightCacheTTLSeconds is how long per-user SQM weight maps
	// stay cached before the store is consulted again.
	DefaultWeightCacheTTLSeconds = 300

	dataDirName    = ".searchd"
	dbFileName     = "search.db"
	configFileName = "config.yaml"
)

// Config holds the runtime configuration for searchd.
type Config struct {
	Port                  int                  `yaml:"port"`
	DBPath                string               `yaml:"db_path"`
	MaxConns              int                  `yaml:"max_conns"`
	DefaultStrategy       string               `yaml:"default_strategy"`
	WeightCacheTTLSeconds int                  `yaml:"weight_cache_ttl_seconds"`
	Weights               models.WeightProfile `yaml:"weights"`
	Debug                 bool                 `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                  DefaultPort,
		DBPath:                DBPath(),
		MaxConns:              DefaultMaxConns,
		DefaultStrategy:       DefaultStrategy,
		WeightCacheTTLSeconds: DefaultWeightCacheTTLSeconds,
		Weights:               models.DefaultWeightProfile(),
	}
}

// DataDir returns the searchd data directory under the user's home.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the default database file path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// ConfigPath returns the configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), configFileName)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// Load reads the configuration file and applies environment overrides.
// A missing or unparseable file yields the defaults; configuration
// problems never stop the daemon from starting.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Warn().Err(err).Str("path", ConfigPath()).Msg("invalid config file, using defaults")
			cfg = Default()
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	normalize(cfg)
	return cfg, nil
}

// applyEnvOverrides layers SEARCHD_* environment variables on top of the
// file configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SEARCHD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("SEARCHD_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SEARCHD_STRATEGY"); v != "" {
		cfg.DefaultStrategy = v
	}
	if v := os.Getenv("SEARCHD_DEBUG"); v == "1" || v == "true" {
		cfg.Debug = true
	}
}

// normalize backfills zero values left by a sparse config file.
func normalize(cfg *Config) {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DBPath()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = DefaultStrategy
	}
	if cfg.WeightCacheTTLSeconds <= 0 {
		cfg.WeightCacheTTLSeconds = DefaultWeightCacheTTLSeconds
	}
	cfg.Weights = cfg.Weights.Clamped()
}

// WeightCacheTTL returns the configured weight cache TTL as a duration.
func (c *Config) WeightCacheTTL() time.Duration {
	return time.Duration(c.WeightCacheTTLSeconds) * time.Second
}
