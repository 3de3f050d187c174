package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lowfodlabs/fodsync/internal/classifier"
	"github.com/lowfodlabs/fodsync/internal/sync"
	"github.com/lowfodlabs/fodsync/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvFodsyncEnv             = "FODSYNC_ENV"
	EnvFodsyncShutdownTimeout = "FODSYNC_SHUTDOWN_TIMEOUT"
	EnvFodsyncVersion         = "FODSYNC_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "FODSYNC_DB_HOST",
	Port:            "FODSYNC_DB_PORT",
	Name:            "FODSYNC_DB_NAME",
	User:            "FODSYNC_DB_USER",
	Password:        "FODSYNC_DB_PASSWORD",
	SSLMode:         "FODSYNC_DB_SSL_MODE",
	MaxOpenConns:    "FODSYNC_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "FODSYNC_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "FODSYNC_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "FODSYNC_DB_CONN_TIMEOUT",
}

var classifierEnv = &classifier.Env{
	Endpoint:          "FODSYNC_CLASSIFIER_ENDPOINT",
	RequestTimeout:    "FODSYNC_CLASSIFIER_REQUEST_TIMEOUT",
	SubmitBatchSize:   "FODSYNC_CLASSIFIER_SUBMIT_BATCH_SIZE",
	PollBatchSize:     "FODSYNC_CLASSIFIER_POLL_BATCH_SIZE",
	MaxAttempts:       "FODSYNC_CLASSIFIER_MAX_ATTEMPTS",
	BaseDelay:         "FODSYNC_CLASSIFIER_BASE_DELAY",
	BackoffMultiplier: "FODSYNC_CLASSIFIER_BACKOFF_MULTIPLIER",
	HealthTimeout:     "FODSYNC_CLASSIFIER_HEALTH_TIMEOUT",
	HealthyTTL:        "FODSYNC_CLASSIFIER_HEALTHY_TTL",
	UnhealthyTTL:      "FODSYNC_CLASSIFIER_UNHEALTHY_TTL",
}

var syncEnv = &sync.Env{
	Enabled:        "FODSYNC_SYNC_ENABLED",
	SubmitInterval: "FODSYNC_SYNC_SUBMIT_INTERVAL",
	PollInterval:   "FODSYNC_SYNC_POLL_INTERVAL",
	GraceDelay:     "FODSYNC_SYNC_GRACE_DELAY",
}

// Config is the root configuration for the fodsync service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Classifier      classifier.Config `toml:"classifier"`
	Sync            sync.Config       `toml:"sync"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the FODSYNC_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvFodsyncEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Classifier.Merge(&overlay.Classifier)
	c.Sync.Merge(&overlay.Sync)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Classifier.Finalize(classifierEnv); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Sync.Finalize(syncEnv); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvFodsyncShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvFodsyncVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvFodsyncEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
