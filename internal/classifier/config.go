package classifier

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds connection and retry parameters for the classification service.
// An empty Endpoint leaves the client unconfigured; every operation then
// becomes a no-op from the orchestrator's point of view.
type Config struct {
	Endpoint          string  `toml:"endpoint"`
	RequestTimeout    string  `toml:"request_timeout"`
	SubmitBatchSize   int     `toml:"submit_batch_size"`
	PollBatchSize     int     `toml:"poll_batch_size"`
	MaxAttempts       int     `toml:"max_attempts"`
	BaseDelay         string  `toml:"base_delay"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	HealthTimeout     string  `toml:"health_timeout"`
	HealthyTTL        string  `toml:"healthy_ttl"`
	UnhealthyTTL      string  `toml:"unhealthy_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint          string
	RequestTimeout    string
	SubmitBatchSize   string
	PollBatchSize     string
	MaxAttempts       string
	BaseDelay         string
	BackoffMultiplier string
	HealthTimeout     string
	HealthyTTL        string
	UnhealthyTTL      string
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *Config) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// HealthTimeoutDuration returns HealthTimeout as a time.Duration.
func (c *Config) HealthTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.HealthTimeout)
	return d
}

// HealthyTTLDuration returns HealthyTTL as a time.Duration.
func (c *Config) HealthyTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.HealthyTTL)
	return d
}

// UnhealthyTTLDuration returns UnhealthyTTL as a time.Duration.
func (c *Config) UnhealthyTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.UnhealthyTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.SubmitBatchSize != 0 {
		c.SubmitBatchSize = overlay.SubmitBatchSize
	}
	if overlay.PollBatchSize != 0 {
		c.PollBatchSize = overlay.PollBatchSize
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.BackoffMultiplier != 0 {
		c.BackoffMultiplier = overlay.BackoffMultiplier
	}
	if overlay.HealthTimeout != "" {
		c.HealthTimeout = overlay.HealthTimeout
	}
	if overlay.HealthyTTL != "" {
		c.HealthyTTL = overlay.HealthyTTL
	}
	if overlay.UnhealthyTTL != "" {
		c.UnhealthyTTL = overlay.UnhealthyTTL
	}
}

func (c *Config) loadDefaults() {
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
	if c.SubmitBatchSize == 0 {
		c.SubmitBatchSize = 100
	}
	if c.PollBatchSize == 0 {
		c.PollBatchSize = 500
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == "" {
		c.BaseDelay = "1s"
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = 2
	}
	if c.HealthTimeout == "" {
		c.HealthTimeout = "5s"
	}
	if c.HealthyTTL == "" {
		c.HealthyTTL = "5m"
	}
	if c.UnhealthyTTL == "" {
		c.UnhealthyTTL = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.RequestTimeout != "" {
		if v := os.Getenv(env.RequestTimeout); v != "" {
			c.RequestTimeout = v
		}
	}
	if env.SubmitBatchSize != "" {
		if v := os.Getenv(env.SubmitBatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.SubmitBatchSize = n
			}
		}
	}
	if env.PollBatchSize != "" {
		if v := os.Getenv(env.PollBatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.PollBatchSize = n
			}
		}
	}
	if env.MaxAttempts != "" {
		if v := os.Getenv(env.MaxAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxAttempts = n
			}
		}
	}
	if env.BaseDelay != "" {
		if v := os.Getenv(env.BaseDelay); v != "" {
			c.BaseDelay = v
		}
	}
	if env.BackoffMultiplier != "" {
		if v := os.Getenv(env.BackoffMultiplier); v != "" {
			if m, err := strconv.ParseFloat(v, 64); err == nil {
				c.BackoffMultiplier = m
			}
		}
	}
	if env.HealthTimeout != "" {
		if v := os.Getenv(env.HealthTimeout); v != "" {
			c.HealthTimeout = v
		}
	}
	if env.HealthyTTL != "" {
		if v := os.Getenv(env.HealthyTTL); v != "" {
			c.HealthyTTL = v
		}
	}
	if env.UnhealthyTTL != "" {
		if v := os.Getenv(env.UnhealthyTTL); v != "" {
			c.UnhealthyTTL = v
		}
	}
}

func (c *Config) validate() error {
	if c.Endpoint != "" && !strings.HasPrefix(c.Endpoint, "http") {
		return fmt.Errorf("invalid endpoint: %s", c.Endpoint)
	}
	if c.SubmitBatchSize < 1 {
		return fmt.Errorf("submit_batch_size must be positive")
	}
	if c.PollBatchSize < 1 {
		return fmt.Errorf("poll_batch_size must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be at least 1")
	}
	for name, v := range map[string]string{
		"request_timeout": c.RequestTimeout,
		"base_delay":      c.BaseDelay,
		"health_timeout":  c.HealthTimeout,
		"healthy_ttl":     c.HealthyTTL,
		"unhealthy_ttl":   c.UnhealthyTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
