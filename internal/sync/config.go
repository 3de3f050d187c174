package sync

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds scheduling parameters for the sync engine. Sync is opt-in:
// when Enabled is false the orchestrator never starts its timer loops, and
// manual triggers are no-ops.
type Config struct {
	Enabled        bool   `toml:"enabled"`
	SubmitInterval string `toml:"submit_interval"`
	PollInterval   string `toml:"poll_interval"`
	GraceDelay     string `toml:"grace_delay"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled        string
	SubmitInterval string
	PollInterval   string
	GraceDelay     string
}

// SubmitIntervalDuration returns SubmitInterval as a time.Duration.
func (c *Config) SubmitIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SubmitInterval)
	return d
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// GraceDelayDuration returns GraceDelay as a time.Duration.
func (c *Config) GraceDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.GraceDelay)
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

// Merge overwrites fields from overlay. The boolean always applies; string
// fields only apply when non-empty.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled

	if overlay.SubmitInterval != "" {
		c.SubmitInterval = overlay.SubmitInterval
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.GraceDelay != "" {
		c.GraceDelay = overlay.GraceDelay
	}
}

func (c *Config) loadDefaults() {
	if c.SubmitInterval == "" {
		c.SubmitInterval = "5m"
	}
	if c.PollInterval == "" {
		c.PollInterval = "2m"
	}
	if c.GraceDelay == "" {
		c.GraceDelay = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.SubmitInterval != "" {
		if v := os.Getenv(env.SubmitInterval); v != "" {
			c.SubmitInterval = v
		}
	}
	if env.PollInterval != "" {
		if v := os.Getenv(env.PollInterval); v != "" {
			c.PollInterval = v
		}
	}
	if env.GraceDelay != "" {
		if v := os.Getenv(env.GraceDelay); v != "" {
			c.GraceDelay = v
		}
	}
}

func (c *Config) validate() error {
	for name, v := range map[string]string{
		"submit_interval": c.SubmitInterval,
		"poll_interval":   c.PollInterval,
		"grace_delay":     c.GraceDelay,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if name != "grace_delay" && d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
