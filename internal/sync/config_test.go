package sync_test

import (
	"testing"
	"time"

	"github.com/lowfodlabs/fodsync/internal/sync"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &sync.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Enabled {
		t.Error("Enabled = true, want opt-in default of false")
	}
	if cfg.SubmitIntervalDuration() != 5*time.Minute {
		t.Errorf("SubmitInterval = %q, want 5m", cfg.SubmitInterval)
	}
	if cfg.PollIntervalDuration() != 2*time.Minute {
		t.Errorf("PollInterval = %q, want 2m", cfg.PollInterval)
	}
	if cfg.GraceDelayDuration() != 5*time.Second {
		t.Errorf("GraceDelay = %q, want 5s", cfg.GraceDelay)
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("TEST_SYNC_ENABLED", "true")
	t.Setenv("TEST_SYNC_SUBMIT_INTERVAL", "30s")

	cfg := &sync.Config{}
	env := &sync.Env{
		Enabled:        "TEST_SYNC_ENABLED",
		SubmitInterval: "TEST_SYNC_SUBMIT_INTERVAL",
	}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled = false, want env override applied")
	}
	if cfg.SubmitIntervalDuration() != 30*time.Second {
		t.Errorf("SubmitInterval = %q, want 30s", cfg.SubmitInterval)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sync.Config)
	}{
		{"bad submit interval", func(c *sync.Config) { c.SubmitInterval = "often" }},
		{"zero poll interval", func(c *sync.Config) { c.PollInterval = "0s" }},
		{"negative submit interval", func(c *sync.Config) { c.SubmitInterval = "-1m" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &sync.Config{}
			if err := cfg.Finalize(nil); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Finalize(nil); err == nil {
				t.Error("Finalize() expected validation error")
			}
		})
	}
}

func TestConfigGraceDelayMayBeZero(t *testing.T) {
	cfg := &sync.Config{GraceDelay: "0s"}
	if err := cfg.Finalize(nil); err != nil {
		t.Errorf("Finalize() error = %v, want zero grace delay accepted", err)
	}
}
