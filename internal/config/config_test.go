package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.World.GridSize != 500 {
		t.Errorf("grid size = %d, want 500", cfg.World.GridSize)
	}
	if cfg.Population.Females != 30 || cfg.Population.Males != 30 {
		t.Errorf("population = %d/%d, want 30/30", cfg.Population.Females, cfg.Population.Males)
	}
	if cfg.Search.MinShare != 0.05 {
		t.Errorf("min search share = %v, want 0.05", cfg.Search.MinShare)
	}
	if cfg.World.Generator != "negbinom" {
		t.Errorf("generator = %q, want negbinom", cfg.World.Generator)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("world:\n  grid_size: 64\nrun:\n  days: 5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.World.GridSize != 64 {
		t.Errorf("grid size = %d, want overridden 64", cfg.World.GridSize)
	}
	if cfg.Run.Days != 5 {
		t.Errorf("days = %d, want overridden 5", cfg.Run.Days)
	}
	// Untouched fields keep their defaults.
	if cfg.Search.Cost != 0.3 {
		t.Errorf("search cost = %v, want default 0.3", cfg.Search.Cost)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file succeeded")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero grid", func(c *Config) { c.World.GridSize = 0 }},
		{"unknown generator", func(c *Config) { c.World.Generator = "perlin" }},
		{"min share above one", func(c *Config) { c.Search.MinShare = 1.5 }},
		{"zero home range", func(c *Config) { c.Foraging.HomeRangeRadius = 0 }},
		{"zero allocation steps", func(c *Config) { c.Allocation.Steps = 0 }},
		{"zero marginal delta", func(c *Config) { c.Allocation.MarginalDelta = 0 }},
		{"search mean at bound", func(c *Config) { c.Beliefs.SearchInitialMean = 1 }},
		{"negative days", func(c *Config) { c.Run.Days = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted a bad config")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Seed = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Seed != 7 {
		t.Errorf("seed after round trip = %d, want 7", back.Seed)
	}
}
