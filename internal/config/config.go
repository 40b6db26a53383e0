// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Seed       int64            `yaml:"seed"`
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Search     SearchConfig     `yaml:"search"`
	Foraging   ForagingConfig   `yaml:"foraging"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Allocation AllocationConfig `yaml:"allocation"`
	Beliefs    BeliefsConfig    `yaml:"beliefs"`
	Run        RunConfig        `yaml:"run"`
}

// WorldConfig holds resource field generation parameters.
type WorldConfig struct {
	GridSize      int     `yaml:"grid_size"`
	ResourceLevel float64 `yaml:"resource_level"` // 0–1, higher means more resource
	Aggregation   float64 `yaml:"aggregation"`    // 0–1, higher means more spatial clumping
	Generator     string  `yaml:"generator"`      // "negbinom" or "simplex"
}

// PopulationConfig holds initial population and nest placement parameters.
type PopulationConfig struct {
	Females          int `yaml:"females"`
	Males            int `yaml:"males"`
	NestsPerFemale   int `yaml:"nests_per_female"`
	NestSearchRadius int `yaml:"nest_search_radius"` // radius scanned for nest sites at bootstrap
	NestsPerMale     int `yaml:"nests_per_male"`     // initial random nest assignments per male
}

// SearchConfig holds nest discovery parameters.
type SearchConfig struct {
	Cost     float64 `yaml:"cost"`      // scales discovery probability with distance
	MinShare float64 `yaml:"min_share"` // floor on any bird's daily search share
}

// ForagingConfig holds resource extraction parameters.
type ForagingConfig struct {
	ExtractionRate  float64 `yaml:"extraction_rate"`
	HomeRangeRadius float64 `yaml:"home_range_radius"` // base exploration radius at full investment
}

// FitnessConfig holds the logistic resources→fledglings conversion constants.
type FitnessConfig struct {
	LogisticK float64 `yaml:"logistic_k"` // ceiling on viable fledglings
	LogisticA float64 `yaml:"logistic_a"` // initial-level shift
	LogisticR float64 `yaml:"logistic_r"` // conversion efficiency
}

// AllocationConfig holds the greedy allocation optimizer resolution.
type AllocationConfig struct {
	Steps         int     `yaml:"steps"`
	MarginalDelta float64 `yaml:"marginal_delta"`
}

// BeliefsConfig holds belief prior shape constants and initial means.
type BeliefsConfig struct {
	SearchPriorAlpha    float64 `yaml:"search_prior_alpha"`
	SearchPriorBeta     float64 `yaml:"search_prior_beta"`
	SearchPriorVariance float64 `yaml:"search_prior_variance"`
	SearchInitialMean   float64 `yaml:"search_initial_mean"`
	RaisingInitialMean  float64 `yaml:"raising_initial_mean"`
}

// RunConfig holds run-level settings.
type RunConfig struct {
	Days              int    `yaml:"days"`
	ParallelDecisions bool   `yaml:"parallel_decisions"` // chunk decision collection across workers
	OutputDir         string `yaml:"output_dir"`         // empty disables CSV output
	DBPath            string `yaml:"db_path"`            // empty disables SQLite persistence
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct: only overwrites fields present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks parameter ranges that the simulation depends on.
func (c *Config) Validate() error {
	if c.World.GridSize <= 0 {
		return fmt.Errorf("config: grid_size must be positive, got %d", c.World.GridSize)
	}
	if c.World.Generator != "negbinom" && c.World.Generator != "simplex" {
		return fmt.Errorf("config: generator must be negbinom or simplex, got %q", c.World.Generator)
	}
	if c.Search.MinShare < 0 || c.Search.MinShare > 1 {
		return fmt.Errorf("config: search min_share must be in [0,1], got %g", c.Search.MinShare)
	}
	if c.Foraging.HomeRangeRadius <= 0 {
		return fmt.Errorf("config: home_range_radius must be positive, got %g", c.Foraging.HomeRangeRadius)
	}
	if c.Allocation.Steps <= 0 {
		return fmt.Errorf("config: allocation steps must be positive, got %d", c.Allocation.Steps)
	}
	if c.Allocation.MarginalDelta <= 0 {
		return fmt.Errorf("config: marginal_delta must be positive, got %g", c.Allocation.MarginalDelta)
	}
	if c.Beliefs.SearchInitialMean <= 0 || c.Beliefs.SearchInitialMean >= 1 {
		return fmt.Errorf("config: search_initial_mean must be in (0,1), got %g", c.Beliefs.SearchInitialMean)
	}
	if c.Beliefs.SearchPriorVariance <= 0 {
		return fmt.Errorf("config: search_prior_variance must be positive, got %g", c.Beliefs.SearchPriorVariance)
	}
	if c.Run.Days < 0 {
		return fmt.Errorf("config: days must be non-negative, got %d", c.Run.Days)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file, for run provenance.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
