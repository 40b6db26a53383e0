package engine

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/talgya/nestshare/internal/beliefs"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/config"
	"github.com/talgya/nestshare/internal/foraging"
	"github.com/talgya/nestshare/internal/strategy"
	"github.com/talgya/nestshare/internal/world"
)

// DayHook is called after each completed day, before the field resets, so
// telemetry and persistence can read the day's state.
type DayHook func(day int, st *colony.State, res DayResult) error

// RunResult summarizes a completed run.
type RunResult struct {
	Days             int
	TotalExtracted   float64
	TotalDiscoveries int
}

// Simulation wires configuration into a bootstrapped colony and the engine
// that drives it.
type Simulation struct {
	cfg   *config.Config
	st    *colony.State
	eng   *Engine
	model *foraging.Model
	log   *slog.Logger
}

// NewSimulation bootstraps a full simulation from configuration and a
// seeded random source.
func NewSimulation(cfg *config.Config, rng *rand.Rand, log *slog.Logger) (*Simulation, error) {
	gen := world.NewGenerator(
		world.GeneratorKind(cfg.World.Generator),
		cfg.World.GridSize,
		cfg.World.ResourceLevel,
		cfg.World.Aggregation,
		rng,
	)

	st, err := Bootstrap(cfg, gen, rng)
	if err != nil {
		return nil, fmt.Errorf("engine: bootstrap: %w", err)
	}

	model := foraging.NewModel(foraging.Params{
		BaseRadius:     cfg.Foraging.HomeRangeRadius,
		ExtractionRate: cfg.Foraging.ExtractionRate,
		LogisticK:      cfg.Fitness.LogisticK,
		LogisticA:      cfg.Fitness.LogisticA,
		LogisticR:      cfg.Fitness.LogisticR,
	})

	bel := beliefs.NewSystem(beliefs.Params{
		SearchPriorAlpha:    cfg.Beliefs.SearchPriorAlpha,
		SearchPriorBeta:     cfg.Beliefs.SearchPriorBeta,
		SearchPriorVariance: cfg.Beliefs.SearchPriorVariance,
		SearchInitialMean:   cfg.Beliefs.SearchInitialMean,
		RaisingInitialMean:  cfg.Beliefs.RaisingInitialMean,
	})

	binder := strategy.NewBinder(bel, model, strategy.Params{
		Steps:          cfg.Allocation.Steps,
		MarginalDelta:  cfg.Allocation.MarginalDelta,
		MinSearchShare: cfg.Search.MinShare,
	})

	eng := NewEngine(st, gen, binder, model, cfg.Run.ParallelDecisions, log)

	return &Simulation{cfg: cfg, st: st, eng: eng, model: model, log: log}, nil
}

// State returns the live colony state.
func (s *Simulation) State() *colony.State {
	return s.st
}

// Model returns the foraging model, for fitness reporting.
func (s *Simulation) Model() *foraging.Model {
	return s.model
}

// Run executes the given number of days. The hook, if non-nil, runs after
// each day with the field still reflecting that day; the field and nest
// caches reset afterwards. A failed day or hook aborts the run.
func (s *Simulation) Run(days int, hook DayHook) (RunResult, error) {
	var result RunResult

	for day := 1; day <= days; day++ {
		res, err := s.eng.RunDay(day)
		if err != nil {
			return result, fmt.Errorf("engine: day %d: %w", day, err)
		}
		result.Days = day
		result.TotalExtracted += res.Extracted
		result.TotalDiscoveries += res.Discoveries

		s.log.Info("day complete",
			"day", day,
			"nests", s.st.NestCount(),
			"nests_created", res.NestsCreated,
			"raise_actions", res.RaiseActions,
			"search_attempts", res.SearchAttempts,
			"discoveries", res.Discoveries,
			"extracted", res.Extracted)

		if hook != nil {
			if err := hook(day, s.st, res); err != nil {
				return result, fmt.Errorf("engine: day %d hook: %w", day, err)
			}
		}

		s.eng.ResetDay()
	}
	return result, nil
}
