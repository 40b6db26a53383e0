// Command nestsim runs the avian mating-system colony simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/config"
	"github.com/talgya/nestshare/internal/engine"
	"github.com/talgya/nestshare/internal/persistence"
	"github.com/talgya/nestshare/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (embedded defaults when empty)")
		seed       = flag.Int64("seed", 0, "override the configured random seed")
		days       = flag.Int("days", 0, "override the configured day count")
		outputDir  = flag.String("output", "", "override the configured CSV output directory")
		dbPath     = flag.String("db", "", "override the configured SQLite path")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *days != 0 {
		cfg.Run.Days = *days
	}
	if *outputDir != "" {
		cfg.Run.OutputDir = *outputDir
	}
	if *dbPath != "" {
		cfg.Run.DBPath = *dbPath
	}

	slog.Info("nestshare colony simulation",
		"seed", cfg.Seed,
		"grid", cfg.World.GridSize,
		"females", cfg.Population.Females,
		"males", cfg.Population.Males,
		"days", cfg.Run.Days,
	)

	out, err := telemetry.NewOutputManager(cfg.Run.OutputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write run config", "error", err)
		os.Exit(1)
	}
	if dir := out.Dir(); dir != "" {
		slog.Info("CSV output enabled", "dir", dir)
	}

	var db *persistence.DB
	if cfg.Run.DBPath != "" {
		db, err = persistence.Open(cfg.Run.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Run.DBPath)
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))

	sim, err := engine.NewSimulation(cfg, rng, logger)
	if err != nil {
		slog.Error("failed to initialize simulation", "error", err)
		os.Exit(1)
	}
	slog.Info("colony bootstrapped",
		"birds", len(sim.State().Birds()),
		"nests", sim.State().NestCount(),
	)

	hook := func(day int, st *colony.State, res engine.DayResult) error {
		stats := telemetry.Collect(st, sim.Model(), res)
		slog.Info("mating system",
			"day", day,
			"monogamous", stats.MonogamousNests,
			"polygynandrous", stats.PolygynandrousNests,
			"unattended", stats.UnattendedNests,
			"unpaired_males", stats.UnpairedMales,
			"mean_search_share", stats.MeanSearchShare,
		)
		if err := out.WriteDay(stats); err != nil {
			return err
		}
		if err := out.WriteNests(telemetry.CollectNests(day, st, sim.Model())); err != nil {
			return err
		}
		if db != nil {
			if err := db.AppendNestDay(day, st.Nests()); err != nil {
				return err
			}
		}
		return nil
	}

	result, err := sim.Run(cfg.Run.Days, hook)
	if err != nil {
		slog.Error("simulation aborted", "error", err, "completed_days", result.Days)
		os.Exit(1)
	}

	if db != nil {
		if err := db.SaveColony(sim.State(), result.Days); err != nil {
			slog.Error("failed to save final colony state", "error", err)
			os.Exit(1)
		}
		if err := db.SaveMeta("seed", fmt.Sprintf("%d", cfg.Seed)); err != nil {
			slog.Error("failed to save run metadata", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("run complete",
		"days", result.Days,
		"total_extracted", result.TotalExtracted,
		"total_discoveries", result.TotalDiscoveries,
	)
}
