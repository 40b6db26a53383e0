package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/config"
	"github.com/talgya/nestshare/internal/world"
)

// Bootstrap builds the initial colony: a freshly generated field, uniformly
// placed birds, each female's starting nests at the best cells near her, and
// random initial male assignments.
func Bootstrap(cfg *config.Config, gen *world.Generator, rng *rand.Rand) (*colony.State, error) {
	st := colony.NewState(gen.Generate(), rng, cfg.Search.Cost)

	id := agents.BirdID(1)
	females := make([]*agents.Bird, 0, cfg.Population.Females)
	males := make([]*agents.Bird, 0, cfg.Population.Males)

	for i := 0; i < cfg.Population.Females; i++ {
		b := agents.NewFemale(id, randomCell(rng, cfg.World.GridSize))
		st.AddBird(b)
		females = append(females, b)
		id++
	}
	for i := 0; i < cfg.Population.Males; i++ {
		b := agents.NewMale(id, randomCell(rng, cfg.World.GridSize))
		st.AddBird(b)
		males = append(males, b)
		id++
	}

	allocateNests(st, females,
		cfg.Population.NestSearchRadius,
		cfg.Population.NestsPerFemale,
		int(cfg.Foraging.HomeRangeRadius))

	if err := assignMales(st, males, cfg.Population.NestsPerMale, cfg.Search.MinShare); err != nil {
		return nil, err
	}
	return st, nil
}

func randomCell(rng *rand.Rand, size int) world.Cell {
	return world.Cell{X: rng.IntN(size), Y: rng.IntN(size)}
}

// allocateNests gives each female her starting nests at the densest cells
// within searchRadius of her position, and records a square home range of
// homeRadius around each nest.
func allocateNests(st *colony.State, females []*agents.Bird, searchRadius, nestsPerFemale, homeRadius int) {
	for _, female := range females {
		candidates := cellsWithinRadius(st.Field(), female.Position, searchRadius)

		slices.SortStableFunc(candidates, func(a, b world.Cell) int {
			da, db := st.DensityAt(a), st.DensityAt(b)
			switch {
			case da > db:
				return -1
			case da < db:
				return 1
			}
			return 0
		})
		if len(candidates) > nestsPerFemale {
			candidates = candidates[:nestsPerFemale]
		}

		for _, cell := range candidates {
			nestID := st.CreateNest(female.ID, cell)
			if nest, ok := st.Nest(nestID); ok {
				nest.HomeRange = squareHomeRange(st.Field(), cell, homeRadius)
			}
		}
	}
}

// cellsWithinRadius returns the in-bounds cells inside a discrete Euclidean
// circle around center.
func cellsWithinRadius(f *world.Field, center world.Cell, radius int) []world.Cell {
	cells := make([]world.Cell, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			c := world.Cell{X: center.X + dx, Y: center.Y + dy}
			if f.InBounds(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// squareHomeRange returns the in-bounds square of cells within homeRadius of
// center under Chebyshev distance. Home ranges are square where exploration
// areas are circular.
func squareHomeRange(f *world.Field, center world.Cell, radius int) []world.Cell {
	cells := make([]world.Cell, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			c := world.Cell{X: center.X + dx, Y: center.Y + dy}
			if f.InBounds(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// assignMales gives each male a random starting search share and pairs him
// to a random sample of nests, splitting the remaining budget across them in
// random proportions.
func assignMales(st *colony.State, males []*agents.Bird, nestsPerMale int, minShare float64) error {
	nestIDs := st.NestIDs()
	if len(nestIDs) == 0 {
		return nil
	}
	if nestsPerMale > len(nestIDs) {
		nestsPerMale = len(nestIDs)
	}

	rng := st.RNG()
	for _, male := range males {
		searchShare := minShare + rng.Float64()*(0.95-minShare)
		male.SearchShare = searchShare
		budget := 1 - searchShare

		perm := rng.Perm(len(nestIDs))

		weights := make([]float64, nestsPerMale)
		total := 0.0
		for i := range weights {
			weights[i] = rng.Float64()
			total += weights[i]
		}

		for i := 0; i < nestsPerMale; i++ {
			nestID := nestIDs[perm[i]]
			nest, ok := st.Nest(nestID)
			if !ok {
				return fmt.Errorf("engine: bootstrap references unknown nest %d", nestID)
			}
			if err := male.AssignRole(nestID, agents.RoleAlpha); err != nil {
				return fmt.Errorf("engine: bootstrap pairing male %d: %w", male.ID, err)
			}
			nest.AddMale(male.ID)
			if total > 0 {
				nest.SetMaleShare(male.ID, budget*weights[i]/total)
			}
		}
	}
	return nil
}
