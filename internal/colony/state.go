// Package colony owns the shared simulation state: the resource field,
// every bird, every nest, and the run's single random source. It is passed
// explicitly into every decision and execution call.
package colony

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/world"
)

// State is the entity registry and world state for one simulation run.
// Created once at initialization and mutated throughout; nests and birds
// are added but never removed.
type State struct {
	field      *world.Field
	rng        *rand.Rand
	searchCost float64

	birds      map[agents.BirdID]*agents.Bird
	nests      map[agents.NestID]*agents.Nest
	nextNestID agents.NestID
}

// NewState creates a registry around an initial field and the run's seeded
// random source. searchCost scales nest discovery probability.
func NewState(field *world.Field, rng *rand.Rand, searchCost float64) *State {
	return &State{
		field:      field,
		rng:        rng,
		searchCost: searchCost,
		birds:      make(map[agents.BirdID]*agents.Bird),
		nests:      make(map[agents.NestID]*agents.Nest),
	}
}

// Field returns the current resource field.
func (s *State) Field() *world.Field {
	return s.field
}

// ReplaceField swaps in a freshly generated field.
func (s *State) ReplaceField(f *world.Field) {
	s.field = f
}

// RNG returns the run's shared random source. All stochastic draws go
// through it so a fixed seed replays deterministically.
func (s *State) RNG() *rand.Rand {
	return s.rng
}

// AddBird registers a bird.
func (s *State) AddBird(b *agents.Bird) {
	s.birds[b.ID] = b
}

// Bird looks up a bird by ID.
func (s *State) Bird(id agents.BirdID) (*agents.Bird, bool) {
	b, ok := s.birds[id]
	return b, ok
}

// Birds returns all birds sorted by ID, so iteration order (and therefore
// rng consumption) is stable.
func (s *State) Birds() []*agents.Bird {
	out := make([]*agents.Bird, 0, len(s.birds))
	for _, b := range s.birds {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b *agents.Bird) int {
		return int(a.ID) - int(b.ID)
	})
	return out
}

// BirdsOfKind returns all birds of one kind sorted by ID.
func (s *State) BirdsOfKind(kind agents.Kind) []*agents.Bird {
	out := make([]*agents.Bird, 0, len(s.birds))
	for _, b := range s.birds {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b *agents.Bird) int {
		return int(a.ID) - int(b.ID)
	})
	return out
}

// Nest looks up a nest by ID.
func (s *State) Nest(id agents.NestID) (*agents.Nest, bool) {
	n, ok := s.nests[id]
	return n, ok
}

// Nests returns all nests sorted by ID.
func (s *State) Nests() []*agents.Nest {
	out := make([]*agents.Nest, 0, len(s.nests))
	for _, n := range s.nests {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *agents.Nest) int {
		return int(a.ID) - int(b.ID)
	})
	return out
}

// NestIDs returns all nest IDs in ascending order.
func (s *State) NestIDs() []agents.NestID {
	ids := make([]agents.NestID, 0, len(s.nests))
	for id := range s.nests {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NestCount returns the number of nests.
func (s *State) NestCount() int {
	return len(s.nests)
}

// CreateNest creates a nest owned by the given female at pos, links it to
// her owned set, and returns its ID. Nest IDs are allocated from a
// monotonically increasing counter.
func (s *State) CreateNest(owner agents.BirdID, pos world.Cell) agents.NestID {
	id := s.nextNestID
	s.nextNestID++

	ownerID := owner
	nest := agents.NewNest(id, &ownerID, pos)
	s.nests[id] = nest

	if b, ok := s.birds[owner]; ok {
		b.OwnNest(id)
	}
	return nest.ID
}

// NestLocations returns every nest position, ordered by nest ID.
func (s *State) NestLocations() []world.Cell {
	out := make([]world.Cell, 0, len(s.nests))
	for _, n := range s.Nests() {
		out = append(out, n.Position)
	}
	return out
}

// DensityAt returns the live field density at a cell.
func (s *State) DensityAt(c world.Cell) float64 {
	return s.field.Density(c)
}

// Distance returns the Euclidean distance between two cells.
func (s *State) Distance(a, b world.Cell) float64 {
	return world.Distance(a, b)
}

// NestComposition is the full nest membership revealed by a successful
// search.
type NestComposition struct {
	NestID      agents.NestID
	Owner       *agents.BirdID
	Position    world.Cell
	MaleIDs     []agents.BirdID
	FemaleShare float64
	MaleShares  map[agents.BirdID]float64
}

// QueryNestComposition probabilistically reveals a nest's composition to a
// searching bird. Discovery is automatic at distance zero; otherwise it
// succeeds with probability 1 − e^(−searchCost·searchShare/d). On failure
// nothing is learned.
func (s *State) QueryNestComposition(birdID agents.BirdID, nestID agents.NestID, searchShare float64) (*NestComposition, bool) {
	bird, ok := s.birds[birdID]
	if !ok {
		return nil, false
	}
	nest, ok := s.nests[nestID]
	if !ok {
		return nil, false
	}

	d := world.Distance(bird.Position, nest.Position)
	if d > 0 {
		p := 1 - math.Exp(-s.searchCost*searchShare/d)
		if s.rng.Float64() >= p {
			return nil, false
		}
	}

	return &NestComposition{
		NestID:      nest.ID,
		Owner:       nest.Owner,
		Position:    nest.Position,
		MaleIDs:     nest.MaleIDs(),
		FemaleShare: nest.FemaleShare,
		MaleShares:  nest.MaleShares(),
	}, true
}

// ClearNestCaches resets every nest's per-day resource cache.
func (s *State) ClearNestCaches() {
	for _, n := range s.nests {
		n.ResetResources()
	}
}
