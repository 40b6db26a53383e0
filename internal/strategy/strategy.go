package strategy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/beliefs"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/foraging"
	"github.com/talgya/nestshare/internal/world"
)

// ErrKindMismatch is returned when a strategy is invoked for a bird of the
// wrong kind.
var ErrKindMismatch = errors.New("strategy: bird kind does not match strategy")

// Params holds the decision-layer constants shared by both strategies.
type Params struct {
	Steps          int     // allocation step count
	MarginalDelta  float64 // forward-difference step for marginal utility
	MinSearchShare float64 // floor on the daily search share
}

// Decision is one bird's daily effort split.
type Decision struct {
	SearchShare   float64
	RaisingShares map[agents.NestID]float64
}

// Strategy is a kind-specific decision maker. The daily engine drives it in
// three phases: Prepare may mutate shared state (nest creation), Allocate
// is a pure computation against the day's snapshot, and Observe submits
// peer observations and updates the bird's own beliefs.
type Strategy interface {
	Kind() agents.Kind
	Prepare(st *colony.State, bird *agents.Bird) (nestCreated bool)
	Allocate(st *colony.State, bird *agents.Bird, nestCreated bool) (Decision, error)
	Observe(st *colony.State, bird *agents.Bird)
}

// nestPosition adapts the registry to the allocator's position lookup.
func nestPosition(st *colony.State) func(agents.NestID) world.Cell {
	return func(id agents.NestID) world.Cell {
		if nest, ok := st.Nest(id); ok {
			return nest.Position
		}
		return world.Cell{}
	}
}

// sampleObservedShare draws a stand-in for a peer's search share. Actual
// share history is not tracked, so the observation is uniform over the
// feasible range [minShare, 1).
func sampleObservedShare(st *colony.State, minShare float64) float64 {
	return minShare + st.RNG().Float64()*(1-minShare)
}

// FemaleStrategy allocates a female's effort across the nests she owns.
type FemaleStrategy struct {
	beliefs *beliefs.System
	model   *foraging.Model
	params  Params
}

// NewFemaleStrategy creates a female decision maker.
func NewFemaleStrategy(b *beliefs.System, m *foraging.Model, p Params) *FemaleStrategy {
	return &FemaleStrategy{beliefs: b, model: m, params: p}
}

// Kind returns KindFemale.
func (f *FemaleStrategy) Kind() agents.Kind { return agents.KindFemale }

// Prepare creates a nest at the female's position when she owns none, so
// allocation always has at least one candidate. Returns true if a nest was
// created, which forces her search share to the minimum for the day.
func (f *FemaleStrategy) Prepare(st *colony.State, bird *agents.Bird) bool {
	if bird.Kind != agents.KindFemale {
		return false
	}
	if len(bird.OwnedNests()) > 0 {
		return false
	}
	st.CreateNest(bird.ID, bird.Position)
	return true
}

// Allocate splits the female's unit budget between searching and her owned
// nests, using her raising beliefs as the counterfactual baseline.
func (f *FemaleStrategy) Allocate(st *colony.State, bird *agents.Bird, nestCreated bool) (Decision, error) {
	if bird.Kind != agents.KindFemale {
		return Decision{}, fmt.Errorf("%w: bird %d is %s, want female", ErrKindMismatch, bird.ID, bird.Kind)
	}

	owned := bird.OwnedNests()
	if len(owned) == 0 {
		return Decision{}, fmt.Errorf("strategy: female %d has no nests after prepare", bird.ID)
	}

	var searchShare float64
	if nestCreated {
		searchShare = f.params.MinSearchShare
	} else {
		searchShare = max(f.beliefs.SearchBelief(bird.ID), f.params.MinSearchShare)
	}

	raising, err := Allocate(
		owned,
		1-searchShare,
		f.params.Steps,
		f.params.MarginalDelta,
		nestPosition(st),
		func(id agents.NestID) float64 { return f.beliefs.RaisingBelief(bird.ID, id) },
		func(pos world.Cell, my, others float64) float64 {
			return f.model.CounterfactualFemaleFitness(st.Field(), pos, my, others)
		},
	)
	if err != nil {
		return Decision{}, err
	}

	return Decision{SearchShare: searchShare, RaisingShares: raising}, nil
}

// Observe submits observations of every other female's search share and
// fitness, then updates the female's own beliefs. Fitness is read from the
// peers' live nests.
func (f *FemaleStrategy) Observe(st *colony.State, bird *agents.Bird) {
	for _, peer := range st.BirdsOfKind(agents.KindFemale) {
		if peer.ID == bird.ID {
			continue
		}
		observedShare := sampleObservedShare(st, f.params.MinSearchShare)

		fitness := 0.0
		for _, nestID := range peer.OwnedNests() {
			if nest, ok := st.Nest(nestID); ok {
				fitness += f.model.FemaleFitness(st.Field(), nest)
			}
		}
		f.beliefs.SubmitSearchObservation(bird.ID, peer.ID, observedShare, fitness)
	}

	f.beliefs.UpdateSearchBeliefs(bird.ID)
	f.beliefs.UpdateRaisingBeliefs(bird.ID)
}

// MaleStrategy allocates a male's effort across candidate nests. A male
// considers every currently existing nest plus any nest already assigned to
// him; candidate discovery is not gated on search history.
type MaleStrategy struct {
	beliefs *beliefs.System
	model   *foraging.Model
	params  Params
}

// NewMaleStrategy creates a male decision maker.
func NewMaleStrategy(b *beliefs.System, m *foraging.Model, p Params) *MaleStrategy {
	return &MaleStrategy{beliefs: b, model: m, params: p}
}

// Kind returns KindMale.
func (m *MaleStrategy) Kind() agents.Kind { return agents.KindMale }

// Prepare is a no-op for males.
func (m *MaleStrategy) Prepare(st *colony.State, bird *agents.Bird) bool {
	return false
}

// Allocate splits the male's unit budget between searching and candidate
// nests, with his paternity-weighted counterfactual as the objective. With
// no candidate nests the whole budget goes to searching.
func (m *MaleStrategy) Allocate(st *colony.State, bird *agents.Bird, nestCreated bool) (Decision, error) {
	if bird.Kind != agents.KindMale {
		return Decision{}, fmt.Errorf("%w: bird %d is %s, want male", ErrKindMismatch, bird.ID, bird.Kind)
	}

	candidates := m.candidateNests(st, bird)
	if len(candidates) == 0 {
		return Decision{SearchShare: 1, RaisingShares: map[agents.NestID]float64{}}, nil
	}

	searchShare := max(m.beliefs.SearchBelief(bird.ID), m.params.MinSearchShare)

	raising, err := Allocate(
		candidates,
		1-searchShare,
		m.params.Steps,
		m.params.MarginalDelta,
		nestPosition(st),
		func(id agents.NestID) float64 { return m.beliefs.RaisingBelief(bird.ID, id) },
		func(pos world.Cell, my, others float64) float64 {
			return m.model.CounterfactualMaleFitness(st.Field(), pos, my, others)
		},
	)
	if err != nil {
		return Decision{}, err
	}

	return Decision{SearchShare: searchShare, RaisingShares: raising}, nil
}

// candidateNests is the union of all existing nests and the male's assigned
// nests, in ascending ID order.
func (m *MaleStrategy) candidateNests(st *colony.State, bird *agents.Bird) []agents.NestID {
	all := st.NestIDs()
	seen := make(map[agents.NestID]struct{}, len(all))
	for _, id := range all {
		seen[id] = struct{}{}
	}
	for _, id := range bird.AssignedNests() {
		if _, ok := seen[id]; !ok {
			all = append(all, id)
		}
	}
	slices.Sort(all)
	return all
}

// Observe submits observations of every other male's search share and
// fitness, then updates the male's own beliefs.
func (m *MaleStrategy) Observe(st *colony.State, bird *agents.Bird) {
	for _, peer := range st.BirdsOfKind(agents.KindMale) {
		if peer.ID == bird.ID {
			continue
		}
		observedShare := sampleObservedShare(st, m.params.MinSearchShare)

		fitness := 0.0
		for _, nestID := range peer.AssignedNests() {
			if nest, ok := st.Nest(nestID); ok {
				fitness += m.model.MaleFitness(st.Field(), nest, peer.ID)
			}
		}
		m.beliefs.SubmitSearchObservation(bird.ID, peer.ID, observedShare, fitness)
	}

	m.beliefs.UpdateSearchBeliefs(bird.ID)
	m.beliefs.UpdateRaisingBeliefs(bird.ID)
}
