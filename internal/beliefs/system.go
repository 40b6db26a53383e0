// Package beliefs maintains each bird's posterior beliefs about the rest of
// the population: the typical search-effort share, and the total raising
// investment others commit to each nest. Observations are buffered and
// folded in by fitness-weighted updates; buffers clear after every update,
// the posteriors persist across days.
package beliefs

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/talgya/nestshare/internal/agents"
)

// Kind selects which belief a lookup addresses.
type Kind string

const (
	Search  Kind = "search"
	Raising Kind = "raising"
)

// ErrNestRequired is returned when a raising-belief lookup omits the nest.
var ErrNestRequired = errors.New("beliefs: nest id is required for raising beliefs")

// ErrUnknownKind is returned for a lookup with an unrecognized belief kind.
var ErrUnknownKind = errors.New("beliefs: unknown belief kind")

// Params holds prior shape constants and initial means.
type Params struct {
	SearchPriorAlpha    float64 // floor on the derived prior alpha
	SearchPriorBeta     float64 // floor on the derived prior beta
	SearchPriorVariance float64 // assumed variance when deriving (alpha, beta) from the mean
	SearchInitialMean   float64
	RaisingInitialMean  float64
}

type searchObservation struct {
	share   float64
	fitness float64
}

type raisingObservation struct {
	observed agents.BirdID
	share    float64
	fitness  float64
}

type searchBelief struct {
	posteriorMean float64
	observations  []searchObservation
}

type raisingBelief struct {
	expectedTotal float64
	observations  []raisingObservation
}

// nestKey addresses a raising belief sparsely by (observer, nest).
type nestKey struct {
	bird agents.BirdID
	nest agents.NestID
}

// System holds all beliefs for all birds.
type System struct {
	p       Params
	search  map[agents.BirdID]*searchBelief
	raising map[nestKey]*raisingBelief
}

// NewSystem creates an empty belief system with the given priors.
func NewSystem(p Params) *System {
	return &System{
		p:       p,
		search:  make(map[agents.BirdID]*searchBelief),
		raising: make(map[nestKey]*raisingBelief),
	}
}

func (s *System) searchFor(bird agents.BirdID) *searchBelief {
	b, ok := s.search[bird]
	if !ok {
		b = &searchBelief{posteriorMean: s.p.SearchInitialMean}
		s.search[bird] = b
	}
	return b
}

func (s *System) raisingFor(bird agents.BirdID, nest agents.NestID) *raisingBelief {
	key := nestKey{bird: bird, nest: nest}
	b, ok := s.raising[key]
	if !ok {
		b = &raisingBelief{expectedTotal: s.p.RaisingInitialMean}
		s.raising[key] = b
	}
	return b
}

// SubmitSearchObservation buffers an observed peer (search share, fitness)
// pair for the observer's next search-belief update.
func (s *System) SubmitSearchObservation(observer, observed agents.BirdID, share, fitness float64) {
	b := s.searchFor(observer)
	b.observations = append(b.observations, searchObservation{share: share, fitness: fitness})
}

// SubmitRaisingObservation buffers an observed peer contribution to a nest
// for the observer's next raising-belief update.
func (s *System) SubmitRaisingObservation(observer agents.BirdID, nest agents.NestID, observed agents.BirdID, share, fitness float64) {
	b := s.raisingFor(observer, nest)
	b.observations = append(b.observations, raisingObservation{observed: observed, share: share, fitness: fitness})
}

// fitnessWeights normalizes fitness values to weights summing to 1, falling
// back to uniform weights when total fitness is 0.
func fitnessWeights(fitnesses []float64) []float64 {
	weights := make([]float64, len(fitnesses))
	total := floats.Sum(fitnesses)
	if total > 0 {
		for i, f := range fitnesses {
			weights[i] = f / total
		}
		return weights
	}
	for i := range weights {
		weights[i] = 1 / float64(len(weights))
	}
	return weights
}

// UpdateSearchBeliefs folds buffered observations into the bird's search
// posterior. Pseudo-Beta parameters are derived from the current mean under
// a fixed assumed variance, floored at the prior constants, then combined
// additively with the fitness-weighted observed shares. No-op when the
// buffer is empty.
func (s *System) UpdateSearchBeliefs(bird agents.BirdID) {
	b := s.searchFor(bird)
	if len(b.observations) == 0 {
		return
	}

	shares := make([]float64, len(b.observations))
	complements := make([]float64, len(b.observations))
	fitnesses := make([]float64, len(b.observations))
	for i, obs := range b.observations {
		shares[i] = obs.share
		complements[i] = 1 - obs.share
		fitnesses[i] = obs.fitness
	}
	weights := fitnessWeights(fitnesses)

	mean := b.posteriorMean
	shape := mean*(1-mean)/s.p.SearchPriorVariance - 1
	priorAlpha := max(mean*shape, s.p.SearchPriorAlpha)
	priorBeta := max((1-mean)*shape, s.p.SearchPriorBeta)

	posteriorAlpha := priorAlpha + floats.Dot(weights, shares)
	posteriorBeta := priorBeta + floats.Dot(weights, complements)

	b.posteriorMean = posteriorAlpha / (posteriorAlpha + posteriorBeta)
	b.observations = b.observations[:0]
}

// UpdateRaisingBeliefs folds buffered observations into the bird's per-nest
// expected-total-investment beliefs. Each nest's fitness-weighted mean of
// observed shares is blended with the prior, weighted by the observation
// count: (prior + n·weightedMean)/(1+n). Buffers clear afterwards.
func (s *System) UpdateRaisingBeliefs(bird agents.BirdID) {
	for key, b := range s.raising {
		if key.bird != bird || len(b.observations) == 0 {
			continue
		}

		shares := make([]float64, len(b.observations))
		fitnesses := make([]float64, len(b.observations))
		for i, obs := range b.observations {
			shares[i] = obs.share
			fitnesses[i] = obs.fitness
		}
		weights := fitnessWeights(fitnesses)
		weightedMean := floats.Dot(weights, shares)

		n := float64(len(b.observations))
		b.expectedTotal = (b.expectedTotal + n*weightedMean) / (1 + n)
		b.observations = b.observations[:0]
	}
}

// UpdateAll updates search and raising beliefs for every bird with buffered
// observations.
func (s *System) UpdateAll() {
	for bird := range s.search {
		s.UpdateSearchBeliefs(bird)
	}
	seen := make(map[agents.BirdID]struct{})
	for key := range s.raising {
		if _, ok := seen[key.bird]; ok {
			continue
		}
		seen[key.bird] = struct{}{}
		s.UpdateRaisingBeliefs(key.bird)
	}
}

// SearchBelief returns the bird's posterior mean of the population-typical
// search share. Lookups never mutate the system, so concurrent decision
// evaluation can read beliefs safely.
func (s *System) SearchBelief(bird agents.BirdID) float64 {
	if b, ok := s.search[bird]; ok {
		return b.posteriorMean
	}
	return s.p.SearchInitialMean
}

// RaisingBelief returns the bird's expected total investment by others at a
// nest. Read-only, like SearchBelief.
func (s *System) RaisingBelief(bird agents.BirdID, nest agents.NestID) float64 {
	if b, ok := s.raising[nestKey{bird: bird, nest: nest}]; ok {
		return b.expectedTotal
	}
	return s.p.RaisingInitialMean
}

// Belief dispatches a lookup by kind. Raising lookups require a nest id;
// omitting it is an error, not a default.
func (s *System) Belief(bird agents.BirdID, kind Kind, nest *agents.NestID) (float64, error) {
	switch kind {
	case Search:
		return s.SearchBelief(bird), nil
	case Raising:
		if nest == nil {
			return 0, ErrNestRequired
		}
		return s.RaisingBelief(bird, *nest), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
