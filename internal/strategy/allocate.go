// Package strategy implements per-bird daily decisions: the shared greedy
// marginal-utility allocation algorithm and the female/male strategies that
// parametrize it with their own candidate nests and fitness functions.
package strategy

import (
	"fmt"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/world"
)

// FitnessFunc evaluates a counterfactual payoff for a hypothetical own
// investment at a nest position, given a believed others' investment. It
// must be pure: it is called twice per candidate per allocation step.
type FitnessFunc func(nestPos world.Cell, myInvest, othersInvest float64) float64

// Allocate distributes a budget of effort across candidate nests by greedy
// marginal-utility ascent: the budget is split into steps equal increments,
// and each increment goes to the nest whose forward-difference marginal
// fitness gain is currently highest. Ties go to the earliest candidate in
// slice order. Believed others' investments are snapshotted once, not
// refreshed mid-loop.
//
// The result is rescaled so shares sum exactly to budget; if every step saw
// only zero or negative marginal utility the budget is split equally. This
// is a myopic fixed-step approximation, not a global optimum.
func Allocate(
	candidates []agents.NestID,
	budget float64,
	steps int,
	delta float64,
	nestPos func(agents.NestID) world.Cell,
	believedOthers func(agents.NestID) float64,
	fitness FitnessFunc,
) (map[agents.NestID]float64, error) {
	if budget < 0 {
		return nil, fmt.Errorf("strategy: allocation budget must be non-negative, got %g", budget)
	}

	shares := make(map[agents.NestID]float64, len(candidates))
	if len(candidates) == 0 {
		return shares, nil
	}
	for _, id := range candidates {
		shares[id] = 0
	}

	// Snapshot beliefs and positions once for the whole loop.
	others := make(map[agents.NestID]float64, len(candidates))
	positions := make(map[agents.NestID]world.Cell, len(candidates))
	for _, id := range candidates {
		others[id] = believedOthers(id)
		positions[id] = nestPos(id)
	}

	stepSize := budget / float64(steps)

	for step := 0; step < steps; step++ {
		best := candidates[0]
		bestUtility := marginalUtility(fitness, positions[best], shares[best], others[best], delta)

		for _, id := range candidates[1:] {
			u := marginalUtility(fitness, positions[id], shares[id], others[id], delta)
			if u > bestUtility {
				bestUtility = u
				best = id
			}
		}
		shares[best] += stepSize
	}

	// Rescale so the shares sum exactly to the budget.
	total := 0.0
	for _, s := range shares {
		total += s
	}
	if total > 0 {
		scale := budget / total
		for id := range shares {
			shares[id] *= scale
		}
	} else {
		// Degenerate: nothing looked worth investing in. Split evenly.
		equal := budget / float64(len(candidates))
		for id := range shares {
			shares[id] = equal
		}
	}

	return shares, nil
}

// marginalUtility is the forward-difference estimate of the fitness slope
// at the current allocation level.
func marginalUtility(fitness FitnessFunc, pos world.Cell, current, others, delta float64) float64 {
	base := fitness(pos, current, others)
	bumped := fitness(pos, current+delta, others)
	return (bumped - base) / delta
}
