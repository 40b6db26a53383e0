// Package foraging implements the resource-search and fitness model:
// investment-sized exploration areas, best-patch selection, fixed-rate
// extraction, and the logistic resources→fledglings conversion. The
// counterfactual variants are pure and safe to call many times per
// allocation decision.
package foraging

import (
	"math"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/world"
)

// Params holds the model's fixed constants.
type Params struct {
	BaseRadius     float64 // exploration radius at full investment
	ExtractionRate float64 // fraction of patch density taken per extraction
	LogisticK      float64 // fledgling ceiling
	LogisticA      float64 // initial-level shift
	LogisticR      float64 // conversion rate
}

// Model evaluates foraging outcomes against a resource field.
type Model struct {
	p Params
}

// NewModel creates a foraging model with the given constants.
func NewModel(p Params) *Model {
	return &Model{p: p}
}

// ExplorationArea returns the cells within radius max(1, ⌊BaseRadius ×
// investment⌋) of center under discrete Euclidean containment, clipped to
// the field bounds. The radius never drops below 1: even near-zero
// investment explores the immediate 5-cell neighborhood.
func (m *Model) ExplorationArea(f *world.Field, center world.Cell, investment float64) []world.Cell {
	radius := int(m.p.BaseRadius * investment)
	if radius < 1 {
		radius = 1
	}

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

// SelectBestPatch returns the cell of maximum density among cells, or false
// when the set is empty or every candidate has density ≤ 0. Ties go to the
// first maximum in iteration order.
func (m *Model) SelectBestPatch(f *world.Field, cells []world.Cell) (world.Cell, bool) {
	best := world.Cell{}
	bestDensity := 0.0
	found := false

	for _, c := range cells {
		d := f.Density(c)
		if d > bestDensity {
			bestDensity = d
			best = c
			found = true
		}
	}
	return best, found
}

// Extract returns the resources taken from a cell at the fixed rate. The
// field is not depleted: repeat extractions against the same cell in the
// same day yield the same amount.
func (m *Model) Extract(f *world.Field, c world.Cell) float64 {
	return f.Density(c) * m.p.ExtractionRate
}

// Fledglings converts accumulated resources to expected surviving
// offspring: K / (1 + A·e^(−R·resources)). Strictly increasing, asymptotic
// to K, equal to K/(1+A) at zero.
func (m *Model) Fledglings(resources float64) float64 {
	return m.p.LogisticK / (1 + m.p.LogisticA*math.Exp(-m.p.LogisticR*resources))
}

// forage runs the exploration→selection→extraction pipeline for a
// hypothetical or actual investment at a nest position.
func (m *Model) forage(f *world.Field, nestPos world.Cell, investment float64) (world.Cell, float64, bool) {
	area := m.ExplorationArea(f, nestPos, investment)
	patch, ok := m.SelectBestPatch(f, area)
	if !ok {
		return world.Cell{}, 0, false
	}
	return patch, m.Extract(f, patch), true
}

// Mine forages at the nest's position with the individual's own investment,
// adds the extracted amount to the nest's per-day cache, and returns it.
func (m *Model) Mine(f *world.Field, nest *agents.Nest, investment float64) float64 {
	_, extracted, ok := m.forage(f, nest.Position, investment)
	if !ok {
		return 0
	}
	nest.AddResources(extracted)
	return extracted
}

// FemaleFitness is the owner's realized payoff: fledglings from the total
// live-field resources across the nest's home range.
func (m *Model) FemaleFitness(f *world.Field, nest *agents.Nest) float64 {
	return m.Fledglings(nest.HomeRangeResources(f))
}

// MaleFitness is the female fitness weighted by the male's paternity share
// (his fraction of total male investment), defined as 0 when no male has
// invested anything.
func (m *Model) MaleFitness(f *world.Field, nest *agents.Nest, maleID agents.BirdID) float64 {
	totalMale := nest.TotalMaleShare()
	if totalMale == 0 {
		return 0
	}
	paternity := nest.MaleShare(maleID) / totalMale
	return m.FemaleFitness(f, nest) * paternity
}

// CounterfactualFemaleFitness evaluates the payoff of a hypothetical own
// investment given a believed others' investment, against the field as it
// stands. Pure: no state is mutated.
func (m *Model) CounterfactualFemaleFitness(f *world.Field, nestPos world.Cell, myInvest, othersInvest float64) float64 {
	_, extracted, _ := m.forage(f, nestPos, myInvest+othersInvest)
	return m.Fledglings(extracted)
}

// CounterfactualMaleFitness is the male variant: the hypothetical payoff is
// weighted by myInvest's fraction of the combined investment, 0 when both
// are 0. Pure.
func (m *Model) CounterfactualMaleFitness(f *world.Field, nestPos world.Cell, myInvest, othersInvest float64) float64 {
	total := myInvest + othersInvest
	if total == 0 {
		return 0
	}
	paternity := myInvest / total
	_, extracted, _ := m.forage(f, nestPos, total)
	return m.Fledglings(extracted) * paternity
}
