package agents

import (
	"slices"

	"github.com/talgya/nestshare/internal/world"
)

// Nest is a single breeding site owned by at most one female. Raising
// shares recorded here are set by the execution layer; the nest itself does
// not enforce any budget, that is the allocation algorithm's job per
// individual.
type Nest struct {
	ID       NestID
	Owner    *BirdID // nil only at creation
	Position world.Cell

	// HomeRange is the cell set used for the owner's realized fitness.
	// Recorded at creation, reporting only beyond that.
	HomeRange []world.Cell

	// resourceCache accumulates the day's extracted resources; reset daily.
	resourceCache float64

	males       map[BirdID]struct{}
	maleShares  map[BirdID]float64
	FemaleShare float64
}

// NewNest creates a nest at the given position. Pass nil owner for a nest
// not yet claimed.
func NewNest(id NestID, owner *BirdID, pos world.Cell) *Nest {
	return &Nest{
		ID:         id,
		Owner:      owner,
		Position:   pos,
		males:      make(map[BirdID]struct{}),
		maleShares: make(map[BirdID]float64),
	}
}

// AddMale records a male as resident. Idempotent.
func (n *Nest) AddMale(id BirdID) {
	n.males[id] = struct{}{}
}

// RemoveMale removes a male and his recorded share.
func (n *Nest) RemoveMale(id BirdID) {
	delete(n.males, id)
	delete(n.maleShares, id)
}

// HasMale reports whether the male is resident at this nest.
func (n *Nest) HasMale(id BirdID) bool {
	_, ok := n.males[id]
	return ok
}

// MaleIDs returns resident male IDs in ascending order.
func (n *Nest) MaleIDs() []BirdID {
	ids := make([]BirdID, 0, len(n.males))
	for id := range n.males {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaleShare returns the raising share recorded for a male, 0 if absent.
func (n *Nest) MaleShare(id BirdID) float64 {
	return n.maleShares[id]
}

// SetMaleShare overwrites the raising share recorded for a male. Later
// writes win within a day.
func (n *Nest) SetMaleShare(id BirdID, share float64) {
	n.maleShares[id] = share
}

// MaleShares returns a copy of the male→share map.
func (n *Nest) MaleShares() map[BirdID]float64 {
	out := make(map[BirdID]float64, len(n.maleShares))
	for id, s := range n.maleShares {
		out[id] = s
	}
	return out
}

// TotalMaleShare returns the sum of all recorded male raising shares.
func (n *Nest) TotalMaleShare() float64 {
	total := 0.0
	for _, s := range n.maleShares {
		total += s
	}
	return total
}

// TotalShare returns the female share plus all male shares.
func (n *Nest) TotalShare() float64 {
	return n.FemaleShare + n.TotalMaleShare()
}

// ContributingMales counts males with a positive recorded share.
func (n *Nest) ContributingMales() int {
	count := 0
	for _, s := range n.maleShares {
		if s > 0 {
			count++
		}
	}
	return count
}

// HomeRangeResources sums the live field density over the nest's home range.
func (n *Nest) HomeRangeResources(f *world.Field) float64 {
	total := 0.0
	for _, c := range n.HomeRange {
		total += f.Density(c)
	}
	return total
}

// AddResources adds extracted resources to the day's cache.
func (n *Nest) AddResources(amount float64) {
	n.resourceCache += amount
}

// ResourceCache returns the day's accumulated extracted resources.
func (n *Nest) ResourceCache() float64 {
	return n.resourceCache
}

// ResetResources clears the per-day resource cache.
func (n *Nest) ResetResources() {
	n.resourceCache = 0
}
