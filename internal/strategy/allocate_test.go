package strategy

import (
	"math"
	"testing"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/world"
)

func fixedPos(agents.NestID) world.Cell { return world.Cell{} }
func noOthers(agents.NestID) float64    { return 0 }

func TestAllocateSumsToBudget(t *testing.T) {
	candidates := []agents.NestID{1, 2, 3}

	// Diminishing-returns payoff, distinct scale per nest.
	fitness := func(pos world.Cell, my, others float64) float64 {
		return math.Sqrt(my + others)
	}

	shares, err := Allocate(candidates, 0.9, 20, 0.01, fixedPos, noOthers, fitness)
	if err != nil {
		t.Fatal(err)
	}

	total := 0.0
	for id, s := range shares {
		if s < 0 {
			t.Errorf("nest %d share = %v, negative", id, s)
		}
		total += s
	}
	if math.Abs(total-0.9) > 1e-9 {
		t.Errorf("shares sum to %v, want 0.9", total)
	}
}

func TestAllocateFavorsBetterNest(t *testing.T) {
	candidates := []agents.NestID{1, 2}

	fitness := func(pos world.Cell, my, others float64) float64 {
		scale := 1.0
		if pos.X == 1 {
			scale = 3.0
		}
		return scale * math.Sqrt(my)
	}
	pos := func(id agents.NestID) world.Cell {
		if id == 2 {
			return world.Cell{X: 1}
		}
		return world.Cell{}
	}

	shares, err := Allocate(candidates, 1.0, 20, 0.01, pos, noOthers, fitness)
	if err != nil {
		t.Fatal(err)
	}
	if shares[2] <= shares[1] {
		t.Errorf("better nest got %v, worse got %v", shares[2], shares[1])
	}
}

func TestAllocateFlatPayoffTiesToFirst(t *testing.T) {
	candidates := []agents.NestID{1, 2, 3, 4}

	// Flat payoff: every marginal utility is zero, so every step ties and
	// goes to the first candidate.
	flat := func(world.Cell, float64, float64) float64 { return 1 }

	shares, err := Allocate(candidates, 0.8, 20, 0.01, fixedPos, noOthers, flat)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(shares[1]-0.8) > 1e-9 {
		t.Errorf("first candidate share = %v, want the whole budget", shares[1])
	}
	for _, id := range candidates[1:] {
		if shares[id] != 0 {
			t.Errorf("nest %d share = %v, want 0", id, shares[id])
		}
	}
}

func TestAllocateEdgeCases(t *testing.T) {
	flat := func(world.Cell, float64, float64) float64 { return 1 }

	shares, err := Allocate(nil, 0.5, 20, 0.01, fixedPos, noOthers, flat)
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 0 {
		t.Errorf("allocation over no candidates = %v, want empty", shares)
	}

	if _, err := Allocate([]agents.NestID{1}, -0.1, 20, 0.01, fixedPos, noOthers, flat); err == nil {
		t.Error("negative budget accepted")
	}

	// Zero budget is valid and yields all-zero shares.
	shares, err = Allocate([]agents.NestID{1, 2}, 0, 20, 0.01, fixedPos, noOthers, flat)
	if err != nil {
		t.Fatal(err)
	}
	for id, s := range shares {
		if s != 0 {
			t.Errorf("nest %d share = %v under zero budget", id, s)
		}
	}
}
