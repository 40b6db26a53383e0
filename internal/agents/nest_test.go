package agents

import (
	"math"
	"testing"

	"github.com/talgya/nestshare/internal/world"
)

func TestNestMaleShares(t *testing.T) {
	owner := BirdID(1)
	n := NewNest(1, &owner, world.Cell{X: 5, Y: 5})

	n.AddMale(10)
	n.SetMaleShare(10, 0.3)
	n.AddMale(11)
	n.SetMaleShare(11, 0.2)

	// Later writes win within a day.
	n.SetMaleShare(10, 0.4)

	if got := n.MaleShare(10); got != 0.4 {
		t.Errorf("male 10 share = %v, want 0.4", got)
	}
	if got := n.TotalMaleShare(); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("total male share = %v, want 0.6", got)
	}

	n.FemaleShare = 0.5
	if got := n.TotalShare(); math.Abs(got-1.1) > 1e-9 {
		t.Errorf("total share = %v, want 1.1", got)
	}

	if got := n.MaleIDs(); len(got) != 2 || got[0] != 10 || got[1] != 11 {
		t.Errorf("male IDs = %v, want [10 11]", got)
	}
}

func TestNestContributingMales(t *testing.T) {
	n := NewNest(1, nil, world.Cell{})

	n.AddMale(10)
	n.SetMaleShare(10, 0.3)
	n.AddMale(11)
	n.SetMaleShare(11, 0)

	if got := n.ContributingMales(); got != 1 {
		t.Errorf("contributing males = %d, want 1", got)
	}
}

func TestNestRemoveMale(t *testing.T) {
	n := NewNest(1, nil, world.Cell{})
	n.AddMale(10)
	n.SetMaleShare(10, 0.3)

	n.RemoveMale(10)
	if n.HasMale(10) {
		t.Error("removed male still resident")
	}
	if n.MaleShare(10) != 0 {
		t.Error("removed male still has a share")
	}
}

func TestNestResourceCache(t *testing.T) {
	n := NewNest(1, nil, world.Cell{})

	n.AddResources(1.5)
	n.AddResources(0.5)
	if got := n.ResourceCache(); got != 2.0 {
		t.Errorf("resource cache = %v, want 2.0", got)
	}

	n.ResetResources()
	if got := n.ResourceCache(); got != 0 {
		t.Errorf("cache after reset = %v, want 0", got)
	}
}

func TestHomeRangeResources(t *testing.T) {
	f := world.NewField(10)
	f.Set(world.Cell{X: 2, Y: 2}, 3)
	f.Set(world.Cell{X: 2, Y: 3}, 1)
	f.Set(world.Cell{X: 9, Y: 9}, 100) // outside the range

	n := NewNest(1, nil, world.Cell{X: 2, Y: 2})
	n.HomeRange = []world.Cell{{X: 2, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 2}}

	if got := n.HomeRangeResources(f); got != 4 {
		t.Errorf("home range resources = %v, want 4", got)
	}
}
