package telemetry

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/engine"
	"github.com/talgya/nestshare/internal/foraging"
	"github.com/talgya/nestshare/internal/world"
)

func testModel() *foraging.Model {
	return foraging.NewModel(foraging.Params{
		BaseRadius:     3,
		ExtractionRate: 0.3,
		LogisticK:      10,
		LogisticA:      1e-6,
		LogisticR:      0.1,
	})
}

func TestCollectClassifiesNests(t *testing.T) {
	f := world.NewField(20)
	st := colony.NewState(f, rand.New(rand.NewPCG(1, 0)), 0.3)

	female := agents.NewFemale(1, world.Cell{X: 5, Y: 5})
	st.AddBird(female)

	// Three nests: unattended, monogamous, polygynandrous.
	unattended := st.CreateNest(female.ID, world.Cell{X: 5, Y: 5})
	mono := st.CreateNest(female.ID, world.Cell{X: 6, Y: 6})
	poly := st.CreateNest(female.ID, world.Cell{X: 7, Y: 7})
	_ = unattended

	m1 := agents.NewMale(2, world.Cell{})
	m2 := agents.NewMale(3, world.Cell{})
	m3 := agents.NewMale(4, world.Cell{})
	st.AddBird(m1)
	st.AddBird(m2)
	st.AddBird(m3)

	monoNest, _ := st.Nest(mono)
	monoNest.AddMale(m1.ID)
	monoNest.SetMaleShare(m1.ID, 0.3)
	if err := m1.AssignRole(mono, agents.RoleAlpha); err != nil {
		t.Fatal(err)
	}

	polyNest, _ := st.Nest(poly)
	polyNest.AddMale(m1.ID)
	polyNest.SetMaleShare(m1.ID, 0.2)
	polyNest.AddMale(m2.ID)
	polyNest.SetMaleShare(m2.ID, 0.4)
	if err := m2.AssignRole(poly, agents.RoleAlpha); err != nil {
		t.Fatal(err)
	}

	stats := Collect(st, testModel(), engine.DayResult{Day: 4})

	if stats.Day != 4 {
		t.Errorf("day = %d, want 4", stats.Day)
	}
	if stats.Nests != 3 {
		t.Errorf("nests = %d, want 3", stats.Nests)
	}
	if stats.UnattendedNests != 1 {
		t.Errorf("unattended = %d, want 1", stats.UnattendedNests)
	}
	if stats.MonogamousNests != 1 {
		t.Errorf("monogamous = %d, want 1", stats.MonogamousNests)
	}
	if stats.PolygynandrousNests != 1 {
		t.Errorf("polygynandrous = %d, want 1", stats.PolygynandrousNests)
	}
	if stats.UnpairedMales != 1 {
		t.Errorf("unpaired males = %d, want 1 (male 4)", stats.UnpairedMales)
	}

	// Residency: 0 + 1 + 2 males across three nests.
	if want := 1.0; math.Abs(stats.MeanMalesPerNest-want) > 1e-9 {
		t.Errorf("mean males per nest = %v, want %v", stats.MeanMalesPerNest, want)
	}

	// Concentration: 1.0 for the monogamous nest, 0.4/0.6 for the
	// polygynandrous one.
	if want := (1.0 + 0.4/0.6) / 2; math.Abs(stats.MeanShareConcentration-want) > 1e-9 {
		t.Errorf("mean share concentration = %v, want %v", stats.MeanShareConcentration, want)
	}
}

func TestCollectNests(t *testing.T) {
	f := world.NewField(20)
	st := colony.NewState(f, rand.New(rand.NewPCG(1, 0)), 0.3)

	female := agents.NewFemale(1, world.Cell{X: 5, Y: 5})
	st.AddBird(female)
	nestID := st.CreateNest(female.ID, world.Cell{X: 5, Y: 5})

	nest, _ := st.Nest(nestID)
	nest.AddResources(2.5)

	records := CollectNests(3, st, testModel())
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Day != 3 || rec.NestID != uint64(nestID) {
		t.Errorf("record identity = day %d nest %d", rec.Day, rec.NestID)
	}
	if rec.OwnerID != uint64(female.ID) {
		t.Errorf("owner = %d, want %d", rec.OwnerID, female.ID)
	}
	if rec.Extracted != 2.5 {
		t.Errorf("extracted = %v, want 2.5", rec.Extracted)
	}
}
