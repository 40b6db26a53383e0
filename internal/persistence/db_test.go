package persistence

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testColony(t *testing.T) *colony.State {
	t.Helper()
	st := colony.NewState(world.NewField(20), rand.New(rand.NewPCG(1, 0)), 0.3)

	female := agents.NewFemale(1, world.Cell{X: 5, Y: 5})
	st.AddBird(female)
	nestID := st.CreateNest(female.ID, world.Cell{X: 5, Y: 5})

	male := agents.NewMale(2, world.Cell{X: 3, Y: 3})
	st.AddBird(male)
	if err := male.AssignRole(nestID, agents.RoleAlpha); err != nil {
		t.Fatal(err)
	}
	nest, _ := st.Nest(nestID)
	nest.AddMale(male.ID)
	nest.SetMaleShare(male.ID, 0.4)

	return st
}

func TestSaveColony(t *testing.T) {
	db := openTestDB(t)
	st := testColony(t)

	if err := db.SaveColony(st, 3); err != nil {
		t.Fatal(err)
	}

	day, err := db.GetMeta("last_day")
	if err != nil {
		t.Fatal(err)
	}
	if day != "3" {
		t.Errorf("last_day = %q, want 3", day)
	}

	// Full replace: saving again does not duplicate rows.
	if err := db.SaveColony(st, 4); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM birds"); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("bird rows = %d, want 2", count)
	}
}

func TestNestHistory(t *testing.T) {
	db := openTestDB(t)
	st := testColony(t)

	nests := st.Nests()
	nests[0].AddResources(1.5)
	if err := db.AppendNestDay(1, nests); err != nil {
		t.Fatal(err)
	}
	nests[0].ResetResources()
	nests[0].AddResources(2.5)
	if err := db.AppendNestDay(2, nests); err != nil {
		t.Fatal(err)
	}

	rows, err := db.NestHistory(nests[0].ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("history rows = %d, want 2", len(rows))
	}
	if rows[0].Day != 2 || rows[0].Extracted != 2.5 {
		t.Errorf("latest row = %+v, want day 2 extracted 2.5", rows[0])
	}
	if rows[1].Day != 1 || rows[1].Extracted != 1.5 {
		t.Errorf("older row = %+v, want day 1 extracted 1.5", rows[1])
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMeta("seed", "42"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("seed", "43"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMeta("seed")
	if err != nil {
		t.Fatal(err)
	}
	if got != "43" {
		t.Errorf("meta = %q, want 43", got)
	}

	if _, err := db.GetMeta("absent"); err == nil {
		t.Error("reading absent meta key succeeded")
	}
}
