package beliefs

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/nestshare/internal/agents"
)

func testParams() Params {
	return Params{
		SearchPriorAlpha:    1,
		SearchPriorBeta:     9,
		SearchPriorVariance: 0.01,
		SearchInitialMean:   0.1,
		RaisingInitialMean:  0.45,
	}
}

func TestInitialBeliefs(t *testing.T) {
	s := NewSystem(testParams())

	if got := s.SearchBelief(1); got != 0.1 {
		t.Errorf("initial search belief = %v, want 0.1", got)
	}
	if got := s.RaisingBelief(1, 5); got != 0.45 {
		t.Errorf("initial raising belief = %v, want 0.45", got)
	}
}

func TestUpdateSearchBeliefsEmptyBufferIsNoop(t *testing.T) {
	s := NewSystem(testParams())

	s.UpdateSearchBeliefs(1)
	if got := s.SearchBelief(1); got != 0.1 {
		t.Errorf("belief after empty update = %v, want 0.1", got)
	}
}

func TestUpdateSearchBeliefs(t *testing.T) {
	s := NewSystem(testParams())

	s.SubmitSearchObservation(1, 2, 0.8, 1.0)
	s.UpdateSearchBeliefs(1)

	// mean 0.1, variance 0.01: shape = 8, derived prior (0.8, 7.2) floors
	// to (1, 9). One unit-weight observation of 0.8:
	// posterior mean = (1 + 0.8) / (1 + 0.8 + 9 + 0.2).
	want := 1.8 / 11.0
	if got := s.SearchBelief(1); math.Abs(got-want) > 1e-9 {
		t.Errorf("posterior mean = %v, want %v", got, want)
	}

	// Buffer cleared: a second update without observations is a no-op.
	s.UpdateSearchBeliefs(1)
	if got := s.SearchBelief(1); math.Abs(got-want) > 1e-9 {
		t.Errorf("mean after empty re-update = %v, want %v", got, want)
	}
}

func TestSearchBeliefsFitnessWeighting(t *testing.T) {
	s := NewSystem(testParams())

	// The fitter peer's share dominates the weighted sum.
	s.SubmitSearchObservation(1, 2, 0.9, 9.0)
	s.SubmitSearchObservation(1, 3, 0.1, 1.0)
	s.UpdateSearchBeliefs(1)
	weighted := s.SearchBelief(1)

	s2 := NewSystem(testParams())
	s2.SubmitSearchObservation(1, 2, 0.9, 1.0)
	s2.SubmitSearchObservation(1, 3, 0.1, 9.0)
	s2.UpdateSearchBeliefs(1)
	inverted := s2.SearchBelief(1)

	if weighted <= inverted {
		t.Errorf("high-fitness 0.9 share gave mean %v, not above inverted %v", weighted, inverted)
	}
}

func TestSearchBeliefsZeroFitnessUniform(t *testing.T) {
	s := NewSystem(testParams())

	s.SubmitSearchObservation(1, 2, 0.2, 0)
	s.SubmitSearchObservation(1, 3, 0.6, 0)
	s.UpdateSearchBeliefs(1)

	// Zero total fitness falls back to uniform weights: weighted share 0.4.
	want := (1 + 0.4) / (1 + 0.4 + 9 + 0.6)
	if got := s.SearchBelief(1); math.Abs(got-want) > 1e-9 {
		t.Errorf("posterior mean = %v, want %v", got, want)
	}
}

func TestUpdateRaisingBeliefs(t *testing.T) {
	s := NewSystem(testParams())

	s.SubmitRaisingObservation(1, 7, 2, 0.6, 1.0)
	s.SubmitRaisingObservation(1, 7, 3, 0.2, 1.0)
	s.UpdateRaisingBeliefs(1)

	// Two uniform-weight observations, weighted mean 0.4:
	// (0.45 + 2*0.4) / (1 + 2).
	want := (0.45 + 2*0.4) / 3
	if got := s.RaisingBelief(1, 7); math.Abs(got-want) > 1e-9 {
		t.Errorf("raising belief = %v, want %v", got, want)
	}

	// Other nests and observers untouched.
	if got := s.RaisingBelief(1, 8); got != 0.45 {
		t.Errorf("unrelated nest belief = %v, want 0.45", got)
	}
	if got := s.RaisingBelief(2, 7); got != 0.45 {
		t.Errorf("other observer belief = %v, want 0.45", got)
	}
}

func TestUpdateAll(t *testing.T) {
	s := NewSystem(testParams())

	s.SubmitSearchObservation(1, 2, 0.8, 1.0)
	s.SubmitRaisingObservation(2, 7, 1, 0.6, 1.0)
	s.UpdateAll()

	if got := s.SearchBelief(1); got == 0.1 {
		t.Error("UpdateAll did not fold search observations")
	}
	if got := s.RaisingBelief(2, 7); got == 0.45 {
		t.Error("UpdateAll did not fold raising observations")
	}
}

func TestBeliefDispatch(t *testing.T) {
	s := NewSystem(testParams())
	nest := agents.NestID(7)

	got, err := s.Belief(1, Search, nil)
	if err != nil || got != 0.1 {
		t.Errorf("Belief(search) = %v, %v", got, err)
	}

	got, err = s.Belief(1, Raising, &nest)
	if err != nil || got != 0.45 {
		t.Errorf("Belief(raising) = %v, %v", got, err)
	}

	if _, err := s.Belief(1, Raising, nil); !errors.Is(err, ErrNestRequired) {
		t.Errorf("Belief(raising, nil nest) = %v, want ErrNestRequired", err)
	}
	if _, err := s.Belief(1, Kind("bogus"), nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Belief(bogus) = %v, want ErrUnknownKind", err)
	}
}
