// Package engine drives the simulation: colony bootstrap, the daily
// decide/shuffle/execute cycle, and the run loop that ties strategies,
// foraging, and beliefs together around the shared colony state.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/foraging"
	"github.com/talgya/nestshare/internal/strategy"
	"github.com/talgya/nestshare/internal/world"
)

// parallelThreshold is the minimum bird count for parallel decision
// collection. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// ActionKind distinguishes the two daily action types.
type ActionKind uint8

const (
	ActionSearch ActionKind = iota
	ActionRaise
)

// String returns a human-readable action name.
func (k ActionKind) String() string {
	if k == ActionSearch {
		return "search"
	}
	return "raise"
}

// Action is one bird's intent toward one nest. Search actions carry the
// bird's search share, raise actions its per-nest raising share.
type Action struct {
	Bird  agents.BirdID
	Kind  ActionKind
	Nest  agents.NestID
	Share float64
}

// DayResult summarizes one executed day.
type DayResult struct {
	Day            int
	NestsCreated   int
	SearchAttempts int
	Discoveries    int
	RaiseActions   int
	Extracted      float64
}

// Engine runs the daily cycle against a colony. It does not own the run
// loop; Simulation drives it day by day.
type Engine struct {
	st       *colony.State
	gen      *world.Generator
	binder   *strategy.Binder
	model    *foraging.Model
	parallel bool
	log      *slog.Logger
}

// NewEngine creates a daily-cycle engine. When parallel is true, decision
// collection runs chunked across GOMAXPROCS workers once the population is
// large enough.
func NewEngine(st *colony.State, gen *world.Generator, binder *strategy.Binder, model *foraging.Model, parallel bool, log *slog.Logger) *Engine {
	return &Engine{st: st, gen: gen, binder: binder, model: model, parallel: parallel, log: log}
}

// State returns the colony the engine runs against.
func (e *Engine) State() *colony.State {
	return e.st
}

// RunDay executes one day: bind strategies, prepare (nest creation),
// collect decisions, expand them into a shuffled action stream, execute it,
// then let every bird observe. The field is left intact so callers can read
// the day's outcomes; ResetDay starts the next day.
func (e *Engine) RunDay(day int) (DayResult, error) {
	res := DayResult{Day: day}

	birds := e.st.Birds()
	e.binder.BindAll(birds)

	created := make(map[agents.BirdID]bool, len(birds))
	for _, b := range birds {
		s, ok := e.binder.StrategyFor(b.ID)
		if !ok {
			return res, fmt.Errorf("engine: bird %d has no bound strategy", b.ID)
		}
		if s.Prepare(e.st, b) {
			created[b.ID] = true
			res.NestsCreated++
		}
	}

	decisions, err := e.collectDecisions(birds, created)
	if err != nil {
		return res, err
	}
	for _, b := range birds {
		d := decisions[b.ID]
		b.SearchShare = d.SearchShare
		e.log.Debug("decision",
			"bird", b.ID,
			"kind", b.Kind.String(),
			"search_share", d.SearchShare,
			"raising_shares", d.RaisingShares)
	}

	actions := generateActions(birds, decisions)
	e.st.RNG().Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
	})

	if err := e.executeActions(actions, &res); err != nil {
		return res, err
	}

	// Observation runs against the day's final state, in bird-ID order so
	// rng consumption replays under a fixed seed.
	for _, b := range birds {
		s, _ := e.binder.StrategyFor(b.ID)
		s.Observe(e.st, b)
	}

	return res, nil
}

// ResetDay regenerates the resource field and clears per-day nest caches.
// Called between days, after the day's results have been read.
func (e *Engine) ResetDay() {
	e.st.ReplaceField(e.gen.Generate())
	e.st.ClearNestCaches()
}

// collectDecisions runs the allocation phase for every bird. Allocation is
// a pure computation against the day's snapshot, so when parallel mode is
// on and the population is large enough, chunks run concurrently and the
// results are applied single-threaded afterwards.
func (e *Engine) collectDecisions(birds []*agents.Bird, created map[agents.BirdID]bool) (map[agents.BirdID]strategy.Decision, error) {
	out := make(map[agents.BirdID]strategy.Decision, len(birds))

	if !e.parallel || len(birds) < parallelThreshold {
		for _, b := range birds {
			s, ok := e.binder.StrategyFor(b.ID)
			if !ok {
				return nil, fmt.Errorf("engine: bird %d has no bound strategy", b.ID)
			}
			d, err := s.Allocate(e.st, b, created[b.ID])
			if err != nil {
				return nil, fmt.Errorf("engine: allocating for bird %d: %w", b.ID, err)
			}
			out[b.ID] = d
		}
		return out, nil
	}

	decisions := make([]strategy.Decision, len(birds))
	errs := make([]error, len(birds))

	numWorkers := runtime.GOMAXPROCS(0)
	chunkSize := (len(birds) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < len(birds); start += chunkSize {
		end := min(start+chunkSize, len(birds))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				b := birds[i]
				s, ok := e.binder.StrategyFor(b.ID)
				if !ok {
					errs[i] = fmt.Errorf("engine: bird %d has no bound strategy", b.ID)
					continue
				}
				decisions[i], errs[i] = s.Allocate(e.st, b, created[b.ID])
			}
		}(start, end)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("engine: allocating for bird %d: %w", birds[i].ID, err)
		}
	}
	for i, b := range birds {
		out[b.ID] = decisions[i]
	}
	return out, nil
}

// generateActions expands decisions into the day's action list. A bird with
// a positive search share searches at every nest it raises at; each
// positive raising share becomes one raise action. The pre-shuffle order is
// deterministic: birds ascending, nests ascending within a bird.
func generateActions(birds []*agents.Bird, decisions map[agents.BirdID]strategy.Decision) []Action {
	var actions []Action
	for _, b := range birds {
		d := decisions[b.ID]

		nests := make([]agents.NestID, 0, len(d.RaisingShares))
		for id := range d.RaisingShares {
			nests = append(nests, id)
		}
		slices.Sort(nests)

		if d.SearchShare > 0 {
			for _, id := range nests {
				if d.RaisingShares[id] > 0 {
					actions = append(actions, Action{Bird: b.ID, Kind: ActionSearch, Nest: id, Share: d.SearchShare})
				}
			}
		}
		for _, id := range nests {
			if share := d.RaisingShares[id]; share > 0 {
				actions = append(actions, Action{Bird: b.ID, Kind: ActionRaise, Nest: id, Share: share})
			}
		}
	}
	return actions
}

// executeActions applies the shuffled action stream sequentially. An action
// referencing an unknown bird or nest is a programming error and aborts the
// day.
func (e *Engine) executeActions(actions []Action, res *DayResult) error {
	for _, a := range actions {
		bird, ok := e.st.Bird(a.Bird)
		if !ok {
			return fmt.Errorf("engine: action references unknown bird %d", a.Bird)
		}
		nest, ok := e.st.Nest(a.Nest)
		if !ok {
			return fmt.Errorf("engine: action references unknown nest %d", a.Nest)
		}

		switch a.Kind {
		case ActionSearch:
			// The bird travels to the nest before probing it, so the
			// composition query resolves at distance zero.
			bird.MoveTo(nest.Position)
			res.SearchAttempts++
			if comp, found := e.st.QueryNestComposition(a.Bird, a.Nest, a.Share); found {
				res.Discoveries++
				e.log.Debug("nest discovered",
					"bird", a.Bird,
					"nest", a.Nest,
					"resident_males", len(comp.MaleIDs))
			}

		case ActionRaise:
			bird.MoveTo(nest.Position)
			extracted := e.model.Mine(e.st.Field(), nest, a.Share)
			res.RaiseActions++
			res.Extracted += extracted

			if bird.Kind == agents.KindMale && a.Share > 0 {
				if err := bird.AssignRole(nest.ID, agents.RoleAlpha); err != nil {
					return fmt.Errorf("engine: pairing male %d to nest %d: %w", a.Bird, a.Nest, err)
				}
				nest.AddMale(bird.ID)
				nest.SetMaleShare(bird.ID, a.Share)
				if nest.Owner != nil {
					if owner, ok := e.st.Bird(*nest.Owner); ok {
						owner.AddResidentMale()
					}
				}
			}

		default:
			return fmt.Errorf("engine: unknown action kind %d", a.Kind)
		}
	}
	return nil
}
