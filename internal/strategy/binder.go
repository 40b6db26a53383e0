package strategy

import (
	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/beliefs"
	"github.com/talgya/nestshare/internal/foraging"
)

// Binder maps birds to kind-matched strategy instances. It is created once
// and lives for the whole run; bindings are refreshed before daily
// decisions but a bird is only re-bound if its kind changed. Kinds are
// fixed in practice.
type Binder struct {
	beliefs *beliefs.System
	model   *foraging.Model
	params  Params

	byBird map[agents.BirdID]Strategy
	kinds  map[agents.BirdID]agents.Kind
}

// NewBinder creates a binder around the shared belief system and foraging
// model.
func NewBinder(b *beliefs.System, m *foraging.Model, p Params) *Binder {
	return &Binder{
		beliefs: b,
		model:   m,
		params:  p,
		byBird:  make(map[agents.BirdID]Strategy),
		kinds:   make(map[agents.BirdID]agents.Kind),
	}
}

// Bind returns the strategy for a bird, instantiating or replacing it only
// when the bird has no binding yet or its kind changed.
func (b *Binder) Bind(bird *agents.Bird) Strategy {
	if s, ok := b.byBird[bird.ID]; ok && b.kinds[bird.ID] == bird.Kind {
		return s
	}

	var s Strategy
	switch bird.Kind {
	case agents.KindFemale:
		s = NewFemaleStrategy(b.beliefs, b.model, b.params)
	default:
		s = NewMaleStrategy(b.beliefs, b.model, b.params)
	}
	b.byBird[bird.ID] = s
	b.kinds[bird.ID] = bird.Kind
	return s
}

// BindAll refreshes bindings for every bird in the list.
func (b *Binder) BindAll(birds []*agents.Bird) {
	for _, bird := range birds {
		b.Bind(bird)
	}
}

// StrategyFor returns the bound strategy for a bird ID, if any.
func (b *Binder) StrategyFor(id agents.BirdID) (Strategy, bool) {
	s, ok := b.byBird[id]
	return s, ok
}
