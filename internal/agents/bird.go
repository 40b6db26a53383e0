// Package agents provides the bird data model: the female/male tagged
// variant and the nests they contend over. Birds hold state only; all
// decision logic lives in the strategy package.
package agents

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/nestshare/internal/world"
)

// BirdID is a unique identifier for a bird.
type BirdID uint64

// NestID is a unique identifier for a nest.
type NestID uint64

// Kind tags a bird as female or male.
type Kind uint8

const (
	KindFemale Kind = iota
	KindMale
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	if k == KindFemale {
		return "female"
	}
	return "male"
}

// Role is a male's pairing status at a nest. "No role" is represented by
// absence from the role map, never by a stored value.
type Role string

const (
	RoleAlpha Role = "alpha" // primary paternity
	RoleBeta  Role = "beta"  // subordinate paternity
)

// Valid reports whether r is an accepted role value.
func (r Role) Valid() bool {
	return r == RoleAlpha || r == RoleBeta
}

// ErrInvalidRole is returned when assigning a role outside {alpha, beta}.
var ErrInvalidRole = errors.New("agents: role must be alpha or beta")

// Bird is an individual agent. The Kind tag determines which of the
// nest-ownership (female) or nest-role (male) maps is live.
type Bird struct {
	ID       BirdID
	Kind     Kind
	Position world.Cell

	// SearchShare is the fraction of daily effort spent searching, set by
	// the strategy layer each day.
	SearchShare float64

	// Female state: nests she owns (one female per nest, possibly several
	// nests per female) and a resident-male consistency counter.
	ownedNests map[NestID]struct{}
	maleCount  int

	// Male state: nest → role. A missing key means unpaired at that nest.
	nestRoles map[NestID]Role
}

// NewFemale creates a female bird at the given position.
func NewFemale(id BirdID, pos world.Cell) *Bird {
	return &Bird{
		ID:         id,
		Kind:       KindFemale,
		Position:   pos,
		ownedNests: make(map[NestID]struct{}),
	}
}

// NewMale creates a male bird at the given position.
func NewMale(id BirdID, pos world.Cell) *Bird {
	return &Bird{
		ID:        id,
		Kind:      KindMale,
		Position:  pos,
		nestRoles: make(map[NestID]Role),
	}
}

// MoveTo updates the bird's position.
func (b *Bird) MoveTo(pos world.Cell) {
	b.Position = pos
}

// OwnNest records nest ownership on a female.
func (b *Bird) OwnNest(id NestID) {
	if b.ownedNests == nil {
		b.ownedNests = make(map[NestID]struct{})
	}
	b.ownedNests[id] = struct{}{}
}

// OwnsNest reports whether the female owns the given nest.
func (b *Bird) OwnsNest(id NestID) bool {
	_, ok := b.ownedNests[id]
	return ok
}

// OwnedNests returns the female's nest IDs in ascending order.
func (b *Bird) OwnedNests() []NestID {
	ids := make([]NestID, 0, len(b.ownedNests))
	for id := range b.ownedNests {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaleCount returns the female's resident-male counter.
func (b *Bird) MaleCount() int {
	return b.maleCount
}

// AddResidentMale increments the female's resident-male counter.
func (b *Bird) AddResidentMale() {
	b.maleCount++
}

// RemoveResidentMale decrements the female's resident-male counter.
func (b *Bird) RemoveResidentMale() {
	if b.maleCount > 0 {
		b.maleCount--
	}
}

// NestRole returns the male's role at a nest, if any.
func (b *Bird) NestRole(id NestID) (Role, bool) {
	r, ok := b.nestRoles[id]
	return r, ok
}

// AssignedNests returns the nests where the male holds a role, in
// ascending order.
func (b *Bird) AssignedNests() []NestID {
	ids := make([]NestID, 0, len(b.nestRoles))
	for id := range b.nestRoles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AssignRole pairs the male to a nest with the given role. Rejects any
// value outside {alpha, beta} rather than coercing it.
func (b *Bird) AssignRole(nest NestID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidRole, role)
	}
	if b.nestRoles == nil {
		b.nestRoles = make(map[NestID]Role)
	}
	b.nestRoles[nest] = role
	return nil
}

// UnassignNest removes the male from a nest. The key is deleted entirely;
// no "none" entries are left behind.
func (b *Bird) UnassignNest(nest NestID) {
	delete(b.nestRoles, nest)
}

// UnassignAll removes the male from every nest.
func (b *Bird) UnassignAll() {
	clear(b.nestRoles)
}

// Paired reports whether the male currently holds any nest role.
func (b *Bird) Paired() bool {
	return len(b.nestRoles) > 0
}

// Roles returns a copy of the male's nest→role map.
func (b *Bird) Roles() map[NestID]Role {
	out := make(map[NestID]Role, len(b.nestRoles))
	for id, r := range b.nestRoles {
		out[id] = r
	}
	return out
}

