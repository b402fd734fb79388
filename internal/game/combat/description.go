// Package combat resolves fights between characters: it gathers the fighters
// bound to defend a target, pairs them with the attackers and plays one
// round of exchanges.
package combat

import (
	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
)

// Side is one party of a fight. It is implemented by AttackDescription and
// DefendDescription only.
type Side interface {
	Fighters() []*character.Character
	Ready() []*character.Character
	Has(characterID string) bool
	side()
}

// AttackDescription is the attacking party of a fight.
//
// Invariant: ReadyFighters ⊆ AllFighters and ids are unique in AllFighters.
type AttackDescription struct {
	// Affinity is nil for a character attacking alone.
	Affinity      *affinity.Affinity
	AllFighters   []*character.Character
	ReadyFighters []*character.Character
}

// LoneAttack builds the party of a character attacking alone.
func LoneAttack(attacker *character.Character) AttackDescription {
	return AttackDescription{
		AllFighters:   []*character.Character{attacker},
		ReadyFighters: []*character.Character{attacker},
	}
}

func (a AttackDescription) Fighters() []*character.Character { return a.AllFighters }
func (a AttackDescription) Ready() []*character.Character { return a.ReadyFighters }
func (a AttackDescription) Has(id string) bool { return contains(a.AllFighters, id) }
func (AttackDescription) side() {}

// DefendDescription is the party bound to defend a target.
//
// Invariant: ReadyFighters ⊆ AllFighters and ids are unique in AllFighters.
type DefendDescription struct {
	Affinities    []*affinity.Affinity
	AllFighters   []*character.Character
	ReadyFighters []*character.Character
	// Helpers maps a fighter id to the affinities that pulled it in while
	// expanding the alliance network.
	Helpers map[string][]*affinity.Affinity
}

func (d DefendDescription) Fighters() []*character.Character { return d.AllFighters }
func (d DefendDescription) Ready() []*character.Character { return d.ReadyFighters }
func (d DefendDescription) Has(id string) bool { return contains(d.AllFighters, id) }
func (DefendDescription) side() {}

// WithoutFighters returns a copy of d without the fighters whose id is in
// ids. Helpers are kept.
func (d DefendDescription) WithoutFighters(ids []string) DefendDescription {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	keep := func(in []*character.Character) []*character.Character {
		out := make([]*character.Character, 0, len(in))
		for _, c := range in {
			if _, ok := drop[c.ID]; !ok {
				out = append(out, c)
			}
		}
		return out
	}
	return DefendDescription{
		Affinities:    append([]*affinity.Affinity(nil), d.Affinities...),
		AllFighters:   keep(d.AllFighters),
		ReadyFighters: keep(d.ReadyFighters),
		Helpers:       copyHelpers(d.Helpers),
	}
}

// WithoutAffinities returns a copy of d without the affinities whose id is
// in ids.
func (d DefendDescription) WithoutAffinities(ids []int64) DefendDescription {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	affs := make([]*affinity.Affinity, 0, len(d.Affinities))
	for _, a := range d.Affinities {
		if _, ok := drop[a.ID]; !ok {
			affs = append(affs, a)
		}
	}
	return DefendDescription{
		Affinities:    affs,
		AllFighters:   append([]*character.Character(nil), d.AllFighters...),
		ReadyFighters: append([]*character.Character(nil), d.ReadyFighters...),
		Helpers:       copyHelpers(d.Helpers),
	}
}

// ReduceConflicts removes the attacking fighters and the attacking affinity
// from defense.
//
// Postcondition: no fighter of attack appears in the result's AllFighters and
// the attacking affinity is absent from the result's Affinities.
func ReduceConflicts(attack AttackDescription, defense DefendDescription) DefendDescription {
	out := defense.WithoutFighters(character.IDs(attack.AllFighters))
	if attack.Affinity != nil {
		out = out.WithoutAffinities([]int64{attack.Affinity.ID})
	}
	return out
}

func contains(fighters []*character.Character, id string) bool {
	for _, f := range fighters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func copyHelpers(in map[string][]*affinity.Affinity) map[string][]*affinity.Affinity {
	out := make(map[string][]*affinity.Affinity, len(in))
	for k, v := range in {
		out[k] = append([]*affinity.Affinity(nil), v...)
	}
	return out
}
