package combat

import (
	"context"
	"fmt"
	"sort"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
)

// CharacterReader is the character store port used to build fight parties.
type CharacterReader interface {
	// GetMultiple returns the characters with the given ids, in ids order.
	GetMultiple(ctx context.Context, ids []string) ([]*character.Character, error)
	// AliveIDsAt returns the subset of ids belonging to living characters
	// standing at coord.
	AliveIDsAt(ctx context.Context, ids []string, coord character.WorldCoord) ([]string, error)
}

// AffinityReader is the affinity store port used to build fight parties.
type AffinityReader interface {
	// Relations returns every relation of characterID.
	Relations(ctx context.Context, characterID string) ([]affinity.Relation, error)
	// FighterIDs returns the ids of the accepted fighters of affinityID.
	FighterIDs(ctx context.Context, affinityID int64) ([]string, error)
	// GetMultiple returns the affinities with the given ids.
	GetMultiple(ctx context.Context, ids []int64) ([]*affinity.Affinity, error)
}

// Resolver computes the parties of a fight from the alliance network of the
// characters present on a world tile.
type Resolver struct {
	characters CharacterReader
	affinities AffinityReader
	readiness  character.Readiness
}

// NewResolver creates a Resolver.
//
// Precondition: characters and affinities must be non-nil.
func NewResolver(characters CharacterReader, affinities AffinityReader, readiness character.Readiness) *Resolver {
	return &Resolver{characters: characters, affinities: affinities, readiness: readiness}
}

// DefenseDescription gathers every fighter obliged to defend target at coord.
//
// Starting from target, the fighter set is expanded with the present fighters
// of every affinity a member of the set fights for, until a full pass adds
// nobody. Fighters found during expansion passes are tagged as helpers of
// the recruiting affinity unless that affinity is attacker.
//
// Precondition: target must be non-nil. attacker may be nil.
// Postcondition: target is in AllFighters; ReadyFighters ⊆ AllFighters; ids are unique.
func (r *Resolver) DefenseDescription(
	ctx context.Context,
	target *character.Character,
	coord character.WorldCoord,
	attacker *affinity.Affinity,
) (DefendDescription, error) {
	fighters := newStringSet()
	affinityIDs := make(map[int64]struct{})
	helpers := make(map[string]map[int64]struct{})

	search := func(fighterID string, helping bool) error {
		relations, err := r.affinities.Relations(ctx, fighterID)
		if err != nil {
			return fmt.Errorf("relations of %s: %w", fighterID, err)
		}
		for _, rel := range relations {
			if !rel.IsFighter() {
				continue
			}
			members, err := r.affinities.FighterIDs(ctx, rel.AffinityID)
			if err != nil {
				return fmt.Errorf("fighters of affinity %d: %w", rel.AffinityID, err)
			}
			here, err := r.characters.AliveIDsAt(ctx, members, coord)
			if err != nil {
				return fmt.Errorf("fighters of affinity %d present: %w", rel.AffinityID, err)
			}
			if len(here) > 0 {
				affinityIDs[rel.AffinityID] = struct{}{}
			}
			fighters.add(here...)

			if !helping || (attacker != nil && rel.AffinityID == attacker.ID) {
				continue
			}
			for _, id := range here {
				if id == target.ID {
					continue
				}
				if helpers[id] == nil {
					helpers[id] = make(map[int64]struct{})
				}
				helpers[id][rel.AffinityID] = struct{}{}
			}
		}
		return nil
	}

	if err := search(target.ID, false); err != nil {
		return DefendDescription{}, err
	}
	for {
		before := fighters.len()
		for _, id := range fighters.sorted() {
			if err := search(id, true); err != nil {
				return DefendDescription{}, err
			}
		}
		// The set only grows, so equal size means equal set.
		if fighters.len() == before {
			break
		}
	}

	fighters.remove(target.ID)
	all, err := r.characters.GetMultiple(ctx, fighters.sorted())
	if err != nil {
		return DefendDescription{}, fmt.Errorf("defenders: %w", err)
	}
	all = append([]*character.Character{target}, all...)

	affs, err := r.affinities.GetMultiple(ctx, int64Keys(affinityIDs))
	if err != nil {
		return DefendDescription{}, fmt.Errorf("defending affinities: %w", err)
	}
	affinity.SortByID(affs)
	byID := make(map[int64]*affinity.Affinity, len(affs))
	for _, a := range affs {
		byID[a.ID] = a
	}

	tagged := make(map[string][]*affinity.Affinity, len(helpers))
	for fighterID, ids := range helpers {
		for _, id := range int64Keys(ids) {
			if a, ok := byID[id]; ok {
				tagged[fighterID] = append(tagged[fighterID], a)
			}
		}
	}

	return DefendDescription{
		Affinities:    affs,
		AllFighters:   all,
		ReadyFighters: filter(all, r.readiness.CanDefend),
		Helpers:       tagged,
	}, nil
}

// AttackDescription gathers the fighters of attacker present at coord.
// Fighters already part of defense are listed but never ready.
//
// Precondition: attacker must be non-nil.
func (r *Resolver) AttackDescription(
	ctx context.Context,
	defense DefendDescription,
	attacker *affinity.Affinity,
	coord character.WorldCoord,
) (AttackDescription, error) {
	members, err := r.affinities.FighterIDs(ctx, attacker.ID)
	if err != nil {
		return AttackDescription{}, fmt.Errorf("fighters of affinity %d: %w", attacker.ID, err)
	}
	here, err := r.characters.AliveIDsAt(ctx, members, coord)
	if err != nil {
		return AttackDescription{}, fmt.Errorf("fighters of affinity %d present: %w", attacker.ID, err)
	}
	sort.Strings(here)
	all, err := r.characters.GetMultiple(ctx, here)
	if err != nil {
		return AttackDescription{}, fmt.Errorf("attackers: %w", err)
	}
	return AttackDescription{
		Affinity:    attacker,
		AllFighters: all,
		ReadyFighters: filter(all, func(c *character.Character) bool {
			return r.readiness.CanAttack(c) && !defense.Has(c.ID)
		}),
	}, nil
}

// CountReady returns how many fighters of affinityID present at coord are
// able to attack.
func (r *Resolver) CountReady(ctx context.Context, affinityID int64, coord character.WorldCoord) (int, error) {
	members, err := r.affinities.FighterIDs(ctx, affinityID)
	if err != nil {
		return 0, fmt.Errorf("fighters of affinity %d: %w", affinityID, err)
	}
	here, err := r.characters.AliveIDsAt(ctx, members, coord)
	if err != nil {
		return 0, fmt.Errorf("fighters of affinity %d present: %w", affinityID, err)
	}
	all, err := r.characters.GetMultiple(ctx, here)
	if err != nil {
		return 0, err
	}
	return len(filter(all, r.readiness.CanAttack)), nil
}

func filter(in []*character.Character, keep func(*character.Character) bool) []*character.Character {
	out := make([]*character.Character, 0, len(in))
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

type stringSet map[string]struct{}

func newStringSet() stringSet { return make(stringSet) }

func (s stringSet) add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s stringSet) remove(id string) { delete(s, id) }

func (s stringSet) len() int { return len(s) }

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func int64Keys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
