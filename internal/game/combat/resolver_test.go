package combat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cory-johannsen/rolling/internal/game/affinity"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type world struct {
	store    *memory.Store
	resolver *combat.Resolver
}

func newWorld(affs ...*affinity.Affinity) *world {
	s := memory.NewStore()
	for _, a := range affs {
		s.PutAffinity(a)
	}
	return &world{
		store:    s,
		resolver: combat.NewResolver(s.Characters, s.Affinities, character.DefaultReadiness()),
	}
}

func (w *world) put(cs ...*character.Character) {
	for _, c := range cs {
		w.store.PutCharacter(c)
	}
}

func (w *world) join(characterID string, affinityID int64) {
	w.store.PutRelation(affinity.Relation{
		CharacterID: characterID, AffinityID: affinityID,
		Accepted: true, Fighter: true, Status: affinity.StatusMember,
	})
}

var (
	france  = &affinity.Affinity{ID: 1, Name: "France"}
	england = &affinity.Affinity{ID: 2, Name: "England"}
	spain   = &affinity.Affinity{ID: 3, Name: "Spain"}
)

func ids(cs []*character.Character) []string { return character.IDs(cs) }

func TestDefenseDescription_LoneTarget(t *testing.T) {
	w := newWorld()
	target := fighter("t")
	w.put(target)

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, ids(d.AllFighters))
	assert.Equal(t, []string{"t"}, ids(d.ReadyFighters))
	assert.Empty(t, d.Affinities)
	assert.Empty(t, d.Helpers)
}

func TestDefenseDescription_DirectMembersPresentOnly(t *testing.T) {
	w := newWorld(france)
	target, mate, away, dead := fighter("t"), fighter("mate"), fighter("away"), fighter("dead")
	away.World = character.WorldCoord{Row: 9, Col: 9}
	dead.Alive = false
	w.put(target, mate, away, dead)
	for _, id := range []string{"t", "mate", "away", "dead"} {
		w.join(id, france.ID)
	}

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t", "mate"}, ids(d.AllFighters))
	assert.Equal(t, []string{"France"}, affinity.Names(d.Affinities))
}

func TestDefenseDescription_NonFighterRelationIgnored(t *testing.T) {
	w := newWorld(france)
	target, mate := fighter("t"), fighter("mate")
	w.put(target, mate)
	w.store.PutRelation(affinity.Relation{CharacterID: "t", AffinityID: france.ID, Accepted: true})
	w.join("mate", france.ID)

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, ids(d.AllFighters))
}

func TestDefenseDescription_Transitive(t *testing.T) {
	// t fights for France; b fights for France and England; c fights for England only.
	w := newWorld(france, england)
	target, b, c := fighter("t"), fighter("b"), fighter("c")
	w.put(target, b, c)
	w.join("t", france.ID)
	w.join("b", france.ID)
	w.join("b", england.ID)
	w.join("c", england.ID)

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t", "b", "c"}, ids(d.AllFighters))
	assert.Equal(t, []string{"France", "England"}, affinity.Names(d.Affinities))
	require.Contains(t, d.Helpers, "c")
	assert.Equal(t, []string{"England"}, affinity.Names(d.Helpers["c"]))
	assert.NotContains(t, d.Helpers, "t")
}

func TestDefenseDescription_AttackerAffinityNotTagged(t *testing.T) {
	w := newWorld(france, england)
	target, b := fighter("t"), fighter("b")
	w.put(target, b)
	w.join("t", france.ID)
	w.join("b", france.ID)
	w.join("b", england.ID)

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, england)
	require.NoError(t, err)
	assert.Equal(t, []string{"France"}, affinity.Names(d.Helpers["b"]))
}

func TestDefenseDescription_CycleTerminates(t *testing.T) {
	w := newWorld(france, england, spain)
	target, a, b := fighter("t"), fighter("a"), fighter("b")
	w.put(target, a, b)
	w.join("t", france.ID)
	w.join("a", france.ID)
	w.join("a", england.ID)
	w.join("b", england.ID)
	w.join("b", spain.ID)
	w.join("t", spain.ID)

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t", "a", "b"}, ids(d.AllFighters))
	assert.Len(t, d.Affinities, 3)
}

func TestDefenseDescription_ReadyUsesDefendReadiness(t *testing.T) {
	w := newWorld(france)
	target, tired, broke := fighter("t"), fighter("tired"), fighter("broke")
	tired.Tiredness = 100
	broke.ActionPoints = 0
	w.put(target, tired, broke)
	for _, id := range []string{"t", "tired", "broke"} {
		w.join(id, france.ID)
	}

	d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t", "broke"}, ids(d.ReadyFighters))
}

func TestAttackDescription(t *testing.T) {
	w := newWorld(france, england)
	target, a1, a2, tired, away := fighter("t"), fighter("a1"), fighter("a2"), fighter("tired"), fighter("away")
	tired.Tiredness = 100
	away.World = character.WorldCoord{Row: 8}
	w.put(target, a1, a2, tired, away)
	w.join("t", england.ID)
	for _, id := range []string{"a1", "a2", "tired", "away"} {
		w.join(id, france.ID)
	}
	ctx := context.Background()

	defense, err := w.resolver.DefenseDescription(ctx, target, here, france)
	require.NoError(t, err)
	attack, err := w.resolver.AttackDescription(ctx, defense, france, here)
	require.NoError(t, err)

	assert.Equal(t, france, attack.Affinity)
	assert.Equal(t, []string{"a1", "a2", "tired"}, ids(attack.AllFighters))
	assert.Equal(t, []string{"a1", "a2"}, ids(attack.ReadyFighters))

	n, err := w.resolver.CountReady(ctx, france.ID, here)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAttackDescription_DefendersNeverReady(t *testing.T) {
	w := newWorld(france)
	a1, a2 := fighter("a1"), fighter("a2")
	w.put(a1, a2)
	w.join("a1", france.ID)
	w.join("a2", france.ID)
	defense := combat.DefendDescription{AllFighters: []*character.Character{fighter("t"), a2}}

	attack, err := w.resolver.AttackDescription(context.Background(), defense, france, here)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(attack.AllFighters))
	assert.Equal(t, []string{"a1"}, ids(attack.ReadyFighters))
}

func TestReduceConflicts(t *testing.T) {
	a, b, c := fighter("a"), fighter("b"), fighter("c")
	defense := combat.DefendDescription{
		Affinities:    []*affinity.Affinity{france, england},
		AllFighters:   []*character.Character{a, b, c},
		ReadyFighters: []*character.Character{a, c},
		Helpers:       map[string][]*affinity.Affinity{"c": {england}},
	}
	attack := combat.AttackDescription{Affinity: france, AllFighters: []*character.Character{c}}

	reduced := combat.ReduceConflicts(attack, defense)
	assert.Equal(t, []string{"a", "b"}, ids(reduced.AllFighters))
	assert.Equal(t, []string{"a"}, ids(reduced.ReadyFighters))
	assert.Equal(t, []string{"England"}, affinity.Names(reduced.Affinities))
	assert.Contains(t, reduced.Helpers, "c")

	// the input is untouched
	assert.Len(t, defense.AllFighters, 3)
	assert.Len(t, defense.Affinities, 2)
}

func TestSide_IsSealedUnion(t *testing.T) {
	sides := []combat.Side{
		combat.LoneAttack(fighter("a")),
		combat.DefendDescription{AllFighters: []*character.Character{fighter("d")}},
	}
	assert.True(t, sides[0].Has("a"))
	assert.False(t, sides[0].Has("d"))
	assert.True(t, sides[1].Has("d"))
}

func TestDefenseDescription_Invariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nChars := rapid.IntRange(1, 8).Draw(rt, "characters")
		nAffs := rapid.IntRange(1, 4).Draw(rt, "affinities")
		var affs []*affinity.Affinity
		for i := 1; i <= nAffs; i++ {
			affs = append(affs, &affinity.Affinity{ID: int64(i), Name: fmt.Sprintf("aff%d", i)})
		}
		w := newWorld(affs...)
		for i := 0; i < nChars; i++ {
			c := fighter(fmt.Sprintf("c%d", i))
			c.Tiredness = rapid.Float64Range(0, 100).Draw(rt, "tiredness")
			c.LifePoints = rapid.Float64Range(0, 10).Draw(rt, "life")
			if rapid.Bool().Draw(rt, "away") {
				c.World = character.WorldCoord{Row: 99}
			}
			w.put(c)
			for _, a := range affs {
				if rapid.Bool().Draw(rt, "member") {
					w.join(c.ID, a.ID)
				}
			}
		}
		target, err := w.store.Characters.Get(context.Background(), "c0")
		require.NoError(rt, err)

		d, err := w.resolver.DefenseDescription(context.Background(), target, here, nil)
		require.NoError(rt, err)

		all := ids(d.AllFighters)
		seen := map[string]bool{}
		for _, id := range all {
			assert.False(rt, seen[id], "duplicate fighter %s", id)
			seen[id] = true
		}
		assert.True(rt, seen["c0"], "target always defends")
		for _, id := range ids(d.ReadyFighters) {
			assert.True(rt, seen[id], "ready fighter %s not in all fighters", id)
		}
		for id := range d.Helpers {
			assert.True(rt, seen[id], "helper %s not in all fighters", id)
		}
	})
}
