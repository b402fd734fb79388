package combat_test

import (
	"fmt"
	"testing"

	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func parties(nAttack, nDefend int) (combat.AttackDescription, combat.DefendDescription) {
	var attackers, defenders []*character.Character
	for i := 0; i < nAttack; i++ {
		attackers = append(attackers, fighter(fmt.Sprintf("a%d", i)))
	}
	for i := 0; i < nDefend; i++ {
		defenders = append(defenders, fighter(fmt.Sprintf("d%d", i)))
	}
	return combat.AttackDescription{AllFighters: attackers, ReadyFighters: attackers},
		combat.DefendDescription{AllFighters: defenders, ReadyFighters: defenders}
}

func TestGroups_OneToOne(t *testing.T) {
	attack, defense := parties(2, 2)
	groups := combat.Groups(attack, defense, &scriptedSource{ints: []int{1, 0}})
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a0", "d1"}, ids(groups[0]))
	assert.Equal(t, []string{"a1", "d0"}, ids(groups[1]))
}

func TestGroups_ArmyVersusOne(t *testing.T) {
	attack, defense := parties(6, 1)
	groups := combat.Groups(attack, defense, &scriptedSource{})
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a0", "d0", "a1", "a2", "a3", "a4", "a5"}, ids(groups[0]))
}

func TestGroups_MoreDefenders(t *testing.T) {
	attack, defense := parties(1, 3)
	groups := combat.Groups(attack, defense, &scriptedSource{})
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"a0", "d0", "d1", "d2"}, ids(groups[0]))
}

func TestGroups_EmptyParty(t *testing.T) {
	attack, defense := parties(0, 3)
	assert.Nil(t, combat.Groups(attack, defense, &scriptedSource{}))
	attack, defense = parties(3, 0)
	assert.Nil(t, combat.Groups(attack, defense, &scriptedSource{}))
}

func TestGroups_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nAttack := rapid.IntRange(1, 10).Draw(rt, "attackers")
		nDefend := rapid.IntRange(1, 10).Draw(rt, "defenders")
		seed := rapid.Int64().Draw(rt, "seed")
		attack, defense := parties(nAttack, nDefend)

		groups := combat.Groups(attack, defense, dice.NewSeededSource(seed))

		assert.Len(rt, groups, min(nAttack, nDefend))
		seen := map[string]int{}
		for _, g := range groups {
			var a, d int
			for _, f := range g {
				seen[f.ID]++
				if attack.Has(f.ID) {
					a++
				} else {
					d++
				}
			}
			assert.GreaterOrEqual(rt, a, 1)
			assert.GreaterOrEqual(rt, d, 1)
		}
		assert.Len(rt, seen, nAttack+nDefend)
		for id, n := range seen {
			assert.Equal(rt, 1, n, "fighter %s grouped %d times", id, n)
		}
	})
}
