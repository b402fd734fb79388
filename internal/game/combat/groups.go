package combat

import (
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/dice"
)

// Groups partitions the ready fighters of both parties into groups that
// fight each other this round.
//
// Each ready attacker, in order, takes a random free ready defender and opens
// a group. Attackers left without a free defender join the group of a random
// ready defender. Defenders left free join a random group.
//
// Postcondition: every ready fighter belongs to exactly one group and every
// group holds at least one attacker and one defender. Returns nil when either
// party has no ready fighter.
func Groups(attack AttackDescription, defense DefendDescription, src dice.Source) [][]*character.Character {
	if len(attack.ReadyFighters) == 0 || len(defense.ReadyFighters) == 0 {
		return nil
	}

	available := append([]*character.Character(nil), defense.ReadyFighters...)
	var groups [][]*character.Character
	var unmatched []*character.Character

	for _, attacker := range attack.ReadyFighters {
		if len(available) == 0 {
			unmatched = append(unmatched, attacker)
			continue
		}
		i := src.Intn(len(available))
		defender := available[i]
		available = append(available[:i], available[i+1:]...)
		groups = append(groups, []*character.Character{attacker, defender})
	}

	for _, attacker := range unmatched {
		defender := defense.ReadyFighters[src.Intn(len(defense.ReadyFighters))]
		g := groupOf(groups, defender.ID)
		groups[g] = append(groups[g], attacker)
	}

	for _, defender := range available {
		g := src.Intn(len(groups))
		groups[g] = append(groups[g], defender)
	}

	return groups
}

func groupOf(groups [][]*character.Character, id string) int {
	for i, g := range groups {
		if contains(g, id) {
			return i
		}
	}
	// Unreachable while there are more attackers than defenders: every
	// ready defender opened a group.
	panic("combat: defender " + id + " has no group")
}
