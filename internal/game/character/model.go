// Package character defines the character domain model and the readiness
// rules that gate participation in a fight.
package character

import (
	"math"

	"github.com/cory-johannsen/rolling/internal/game/stuff"
)

const (
	// BaseSkillValue is the value of a skill the character never trained.
	BaseSkillValue = 1.0
	// BaseSkillCounter is the training counter matching BaseSkillValue.
	BaseSkillCounter = 4.0
	// SkillLogBase converts a training counter into a skill value.
	SkillLogBase = 4.0

	// SkillStrength feeds the force multiplier of an attacker.
	SkillStrength = "strength"
	// SkillAgility drives evasion.
	SkillAgility = "agility"
)

// WorldCoord locates a zone on the world map.
type WorldCoord struct {
	Row int
	Col int
}

// ZoneCoord locates a tile inside a zone.
type ZoneCoord struct {
	Row int
	Col int
}

// Skill is a trained ability. Value is derived from Counter each time the
// integer part of Counter changes.
type Skill struct {
	Value   float64
	Counter float64
}

// Character is the persistent state of a playable character as seen by the
// fight subsystem.
//
// Invariant: LifePoints may go negative; a negative value marks a fighter
// killed during the current round.
type Character struct {
	ID    string
	Name  string
	Alive bool

	World WorldCoord
	Zone  ZoneCoord

	LifePoints   float64
	ActionPoints float64
	Tiredness    float64

	Weapon *stuff.Stuff
	Shield *stuff.Stuff
	Armor  *stuff.Stuff

	Skills map[string]Skill
}

// SkillValue returns the value of skill id, or BaseSkillValue when the
// character never trained it.
func (c *Character) SkillValue(id string) float64 {
	if s, ok := c.Skills[id]; ok {
		return s.Value
	}
	return BaseSkillValue
}

// GrowSkill adds increment to the training counter of skill id and
// recomputes its value when the counter crosses an integer boundary.
//
// Postcondition: c.Skills[id].Counter increased by increment.
func (c *Character) GrowSkill(id string, increment float64) Skill {
	if c.Skills == nil {
		c.Skills = make(map[string]Skill)
	}
	s, ok := c.Skills[id]
	if !ok {
		s = Skill{Value: BaseSkillValue, Counter: BaseSkillCounter}
	}
	s = s.Grow(increment)
	c.Skills[id] = s
	return s
}

// Grow returns s with increment applied to its counter.
func (s Skill) Grow(increment float64) Skill {
	before := math.Floor(s.Counter)
	s.Counter += increment
	if math.Floor(s.Counter) != before && s.Counter > 0 {
		s.Value = math.Log(s.Counter) / math.Log(SkillLogBase)
	}
	return s
}

// Clone returns a deep copy of c. Equipped stuff is copied by value.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := *c
	out.Weapon = c.Weapon.Clone()
	out.Shield = c.Shield.Clone()
	out.Armor = c.Armor.Clone()
	if c.Skills != nil {
		out.Skills = make(map[string]Skill, len(c.Skills))
		for k, v := range c.Skills {
			out.Skills[k] = v
		}
	}
	return &out
}

// IDs returns the ids of characters in order.
func IDs(characters []*Character) []string {
	ids := make([]string, 0, len(characters))
	for _, c := range characters {
		ids = append(ids, c.ID)
	}
	return ids
}
