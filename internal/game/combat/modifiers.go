package combat

import (
	"math"

	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
)

// Modifiers supplies the character-dependent factors of the damage formula.
type Modifiers interface {
	// ForceMultiplier scales every blow dealt by c.
	ForceMultiplier(c *character.Character) float64
	// WeaponCoefficient scales blows dealt by c with w.
	WeaponCoefficient(c *character.Character, w Weapon) float64
}

const (
	minimumModifier  = 0.5
	modifierPerLevel = 0.1
)

// DefaultModifiers derives the force multiplier from strength and the weapon
// coefficient from the skills the weapon trains.
type DefaultModifiers struct {
	Catalog *stuff.Catalog
}

// ForceMultiplier returns 1 + (strength-1)*0.1, floored at 0.5.
func (m DefaultModifiers) ForceMultiplier(c *character.Character) float64 {
	return scale(c.SkillValue(character.SkillStrength))
}

// WeaponCoefficient returns 1 + (mean bonus skill value-1)*0.1, floored at
// 0.5. Unarmed fighters and weapons training no skill get 1.
func (m DefaultModifiers) WeaponCoefficient(c *character.Character, w Weapon) float64 {
	skills := w.BonusSkills(m.Catalog)
	if len(skills) == 0 {
		return 1
	}
	var total float64
	for _, id := range skills {
		total += c.SkillValue(id)
	}
	return scale(total / float64(len(skills)))
}

func scale(skill float64) float64 {
	return math.Max(minimumModifier, 1+(skill-character.BaseSkillValue)*modifierPerLevel)
}
