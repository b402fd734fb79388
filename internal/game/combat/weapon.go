package combat

import (
	"github.com/cory-johannsen/rolling/internal/game/dice"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
)

const (
	// DefaultWeaponDamage is both the unarmed base damage and the floor
	// applied to any weapon's base damage.
	DefaultWeaponDamage = 0.5
	// BareHandsName names the weapon of an unarmed fighter.
	BareHandsName = "Main nue"
	// BareSkinName names the armor of an unprotected fighter.
	BareSkinName = "Peau nue"

	absorbTolerancePercent = 20
)

// Band classifies a value against a reference with a percentage tolerance.
type Band int

const (
	// Less means clearly below the reference.
	Less Band = iota
	// In means within the tolerance around the reference.
	In
	// More means clearly above the reference.
	More
)

func (b Band) String() string {
	switch b {
	case Less:
		return "LESS"
	case In:
		return "IN"
	case More:
		return "MORE"
	}
	return "UNKNOWN"
}

// InPercent classifies number against reference ± percent%.
//
// Postcondition: returns Less iff number < reference*(1-percent/100), More
// iff number > reference*(1+percent/100), In otherwise.
func InPercent(reference, number float64, percent int) Band {
	delta := reference * float64(percent) / 100
	switch {
	case number < reference-delta:
		return Less
	case number > reference+delta:
		return More
	default:
		return In
	}
}

// Weapon is a read-only view over an optional equipped item used as a
// weapon, a shield or an armor.
type Weapon struct {
	Name  string
	stuff *stuff.Stuff
}

// BareHands returns the weapon of an unarmed fighter.
func BareHands() Weapon {
	return Weapon{Name: BareHandsName}
}

// BareSkin returns the armor of an unprotected fighter.
func BareSkin() Weapon {
	return Weapon{Name: BareSkinName}
}

// WeaponOf wraps s, falling back to BareHands when s is nil.
func WeaponOf(s *stuff.Stuff) Weapon {
	if s == nil {
		return BareHands()
	}
	return Weapon{Name: s.Name, stuff: s}
}

// ArmorOf wraps s, falling back to BareSkin when s is nil.
func ArmorOf(s *stuff.Stuff) Weapon {
	if s == nil {
		return BareSkin()
	}
	return Weapon{Name: s.Name, stuff: s}
}

// Stuff returns the wrapped item, nil when unarmed.
func (w Weapon) Stuff() *stuff.Stuff { return w.stuff }

func (w Weapon) BaseDamage() float64 {
	if w.stuff != nil {
		return w.stuff.Damages
	}
	return DefaultWeaponDamage
}

func (w Weapon) Sharp() int {
	if w.stuff != nil {
		return w.stuff.Sharp
	}
	return 0
}

func (w Weapon) Estoc() int {
	if w.stuff != nil {
		return w.stuff.Estoc
	}
	return 0
}

func (w Weapon) Blunt() int {
	if w.stuff != nil {
		return w.stuff.Blunt
	}
	return 1
}

func (w Weapon) ProtectSharp() int {
	if w.stuff != nil {
		return w.stuff.ProtectSharp
	}
	return 0
}

func (w Weapon) ProtectEstoc() int {
	if w.stuff != nil {
		return w.stuff.ProtectEstoc
	}
	return 0
}

func (w Weapon) ProtectBlunt() int {
	if w.stuff != nil {
		return w.stuff.ProtectBlunt
	}
	return 0
}

// BonusSkills returns the skills trained by fighting with w. Empty when
// unarmed or when the item kind is not in catalog.
func (w Weapon) BonusSkills(catalog *stuff.Catalog) []string {
	if w.stuff == nil {
		return nil
	}
	p, ok := catalog.Properties(w.stuff.PropertiesID)
	if !ok {
		return nil
	}
	return p.SkillsBonus
}

// Bands classifies each offensive stat of attacker against the matching
// protection of w, in estoc, blunt, sharp order.
func (w Weapon) Bands(attacker Weapon) [3]Band {
	return [3]Band{
		InPercent(float64(w.ProtectEstoc()), float64(attacker.Estoc()), absorbTolerancePercent),
		InPercent(float64(w.ProtectBlunt()), float64(attacker.Blunt()), absorbTolerancePercent),
		InPercent(float64(w.ProtectSharp()), float64(attacker.Sharp()), absorbTolerancePercent),
	}
}

// HowMuchAbsorb returns the part of damage dealt with attacker that gets
// through w.
//
// Postcondition: damage when any attacker stat is clearly above the matching
// protection; otherwise a uniform fraction in [0, 0.99] of damage when any
// stat is within tolerance; otherwise 0.
func (w Weapon) HowMuchAbsorb(attacker Weapon, damage float64, src dice.Source) float64 {
	bands := w.Bands(attacker)
	for _, b := range bands {
		if b == More {
			return damage
		}
	}
	for _, b := range bands {
		if b == In {
			return damage * float64(src.Intn(100)) / 100
		}
	}
	return 0
}
