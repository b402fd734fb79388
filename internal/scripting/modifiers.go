package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
)

// Hook names looked up in the fight scripts.
const (
	HookForceMultiplier   = "force_multiplier"
	HookWeaponCoefficient = "weapon_coefficient"
)

// Modifiers computes the damage factors with the fight script hooks,
// falling back to another Modifiers when a hook is missing, fails or
// returns a negative value.
type Modifiers struct {
	manager  *Manager
	catalog  *stuff.Catalog
	fallback combat.Modifiers
}

// NewModifiers creates script backed Modifiers. catalog resolves the bonus
// skills handed to weapon_coefficient and may be nil.
//
// Precondition: manager and fallback must be non-nil.
func NewModifiers(manager *Manager, catalog *stuff.Catalog, fallback combat.Modifiers) *Modifiers {
	return &Modifiers{manager: manager, catalog: catalog, fallback: fallback}
}

// ForceMultiplier calls force_multiplier(fighter).
func (m *Modifiers) ForceMultiplier(c *character.Character) float64 {
	v, ok := m.manager.CallNumber(HookForceMultiplier, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{fighterTable(L, c)}
	})
	if !ok || !m.accept(HookForceMultiplier, v) {
		return m.fallback.ForceMultiplier(c)
	}
	return v
}

// WeaponCoefficient calls weapon_coefficient(fighter, weapon).
func (m *Modifiers) WeaponCoefficient(c *character.Character, w combat.Weapon) float64 {
	v, ok := m.manager.CallNumber(HookWeaponCoefficient, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{fighterTable(L, c), weaponTable(L, w, m.catalog)}
	})
	if !ok || !m.accept(HookWeaponCoefficient, v) {
		return m.fallback.WeaponCoefficient(c, w)
	}
	return v
}

func (m *Modifiers) accept(hook string, v float64) bool {
	if v >= 0 {
		return true
	}
	m.manager.logger.Warn("scripting: negative modifier ignored",
		zap.String("hook", hook),
		zap.Float64("value", v),
	)
	return false
}

func fighterTable(L *lua.LState, c *character.Character) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(c.ID))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("life_points", lua.LNumber(c.LifePoints))
	t.RawSetString("action_points", lua.LNumber(c.ActionPoints))
	t.RawSetString("tiredness", lua.LNumber(c.Tiredness))
	skills := L.NewTable()
	for id, s := range c.Skills {
		skills.RawSetString(id, lua.LNumber(s.Value))
	}
	t.RawSetString("skills", skills)
	return t
}

func weaponTable(L *lua.LState, w combat.Weapon, catalog *stuff.Catalog) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(w.Name))
	t.RawSetString("damages", lua.LNumber(w.BaseDamage()))
	t.RawSetString("sharp", lua.LNumber(w.Sharp()))
	t.RawSetString("estoc", lua.LNumber(w.Estoc()))
	t.RawSetString("blunt", lua.LNumber(w.Blunt()))
	t.RawSetString("bare", lua.LBool(w.Stuff() == nil))
	bonus := L.NewTable()
	for _, id := range w.BonusSkills(catalog) {
		bonus.Append(lua.LString(id))
	}
	t.RawSetString("bonus_skills", bonus)
	return t
}
