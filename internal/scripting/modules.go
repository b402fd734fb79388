package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/character"
)

// RegisterModules registers the rolling.* helpers into L:
//
//	rolling.skill(fighter, id)   skill value of a fighter table, base value if untrained
//	rolling.clamp(x, low, high)  x bounded to [low, high]
//	rolling.log(message)         debug log line
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"skill": luaSkill,
		"clamp": luaClamp,
		"log": func(L *lua.LState) int {
			m.logger.Debug("fight script", zap.String("message", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("rolling", mod)
}

func luaSkill(L *lua.LState) int {
	fighter := L.CheckTable(1)
	id := L.CheckString(2)
	skills, ok := fighter.RawGetString("skills").(*lua.LTable)
	if !ok {
		L.Push(lua.LNumber(character.BaseSkillValue))
		return 1
	}
	v, ok := skills.RawGetString(id).(lua.LNumber)
	if !ok {
		L.Push(lua.LNumber(character.BaseSkillValue))
		return 1
	}
	L.Push(v)
	return 1
}

func luaClamp(L *lua.LState) int {
	x := L.CheckNumber(1)
	low := L.CheckNumber(2)
	high := L.CheckNumber(3)
	switch {
	case x < low:
		x = low
	case x > high:
		x = high
	}
	L.Push(x)
	return 1
}
