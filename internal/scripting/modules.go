package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/dice"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine.log, engine.dice, engine.entity and engine.world are defined.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "entity", m.entityModule(L))
	L.SetField(engine, "world", m.worldModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logf := range levels {
		logf := logf
		L.SetField(t, name, L.NewFunction(func(L *lua.LState) int {
			logf(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return t
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		res := dice.Roll(expr, m.rng)
		out := L.NewTable()
		rolled := L.NewTable()
		for _, d := range res.Dice {
			rolled.Append(lua.LNumber(d))
		}
		out.RawSetString("dice", rolled)
		out.RawSetString("modifier", lua.LNumber(res.Modifier))
		out.RawSetString("total", lua.LNumber(res.Total()))
		L.Push(out)
		return 1
	}))
	L.SetField(t, "percent", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.rng.Percent()))
		return 1
	}))
	L.SetField(t, "range", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.rng.Range(L.CheckInt(1), L.CheckInt(2))))
		return 1
	}))
	return t
}

func (m *Manager) entityModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "get", L.NewFunction(func(L *lua.LState) int {
		uid := L.CheckString(1)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		info, ok := m.GetCombatant(uid)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(CombatantToTable(L, info))
		return 1
	}))
	L.SetField(t, "heal", L.NewFunction(func(L *lua.LState) int {
		uid, hp := L.CheckString(1), L.CheckInt(2)
		if m.Heal == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LBool(m.Heal(uid, hp)))
		return 1
	}))
	return t
}

func (m *Manager) worldModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "broadcast", L.NewFunction(func(L *lua.LState) int {
		room, msg := L.CheckString(1), L.CheckString(2)
		if m.Broadcast != nil {
			m.Broadcast(room, msg)
		}
		return 0
	}))
	L.SetField(t, "tell", L.NewFunction(func(L *lua.LState) int {
		uid, msg := L.CheckString(1), L.CheckString(2)
		if m.Tell != nil {
			m.Tell(uid, msg)
		}
		return 0
	}))
	return t
}

// CombatantToTable converts info into a Lua table with uid, name, kind,
// level, hp, max_hp, position, room and fighting fields.
func CombatantToTable(L *lua.LState, info *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("uid", lua.LString(info.UID))
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("kind", lua.LString(info.Kind))
	t.RawSetString("level", lua.LNumber(info.Level))
	t.RawSetString("hp", lua.LNumber(info.HP))
	t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
	t.RawSetString("position", lua.LString(info.Position))
	t.RawSetString("room", lua.LString(info.Room))
	t.RawSetString("fighting", lua.LString(info.Fighting))
	return t
}
