package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/dice"
)

// globalZoneID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no zone VM is found.
const globalZoneID = "__global__"

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	UID      string
	Name     string
	Kind     string
	Level    int
	HP       int
	MaxHP    int
	Position string
	Room     string
	Fighting string
}

// vm is one zone's Lua state. An LState is single-threaded, so every use
// holds mu.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per zone and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same zone are
// serialised; different zones run concurrently.
type Manager struct {
	mu     sync.RWMutex
	zones  map[string]*vm
	rng    dice.RNG
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant func(uid string) (*CombatantInfo, bool)
	Heal         func(uid string, hp int) bool
	Tell         func(uid, msg string)
	Broadcast    func(roomID, msg string)
}

// NewManager creates a Manager.
//
// Precondition: rng and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty zone map.
func NewManager(rng dice.RNG, logger *zap.Logger) *Manager {
	if rng == nil || logger == nil {
		panic("scripting.NewManager: rng and logger must be non-nil")
	}
	return &Manager{
		zones:  make(map[string]*vm),
		rng:    rng,
		logger: logger,
	}
}

// LoadZone creates a sandboxed VM for zoneID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: zoneID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Zone VM is registered; returns error on Lua load failure.
func (m *Manager) LoadZone(zoneID, scriptDir string, instLimit int) error {
	return m.loadInto(zoneID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared scripts reachable as a
// CallHook fallback from any zone.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalZoneID, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range luaFiles {
		cancel := setBudget(L, instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.zones[key]
	m.zones[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Info("scripts loaded", zap.String("zone", key), zap.Int("files", len(luaFiles)))
	return nil
}

// HasHook reports whether hook is defined in zoneID's VM or the global VM.
func (m *Manager) HasHook(zoneID, hook string) bool {
	z := m.zone(zoneID)
	if z == nil {
		return false
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.L.GetGlobal(hook) != lua.LNil
}

func (m *Manager) zone(zoneID string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if z, ok := m.zones[zoneID]; ok {
		return z
	}
	return m.zones[globalZoneID]
}

// CallHook calls the named Lua global function in zoneID's VM. If the zone has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(zoneID, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallCombatHook calls hook with self and other as tables and arg as a
// number. A nil other is passed as nil.
func (m *Manager) CallCombatHook(zoneID, hook string, self, other *CombatantInfo, arg int) (lua.LValue, error) {
	return m.call(zoneID, hook, func(L *lua.LState) []lua.LValue {
		var o lua.LValue = lua.LNil
		if other != nil {
			o = CombatantToTable(L, other)
		}
		return []lua.LValue{CombatantToTable(L, self), o, lua.LNumber(arg)}
	})
}

func (m *Manager) call(zoneID, hook string, args func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	z := m.zone(zoneID)
	if z == nil {
		m.logger.Info("scripting: no VM for zone",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	fn := z.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := setBudget(z.L, z.limit)
	defer cancel()
	if err := z.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args(z.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := z.L.Get(-1)
	z.L.Pop(1)
	return ret, nil
}

// Close releases every zone VM.
func (m *Manager) Close() {
	m.mu.Lock()
	zones := m.zones
	m.zones = make(map[string]*vm)
	m.mu.Unlock()
	for _, z := range zones {
		z.mu.Lock()
		z.L.Close()
		z.mu.Unlock()
	}
}
