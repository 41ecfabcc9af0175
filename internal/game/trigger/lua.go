// Package trigger binds combat trigger events to zone Lua hooks.
//
// An event named ev calls the global function "on_"+ev in the VM of the
// zone holding self's room, falling back to the global VM. The hook
// receives (self, other, arg); other is nil for flee. A truthy return
// marks the event handled.
package trigger

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/world"
	"github.com/cory-johannsen/mudcore/internal/scripting"
)

// RoomLookup resolves a room to its zone. *world.Manager satisfies it.
type RoomLookup interface {
	GetRoom(id string) (*world.Room, bool)
}

// HookName returns the Lua global called for ev.
func HookName(ev combat.TriggerEvent) string { return "on_" + string(ev) }

// LuaTriggers implements combat.Triggers over a scripting.Manager.
//
// Fire runs under the engine lock. Scripts may only touch the two
// combatants in scope: engine.entity.get and engine.entity.heal see self
// and other, engine.world.tell reaches them, and broadcast goes to any room.
type LuaTriggers struct {
	scripts *scripting.Manager
	rooms   RoomLookup
	msgr    combat.Messenger
	logger  *zap.Logger

	mu    sync.Mutex
	scope map[string]*combat.Combatant
}

// NewLuaTriggers wires scripts' engine.* callbacks to the combatants in
// scope of the current Fire.
//
// Precondition: scripts, rooms and msgr are non-nil.
func NewLuaTriggers(scripts *scripting.Manager, rooms RoomLookup, msgr combat.Messenger, logger *zap.Logger) *LuaTriggers {
	if scripts == nil || rooms == nil || msgr == nil {
		panic("trigger.NewLuaTriggers: scripts, rooms and msgr must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &LuaTriggers{scripts: scripts, rooms: rooms, msgr: msgr, logger: logger}
	scripts.GetCombatant = t.get
	scripts.Heal = t.heal
	scripts.Tell = t.tell
	scripts.Broadcast = func(roomID, msg string) { t.msgr.ToRoom(roomID, msg) }
	return t
}

// Fire implements combat.Triggers.
func (t *LuaTriggers) Fire(ev combat.TriggerEvent, self, other *combat.Combatant, arg int) bool {
	if self == nil {
		return false
	}
	zoneID := t.zoneOf(self.Room)
	hook := HookName(ev)
	if !t.scripts.HasHook(zoneID, hook) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.scope = map[string]*combat.Combatant{self.ID: self}
	if other != nil {
		t.scope[other.ID] = other
	}
	defer func() { t.scope = nil }()

	ret, err := t.scripts.CallCombatHook(zoneID, hook, Info(self), Info(other), arg)
	if err != nil {
		t.logger.Warn("trigger failed",
			zap.String("hook", hook),
			zap.String("self", self.ID),
			zap.Error(err),
		)
		return false
	}
	handled := lua.LVAsBool(ret)
	t.logger.Debug("trigger fired",
		zap.String("hook", hook),
		zap.String("zone", zoneID),
		zap.Bool("handled", handled),
	)
	return handled
}

func (t *LuaTriggers) zoneOf(roomID string) string {
	if r, ok := t.rooms.GetRoom(roomID); ok {
		return r.ZoneID
	}
	return ""
}

// The callbacks below run inside CallCombatHook, on the goroutine holding t.mu.

func (t *LuaTriggers) get(uid string) (*scripting.CombatantInfo, bool) {
	c, ok := t.scope[uid]
	if !ok {
		return nil, false
	}
	return Info(c), true
}

func (t *LuaTriggers) heal(uid string, hp int) bool {
	c, ok := t.scope[uid]
	if !ok || hp <= 0 || c.IsDead() {
		return false
	}
	c.Health = min(c.Health+hp, c.MaxHealth)
	return true
}

func (t *LuaTriggers) tell(uid, msg string) {
	if c, ok := t.scope[uid]; ok {
		t.msgr.ToChar(c, msg)
	}
}

// Info converts c into the snapshot scripts see. A nil c yields nil.
func Info(c *combat.Combatant) *scripting.CombatantInfo {
	if c == nil {
		return nil
	}
	return &scripting.CombatantInfo{
		UID:      c.ID,
		Name:     c.Name,
		Kind:     c.Kind.String(),
		Level:    c.Level,
		HP:       c.Health,
		MaxHP:    c.MaxHealth,
		Position: c.Position.String(),
		Room:     c.Room,
		Fighting: c.Fighting,
	}
}

// LoadZoneScripts loads the script directory of every zone that has one.
func LoadZoneScripts(scripts *scripting.Manager, zones []*world.Zone) error {
	for _, z := range zones {
		if z.ScriptDir == "" {
			continue
		}
		if err := scripts.LoadZone(z.ID, z.ScriptDir, z.ScriptInstructionLimit); err != nil {
			return fmt.Errorf("zone %q: %w", z.ID, err)
		}
	}
	return nil
}
