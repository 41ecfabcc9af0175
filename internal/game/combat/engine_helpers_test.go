package combat_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/ruleset"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

// rooms is a fixed room graph: arena <-> hall, a temple recall point, a
// safe sanctum and a dead-end cell.
type rooms struct {
	m map[string]*world.Room
}

func newRooms() *rooms {
	return &rooms{m: map[string]*world.Room{
		"arena": {ID: "arena", ZoneID: "town", Exits: []world.Exit{
			{Direction: world.East, TargetRoom: "hall"},
		}},
		"hall": {ID: "hall", ZoneID: "town", Exits: []world.Exit{
			{Direction: world.West, TargetRoom: "arena"},
		}},
		"temple":  {ID: "temple", ZoneID: "town"},
		"sanctum": {ID: "sanctum", ZoneID: "town", Flags: world.RoomSafe},
		"cell":    {ID: "cell", ZoneID: "town"},
	}}
}

func (r *rooms) GetRoom(id string) (*world.Room, bool) {
	room, ok := r.m[id]
	return room, ok
}

func (r *rooms) RecallRoom(string) string { return "temple" }

// messages records everything the engine says.
type messages struct {
	mu     sync.Mutex
	toChar map[string][]string
	toRoom map[string][]string
}

func newMessages() *messages {
	return &messages{toChar: make(map[string][]string), toRoom: make(map[string][]string)}
}

func (m *messages) ToChar(c *combat.Combatant, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toChar[c.Name] = append(m.toChar[c.Name], msg)
}

func (m *messages) ToRoom(roomID, msg string, _ ...*combat.Combatant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toRoom[roomID] = append(m.toRoom[roomID], msg)
}

func (m *messages) char(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.toChar[name]...)
}

func (m *messages) room(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.toRoom[id]...)
}

func contains(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

type fixture struct {
	engine *combat.Engine
	msgs   *messages
	rng    *dice.Script
	ops    *combat.ScriptedOps
}

// newFixture builds an engine over the default ruleset with a scripted RNG
// and scripted resolver ops.
func newFixture(t *testing.T, values ...int) *fixture {
	t.Helper()
	f := &fixture{
		msgs: newMessages(),
		rng:  dice.NewScript(values...),
		ops:  &combat.ScriptedOps{},
	}
	e, err := combat.NewEngine(combat.Config{
		Rules:     ruleset.Default(),
		RNG:       f.rng,
		Rooms:     newRooms(),
		Ops:       f.ops,
		Messenger: f.msgs,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) add(t *testing.T, cs ...*combat.Combatant) {
	t.Helper()
	for _, c := range cs {
		require.NoError(t, f.engine.Add(c))
	}
}

func mob(name string, level int) *combat.Combatant {
	return &combat.Combatant{
		ID:              name,
		Kind:            combat.KindNPC,
		Name:            name,
		TemplateID:      "tpl-" + name,
		Level:           level,
		Health:          100,
		MaxHealth:       100,
		Mana:            100,
		MaxMana:         100,
		Stamina:         100,
		MaxStamina:      100,
		Position:        combat.PosStanding,
		DefaultPosition: combat.PosStanding,
		Armor:           [inventory.ArmorClasses]int{100, 100, 100, 100},
		Skills:          make(map[string]int),
		Equipment:       inventory.NewEquipment(),
		Parts:           combat.HumanoidParts,
		Form:            combat.FormEdible,
		Room:            "arena",
	}
}

func hero(name string, level int) *combat.Combatant {
	c := combat.NewPlayer(name, "warrior", level)
	c.ID = name
	c.Room = "arena"
	c.Experience = 1000 * level
	return c
}

func sword(id string) *inventory.Item {
	return &inventory.Item{
		ID:      id,
		Name:    "a steel sword",
		Kind:    inventory.KindWeapon,
		Level:   10,
		CanWear: inventory.SlotWield,
		Weapon:  &inventory.WeaponDef{Class: inventory.WeaponSword, DamageDice: "2d4", Attack: "slash"},
	}
}
