package combat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/ruleset"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

var (
	// ErrCombatantNotFound is returned when an ID is not in the active set.
	ErrCombatantNotFound = errors.New("combatant not found")
	// ErrDuplicateCombatant is returned when adding an ID already present.
	ErrDuplicateCombatant = errors.New("combatant already active")
)

// Rooms resolves the room graph.
type Rooms interface {
	GetRoom(id string) (*world.Room, bool)
	RecallRoom(zoneID string) string
}

// TriggerEvent names a script hook combat calls into.
type TriggerEvent string

const (
	// TriggerKill fires on an NPC when it is first engaged.
	TriggerKill TriggerEvent = "kill"
	// TriggerHPPercent fires on a fighting NPC at or below its HPTrigger percent.
	TriggerHPPercent TriggerEvent = "hpcnt"
	TriggerDeath     TriggerEvent = "death"
	TriggerFlee      TriggerEvent = "flee"
	// TriggerFight fires on a fighting NPC once per violence round.
	TriggerFight TriggerEvent = "fight"
)

// Triggers invokes script hooks. Fire reports whether a hook handled the
// event; combat proceeds either way.
type Triggers interface {
	Fire(ev TriggerEvent, self, other *Combatant, arg int) bool
}

// NoTriggers is a Triggers with no hooks.
type NoTriggers struct{}

// Fire implements Triggers.
func (NoTriggers) Fire(TriggerEvent, *Combatant, *Combatant, int) bool { return false }

// FactionVeto can forbid an attack the room and clan rules would allow. A
// vetoed attack is refused with msg.
type FactionVeto interface {
	Veto(attacker, victim *Combatant) (msg string, vetoed bool)
}

// DeathHook observes every death after the corpse is made. killer may be
// nil. Hooks run under the engine lock and must not call back into it.
type DeathHook func(victim, killer *Combatant, corpse *inventory.Item)

// KillStats counts NPC deaths.
type KillStats struct {
	ByTemplate map[string]int
	ByLevel    map[int]int
}

// Config wires an Engine. Rules, RNG and Rooms are required.
type Config struct {
	Rules     *ruleset.Rules
	RNG       dice.RNG
	Rooms     Rooms
	Attacks   *AttackTable
	Ops       Ops
	Messenger Messenger
	Triggers  Triggers
	Perceiver Perceiver
	Veto      FactionVeto
	Affects   *affect.Registry
	Floor     *inventory.FloorManager
	Logger    *zap.Logger
	Now       func() time.Time
	// PulsesPerTick is the number of pulses between affect ticks.
	PulsesPerTick int
}

// Engine owns the active combatant set and resolves all violence between
// its members. Exported methods are safe for concurrent use; everything
// else runs under the engine mutex.
type Engine struct {
	mu sync.Mutex

	env      *Env
	rules    *ruleset.Rules
	ops      Ops
	rooms    Rooms
	triggers Triggers
	veto     FactionVeto
	affects  *affect.Registry
	floor    *inventory.FloorManager
	logger   *zap.Logger

	order  []string
	active map[string]*Combatant
	owners *Ownership

	kills      KillStats
	deathHooks []DeathHook

	round         *RoundRecord
	pulse         int
	pulsesPerTick int
}

// NewEngine builds an Engine from cfg, defaulting every optional collaborator.
//
// Postcondition: returns a non-nil Engine or a non-nil error naming the
// missing collaborator.
func NewEngine(cfg Config) (*Engine, error) {
	switch {
	case cfg.Rules == nil:
		return nil, fmt.Errorf("combat engine: rules are required")
	case cfg.RNG == nil:
		return nil, fmt.Errorf("combat engine: rng is required")
	case cfg.Rooms == nil:
		return nil, fmt.Errorf("combat engine: rooms are required")
	}
	if cfg.Attacks == nil {
		cfg.Attacks = DefaultAttackTable()
	}
	if cfg.Ops == nil {
		cfg.Ops = StandardOps{}
	}
	if cfg.Messenger == nil {
		cfg.Messenger = Discard{}
	}
	if cfg.Triggers == nil {
		cfg.Triggers = NoTriggers{}
	}
	if cfg.Perceiver == nil {
		cfg.Perceiver = SightRules{Rooms: cfg.Rooms}
	}
	if cfg.Affects == nil {
		cfg.Affects = affect.NewRegistry()
	}
	if cfg.Floor == nil {
		cfg.Floor = inventory.NewFloorManager()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PulsesPerTick <= 0 {
		cfg.PulsesPerTick = 20 * max(1, cfg.Rules.PulseViolence)
	}
	return &Engine{
		env: &Env{
			RNG:       cfg.RNG,
			Rules:     cfg.Rules,
			Attacks:   cfg.Attacks,
			Perceiver: cfg.Perceiver,
			Messenger: cfg.Messenger,
			Logger:    cfg.Logger,
			Now:       cfg.Now,
		},
		rules:         cfg.Rules,
		ops:           cfg.Ops,
		rooms:         cfg.Rooms,
		triggers:      cfg.Triggers,
		veto:          cfg.Veto,
		affects:       cfg.Affects,
		floor:         cfg.Floor,
		logger:        cfg.Logger,
		active:        make(map[string]*Combatant),
		owners:        NewOwnership(),
		kills:         KillStats{ByTemplate: make(map[string]int), ByLevel: make(map[int]int)},
		pulsesPerTick: cfg.PulsesPerTick,
	}, nil
}

// Env returns the resolver environment shared with Ops.
func (e *Engine) Env() *Env { return e.env }

// Floor returns the floor manager corpses and dropped items land in.
func (e *Engine) Floor() *inventory.FloorManager { return e.floor }

// Add enters c into the active set.
func (e *Engine) Add(c *Combatant) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(c)
}

func (e *Engine) add(c *Combatant) error {
	if _, ok := e.active[c.ID]; ok {
		return fmt.Errorf("adding %q: %w", c.ID, ErrDuplicateCombatant)
	}
	e.active[c.ID] = c
	e.order = append(e.order, c.ID)
	return nil
}

// Remove extracts the combatant from the simulation, ending its fights and
// releasing its ownership links.
func (e *Engine) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.active[id]
	if !ok {
		return fmt.Errorf("removing %q: %w", id, ErrCombatantNotFound)
	}
	e.stopFighting(c, true)
	e.dieFollower(c)
	e.remove(c)
	return nil
}

func (e *Engine) remove(c *Combatant) {
	delete(e.active, c.ID)
	for i, id := range e.order {
		if id == c.ID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.owners.RemoveAll(c.ID)
}

// Get returns the active combatant with id.
func (e *Engine) Get(id string) (*Combatant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.active[id]
	return c, ok
}

// Active returns the active combatants in enumeration order.
func (e *Engine) Active() []*Combatant {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Combatant, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.active[id])
	}
	return out
}

// InRoom returns the active combatants in roomID in enumeration order.
func (e *Engine) InRoom(roomID string) []*Combatant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inRoom(roomID)
}

func (e *Engine) inRoom(roomID string) []*Combatant {
	var out []*Combatant
	for _, id := range e.order {
		if c := e.active[id]; c.Room == roomID {
			out = append(out, c)
		}
	}
	return out
}

// OnDeath registers a hook run after every death.
func (e *Engine) OnDeath(h DeathHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deathHooks = append(e.deathHooks, h)
}

// Kills returns a copy of the NPC kill counters.
func (e *Engine) Kills() KillStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := KillStats{ByTemplate: make(map[string]int, len(e.kills.ByTemplate)), ByLevel: make(map[int]int, len(e.kills.ByLevel))}
	for k, v := range e.kills.ByTemplate {
		out.ByTemplate[k] = v
	}
	for k, v := range e.kills.ByLevel {
		out.ByLevel[k] = v
	}
	return out
}

// PulseReport summarises one Pulse.
type PulseReport struct {
	Pulse int
	// Round is the violence round resolved this pulse, nil when none ran.
	Round  *RoundRecord
	Ticked bool
}

// Pulse advances the simulation by one pulse: action delays count down,
// every PulseViolence pulses a violence round runs, and every
// PulsesPerTick pulses affects and timers tick.
func (e *Engine) Pulse() PulseReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pulse++
	rep := PulseReport{Pulse: e.pulse}
	for _, id := range e.order {
		c := e.active[id]
		// A link-dead player's delays hold until they reconnect.
		if c.IsPlayer() && c.Linkdead {
			continue
		}
		c.Wait = max(0, c.Wait-1)
		c.Daze = max(0, c.Daze-1)
	}
	if v := e.rules.PulseViolence; v > 0 && e.pulse%v == 0 {
		rep.Round = e.violenceTick()
	}
	if e.pulse%e.pulsesPerTick == 0 {
		e.affectTick()
		rep.Ticked = true
	}
	return rep
}

func (e *Engine) isImmortal(c *Combatant) bool {
	return c.IsPlayer() && c.Level >= e.rules.ImmortalLevel
}

func (e *Engine) act(format string, ch *Combatant, obj *inventory.Item, vict *Combatant, to actTarget) {
	e.env.act(format, ch, obj, vict, to)
}

func (e *Engine) tell(c *Combatant, msg string) { e.env.Messenger.ToChar(c, msg) }

func (e *Engine) room(c *Combatant) *world.Room {
	r, ok := e.rooms.GetRoom(c.Room)
	if !ok {
		return nil
	}
	return r
}

// lookup resolves a weak reference, tolerating combatants that have left.
func (e *Engine) lookup(id string) *Combatant {
	if id == "" {
		return nil
	}
	return e.active[id]
}
