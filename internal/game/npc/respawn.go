package npc

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

// RoomSpawn holds the resolved spawn configuration for one NPC template in one room.
//
// Invariant: Max >= 1; RespawnDelay == 0 defers to the template's delay.
type RoomSpawn struct {
	TemplateID   string
	Max          int
	RespawnDelay time.Duration
}

// SpawnsFromZones collects every room's spawn configuration.
//
// Postcondition: Returns an error naming the first room whose count or
// delay is invalid.
func SpawnsFromZones(zones []*world.Zone) (map[string][]RoomSpawn, error) {
	out := make(map[string][]RoomSpawn)
	for _, z := range zones {
		for _, r := range z.Rooms {
			for _, s := range r.Spawns {
				if s.Count < 1 {
					return nil, fmt.Errorf("room %q: spawn %q count must be >= 1", r.ID, s.Template)
				}
				var d time.Duration
				if s.RespawnAfter != "" {
					var err error
					if d, err = time.ParseDuration(s.RespawnAfter); err != nil {
						return nil, fmt.Errorf("room %q: spawn %q respawn_after: %w", r.ID, s.Template, err)
					}
				}
				out[r.ID] = append(out[r.ID], RoomSpawn{TemplateID: s.Template, Max: s.Count, RespawnDelay: d})
			}
		}
	}
	return out, nil
}

type respawnEntry struct {
	templateID string
	roomID     string
	readyAt    time.Time
}

// RespawnManager keeps rooms populated: it fills them at startup, schedules
// a respawn when one of their NPCs dies and spawns due entries on Tick.
//
// Concurrency: OnDeath may be called from any goroutine, including under
// the engine lock; it never calls into the engine. Tick and PopulateAll
// must run outside the engine lock.
type RespawnManager struct {
	mu      sync.Mutex
	spawns  map[string][]RoomSpawn
	pending []respawnEntry

	mgr    *Manager
	now    func() time.Time
	logger *zap.Logger
}

// NewRespawnManager creates a RespawnManager over mgr.
//
// Precondition: mgr must be non-nil; spawns may be nil.
func NewRespawnManager(spawns map[string][]RoomSpawn, mgr *Manager, logger *zap.Logger) *RespawnManager {
	if mgr == nil {
		panic("npc.NewRespawnManager: mgr must not be nil")
	}
	if spawns == nil {
		spawns = make(map[string][]RoomSpawn)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RespawnManager{spawns: spawns, mgr: mgr, now: time.Now, logger: logger}
}

// PopulateRoom spawns NPCs until every template configured for roomID has
// Max live instances homed there.
func (r *RespawnManager) PopulateRoom(roomID string) {
	r.mu.Lock()
	configs := append([]RoomSpawn(nil), r.spawns[roomID]...)
	r.mu.Unlock()

	for _, cfg := range configs {
		for i := r.mgr.CountInRoom(roomID, cfg.TemplateID); i < cfg.Max; i++ {
			if _, err := r.mgr.Spawn(cfg.TemplateID, roomID); err != nil {
				r.logger.Warn("populating room",
					zap.String("room", roomID),
					zap.String("template", cfg.TemplateID),
					zap.Error(err),
				)
				break
			}
		}
	}
}

// PopulateAll populates every configured room in ID order.
func (r *RespawnManager) PopulateAll() {
	r.mu.Lock()
	rooms := make([]string, 0, len(r.spawns))
	for id := range r.spawns {
		rooms = append(rooms, id)
	}
	r.mu.Unlock()
	sort.Strings(rooms)
	for _, id := range rooms {
		r.PopulateRoom(id)
	}
}

// OnDeath is a combat.DeathHook: a dying NPC this manager spawned is
// forgotten and, if it respawns, scheduled.
func (r *RespawnManager) OnDeath(victim, _ *combat.Combatant, _ *inventory.Item) {
	if !victim.IsNPC() {
		return
	}
	templateID, home, ok := r.mgr.Died(victim.ID)
	if !ok {
		return
	}
	r.Schedule(templateID, home, r.now(), r.ResolvedDelay(templateID, home))
}

// Schedule enqueues a future respawn for templateID in roomID to fire at now+delay.
// No-op when delay <= 0.
func (r *RespawnManager) Schedule(templateID, roomID string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{
		templateID: templateID,
		roomID:     roomID,
		readyAt:    now.Add(delay),
	})
}

// Pending returns the number of scheduled respawns.
func (r *RespawnManager) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Tick spawns every entry due at now, up to each room's population cap.
//
// Postcondition: pending entries with readyAt <= now are consumed.
func (r *RespawnManager) Tick(now time.Time) {
	r.mu.Lock()
	var ready, future []respawnEntry
	for _, e := range r.pending {
		if !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	r.pending = future
	r.mu.Unlock()

	for _, e := range ready {
		limit := 1
		if cfg, ok := r.configFor(e.roomID, e.templateID); ok {
			limit = cfg.Max
		}
		if r.mgr.CountInRoom(e.roomID, e.templateID) >= limit {
			continue
		}
		if _, err := r.mgr.Spawn(e.templateID, e.roomID); err != nil {
			r.logger.Warn("respawn failed",
				zap.String("room", e.roomID),
				zap.String("template", e.templateID),
				zap.Error(err),
			)
		}
	}
}

// ResolvedDelay returns the effective respawn delay for templateID in roomID:
// the room's RespawnDelay if non-zero, otherwise the template's.
//
// Postcondition: Returns >= 0.
func (r *RespawnManager) ResolvedDelay(templateID, roomID string) time.Duration {
	if cfg, ok := r.configFor(roomID, templateID); ok && cfg.RespawnDelay > 0 {
		return cfg.RespawnDelay
	}
	tmpl, ok := r.mgr.Template(templateID)
	if !ok {
		return 0
	}
	return tmpl.Respawn()
}

func (r *RespawnManager) configFor(roomID, templateID string) (RoomSpawn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cfg := range r.spawns[roomID] {
		if cfg.TemplateID == templateID {
			return cfg, true
		}
	}
	return RoomSpawn{}, false
}
