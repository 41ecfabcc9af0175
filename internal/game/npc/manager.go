package npc

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
)

// Arena accepts newly spawned combatants. *combat.Engine satisfies it.
type Arena interface {
	Add(c *combat.Combatant) error
}

// live records where a spawned NPC belongs.
type live struct {
	templateID string
	home       string
}

// Manager spawns NPCs from templates into an Arena and remembers each
// live NPC's template and home room until it dies.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
	live      map[string]live

	arena   Arena
	rng     dice.RNG
	attacks *combat.AttackTable
	items   ItemSource
	logger  *zap.Logger
}

// NewManager indexes templates by ID.
//
// Precondition: arena, rng, attacks and items are non-nil.
// Postcondition: Returns an error on a duplicate template ID.
func NewManager(templates []*Template, arena Arena, rng dice.RNG, attacks *combat.AttackTable, items ItemSource, logger *zap.Logger) (*Manager, error) {
	if arena == nil || rng == nil || attacks == nil || items == nil {
		panic("npc.NewManager: arena, rng, attacks and items must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		templates: make(map[string]*Template, len(templates)),
		live:      make(map[string]live),
		arena:     arena,
		rng:       rng,
		attacks:   attacks,
		items:     items,
		logger:    logger,
	}
	for _, t := range templates {
		if _, dup := m.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate npc template %q", t.ID)
		}
		m.templates[t.ID] = t
	}
	return m, nil
}

// Template returns the template with id.
func (m *Manager) Template(id string) (*Template, bool) {
	t, ok := m.templates[id]
	return t, ok
}

// TemplateIDs returns every loaded template ID, sorted.
func (m *Manager) TemplateIDs() []string {
	out := make([]string, 0, len(m.templates))
	for id := range m.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Spawn rolls a new NPC from templateID into roomID and enters it into the
// arena. Missing item prototypes are logged; the NPC still spawns.
//
// Postcondition: on success the NPC is active and counted in roomID.
func (m *Manager) Spawn(templateID, roomID string) (*combat.Combatant, error) {
	tmpl, ok := m.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("spawning %q: %w", templateID, ErrUnknownTemplate)
	}
	if roomID == "" {
		return nil, fmt.Errorf("spawning %q: roomID must not be empty", templateID)
	}
	c, err := NewCombatant(tmpl, roomID, m.rng, m.attacks, m.items)
	if err != nil {
		m.logger.Warn("npc spawned without some items",
			zap.String("template", templateID),
			zap.Error(err),
		)
	}
	if err := m.arena.Add(c); err != nil {
		return nil, fmt.Errorf("spawning %q: %w", templateID, err)
	}

	m.mu.Lock()
	m.live[c.ID] = live{templateID: templateID, home: roomID}
	m.mu.Unlock()

	m.logger.Debug("npc spawned",
		zap.String("template", templateID),
		zap.String("room", roomID),
		zap.String("id", c.ID),
	)
	return c, nil
}

// Died forgets the NPC with id and returns its template and home room.
//
// Postcondition: ok is false when id was not spawned by this manager.
func (m *Manager) Died(id string) (templateID, home string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.live[id]
	if !ok {
		return "", "", false
	}
	delete(m.live, id)
	return l.templateID, l.home, true
}

// CountInRoom counts live NPCs of templateID whose home is roomID.
func (m *Manager) CountInRoom(roomID, templateID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.live {
		if l.home == roomID && l.templateID == templateID {
			n++
		}
	}
	return n
}

// Len returns the number of live NPCs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}
