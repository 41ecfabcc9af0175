package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Manager is the read-only room graph shared by combat, respawn and the
// trigger adapter. Rooms are indexed by ID across all zones.
// All methods are safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	zones map[string]*Zone
	rooms map[string]*Room
	// fallback is the recall point for rooms outside any known zone.
	fallback string
}

// NewManager indexes zones and their rooms.
//
// Postcondition: returns an error on a duplicate zone or room ID. The first
// zone's recall room becomes the global fallback.
func NewManager(zones []*Zone) (*Manager, error) {
	m := &Manager{
		zones: make(map[string]*Zone, len(zones)),
		rooms: make(map[string]*Room),
	}
	for _, z := range zones {
		if _, dup := m.zones[z.ID]; dup {
			return nil, fmt.Errorf("duplicate zone ID: %q", z.ID)
		}
		m.zones[z.ID] = z
		for id, room := range z.Rooms {
			if prev, dup := m.rooms[id]; dup {
				return nil, fmt.Errorf("duplicate room ID %q: in zone %q and %q", id, prev.ZoneID, z.ID)
			}
			m.rooms[id] = room
		}
	}
	if len(zones) > 0 {
		m.fallback = zones[0].Recall()
	}
	return m, nil
}

// ValidateExits checks that every exit target and every zone's recall room
// resolve across all loaded zones. Exits may cross zones, so this runs
// after every zone is indexed.
//
// Postcondition: returns nil, or one error per dangling reference joined.
func (m *Manager) ValidateExits() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var errs []error
	for _, z := range m.sortedZones() {
		if _, ok := m.rooms[z.Recall()]; !ok {
			errs = append(errs, fmt.Errorf("zone %q: recall room %q is unknown", z.ID, z.Recall()))
		}
		ids := make([]string, 0, len(z.Rooms))
		for id := range z.Rooms {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			for _, ex := range z.Rooms[id].Exits {
				if _, ok := m.rooms[ex.TargetRoom]; !ok {
					errs = append(errs, fmt.Errorf("zone %q: room %q: exit %q targets unknown room %q",
						z.ID, id, ex.Direction, ex.TargetRoom))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// GetRoom returns the room with the given ID.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RecallRoom returns the recall room ID for zoneID, falling back to the
// first zone's recall room when zoneID is unknown.
func (m *Manager) RecallRoom(zoneID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if z, ok := m.zones[zoneID]; ok {
		return z.Recall()
	}
	return m.fallback
}

// Zone returns the zone with the given ID.
func (m *Manager) Zone(id string) (*Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	return z, ok
}

func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *Manager) ZoneCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.zones)
}

// AllZones returns every zone sorted by ID.
func (m *Manager) AllZones() []*Zone {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedZones()
}

func (m *Manager) sortedZones() []*Zone {
	zones := make([]*Zone, 0, len(m.zones))
	for _, z := range m.zones {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones
}
