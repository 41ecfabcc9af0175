// Package world holds the room graph combat consults: rooms, exits, room
// flags and per-zone recall points.
package world

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Direction names an exit.
type Direction string

const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Directions lists the six exit directions in the order flee draws from.
var Directions = []Direction{North, East, South, West, Up, Down}

// Valid reports whether d is one of the six exit directions.
func (d Direction) Valid() bool {
	for _, sd := range Directions {
		if d == sd {
			return true
		}
	}
	return false
}

// Opposite returns the reverse direction, or "" for an unknown one.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	default:
		return ""
	}
}

// RoomFlags marks rooms with rules combat has to respect.
type RoomFlags uint32

const (
	// RoomSafe forbids all violence.
	RoomSafe RoomFlags = 1 << iota
	// RoomNoRecall blocks link-dead recall.
	RoomNoRecall
	// RoomLaw marks a lawful area where aggressive NPCs hold back.
	RoomLaw
	RoomDark
	RoomIndoors
	RoomPrivate
)

var roomFlagNames = []string{"safe", "no_recall", "law", "dark", "indoors", "private"}

// Has reports whether every bit in o is set.
func (f RoomFlags) Has(o RoomFlags) bool { return o != 0 && f&o == o }

// Names returns the set flag names in declaration order.
func (f RoomFlags) Names() []string {
	var out []string
	for i, n := range roomFlagNames {
		if f&(1<<uint(i)) != 0 {
			out = append(out, n)
		}
	}
	return out
}

// ParseRoomFlags converts flag names to a RoomFlags set.
func ParseRoomFlags(names []string) (RoomFlags, error) {
	var f RoomFlags
	for _, raw := range names {
		n := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for i, s := range roomFlagNames {
			if s == n {
				f |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown room flag %q", raw)
		}
	}
	return f, nil
}

// UnmarshalYAML accepts a list of flag names.
func (f *RoomFlags) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return err
	}
	parsed, err := ParseRoomFlags(names)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Exit is a passage from one room to another.
type Exit struct {
	Direction  Direction
	TargetRoom string
	// Closed exits block movement, flight and sound.
	Closed bool
	Locked bool
}

// RoomSpawnConfig says how many instances of an NPC template live in a room.
type RoomSpawnConfig struct {
	Template string
	Count    int
	// RespawnAfter overrides the template's respawn delay when non-empty.
	RespawnAfter string
}

// Room is a location in the world.
type Room struct {
	ID          string
	ZoneID      string
	Title       string
	Description string
	Flags       RoomFlags
	Exits       []Exit
	Spawns      []RoomSpawnConfig
}

// ExitForDirection returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitForDirection(dir Direction) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// OpenExits returns exits that are open and lead somewhere other than r.
func (r *Room) OpenExits() []Exit {
	var out []Exit
	for _, e := range r.Exits {
		if !e.Closed && e.TargetRoom != r.ID {
			out = append(out, e)
		}
	}
	return out
}

// IsSafe reports whether violence is forbidden here.
func (r *Room) IsSafe() bool { return r != nil && r.Flags.Has(RoomSafe) }

// Zone groups related rooms.
type Zone struct {
	ID          string
	Name        string
	Description string
	StartRoom   string
	// RecallRoom is where link-dead and defeated players are sent.
	// Empty falls back to StartRoom.
	RecallRoom string
	Rooms      map[string]*Room
	// ScriptDir is the path to Lua trigger scripts for this zone. Empty = no scripts.
	ScriptDir string
	// ScriptInstructionLimit overrides the default per-call instruction budget.
	ScriptInstructionLimit int
}

// Recall returns the zone's recall room ID.
func (z *Zone) Recall() string {
	if z.RecallRoom != "" {
		return z.RecallRoom
	}
	return z.StartRoom
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if z.StartRoom == "" {
		return fmt.Errorf("zone %q: start_room must not be empty", z.ID)
	}
	if len(z.Rooms) == 0 {
		return fmt.Errorf("zone %q: must contain at least one room", z.ID)
	}
	if _, ok := z.Rooms[z.StartRoom]; !ok {
		return fmt.Errorf("zone %q: start_room %q not found in rooms", z.ID, z.StartRoom)
	}
	if z.RecallRoom != "" {
		if _, ok := z.Rooms[z.RecallRoom]; !ok {
			return fmt.Errorf("zone %q: recall_room %q not found in rooms", z.ID, z.RecallRoom)
		}
	}
	for id, room := range z.Rooms {
		if room.ID != id {
			return fmt.Errorf("zone %q: room key %q does not match room ID %q", z.ID, id, room.ID)
		}
		if room.Title == "" {
			return fmt.Errorf("zone %q: room %q: title must not be empty", z.ID, id)
		}
		for _, exit := range room.Exits {
			if !exit.Direction.Valid() {
				return fmt.Errorf("zone %q: room %q: exit direction %q is not recognized", z.ID, id, exit.Direction)
			}
			if exit.TargetRoom == "" {
				return fmt.Errorf("zone %q: room %q: exit %q has empty target", z.ID, id, exit.Direction)
			}
		}
	}
	return nil
}
