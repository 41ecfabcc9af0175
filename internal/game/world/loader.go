package world

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlZoneFile is the top-level YAML structure for zone files.
type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

type yamlZone struct {
	ID                     string     `yaml:"id"`
	Name                   string     `yaml:"name"`
	Description            string     `yaml:"description"`
	StartRoom              string     `yaml:"start_room"`
	RecallRoom             string     `yaml:"recall_room"`
	ScriptDir              string     `yaml:"script_dir"`
	ScriptInstructionLimit int        `yaml:"script_instruction_limit"`
	Rooms                  []yamlRoom `yaml:"rooms"`
}

type yamlRoom struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Flags       RoomFlags   `yaml:"flags"`
	Exits       []yamlExit  `yaml:"exits"`
	Spawns      []yamlSpawn `yaml:"spawns"`
}

type yamlExit struct {
	Direction string `yaml:"direction"`
	Target    string `yaml:"target"`
	Closed    bool   `yaml:"closed"`
	Locked    bool   `yaml:"locked"`
}

type yamlSpawn struct {
	Template     string `yaml:"template"`
	Count        int    `yaml:"count"`
	RespawnAfter string `yaml:"respawn_after"`
}

// LoadZoneFromFile reads and validates a single zone YAML file.
//
// Precondition: path must point to a valid YAML zone file.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %s: %w", path, err)
	}
	z, err := LoadZoneFromBytes(data)
	if err != nil {
		return nil, err
	}
	if z.ScriptDir != "" && !filepath.IsAbs(z.ScriptDir) {
		z.ScriptDir = filepath.Join(filepath.Dir(path), z.ScriptDir)
	}
	return z, nil
}

// LoadZoneFromBytes parses and validates a zone from YAML bytes.
// Unknown keys are rejected.
//
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromBytes(data []byte) (*Zone, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file yamlZoneFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}

	zone := convertYAMLZone(file.Zone)
	if err := zone.Validate(); err != nil {
		return nil, fmt.Errorf("validating zone: %w", err)
	}
	return zone, nil
}

// LoadZonesFromDir loads all YAML files in a directory as zones.
//
// Postcondition: Returns all validated zones or the first error encountered.
func LoadZonesFromDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading zone directory %s: %w", dir, err)
	}

	var zones []*Zone
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		zone, err := LoadZoneFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading zone from %s: %w", name, err)
		}
		zones = append(zones, zone)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", dir)
	}
	return zones, nil
}

func convertYAMLZone(yz yamlZone) *Zone {
	zone := &Zone{
		ID:                     yz.ID,
		Name:                   yz.Name,
		Description:            yz.Description,
		StartRoom:              yz.StartRoom,
		RecallRoom:             yz.RecallRoom,
		ScriptDir:              yz.ScriptDir,
		ScriptInstructionLimit: yz.ScriptInstructionLimit,
		Rooms:                  make(map[string]*Room, len(yz.Rooms)),
	}

	for _, yr := range yz.Rooms {
		room := &Room{
			ID:          yr.ID,
			ZoneID:      yz.ID,
			Title:       yr.Title,
			Description: strings.TrimSpace(yr.Description),
			Flags:       yr.Flags,
		}
		for _, ye := range yr.Exits {
			room.Exits = append(room.Exits, Exit{
				Direction:  Direction(ye.Direction),
				TargetRoom: ye.Target,
				Closed:     ye.Closed || ye.Locked,
				Locked:     ye.Locked,
			})
		}
		for _, ys := range yr.Spawns {
			room.Spawns = append(room.Spawns, RoomSpawnConfig{
				Template:     ys.Template,
				Count:        ys.Count,
				RespawnAfter: ys.RespawnAfter,
			})
		}
		zone.Rooms[room.ID] = room
	}
	return zone
}
