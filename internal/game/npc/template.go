// Package npc turns NPC templates into live combatants and keeps rooms
// populated as those combatants die.
package npc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// ErrUnknownTemplate is returned when a template ID is not loaded.
var ErrUnknownTemplate = errors.New("unknown npc template")

// EquipEntry names an item prototype worn at spawn.
type EquipEntry struct {
	Item string         `yaml:"item"`
	Slot inventory.Slot `yaml:"slot"`
}

// Template defines a reusable NPC archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	// Sex is "male", "female" or "neutral"; empty means neutral.
	Sex       string `yaml:"sex"`
	Race      string `yaml:"race"`
	Alignment int    `yaml:"alignment"`
	// Group is the assist group shared with other templates.
	Group   int `yaml:"group"`
	Hitroll int `yaml:"hitroll"`
	// HitDice, ManaDice and DamageDice are dice expressions such as "3d8+20".
	HitDice    string `yaml:"hit_dice"`
	ManaDice   string `yaml:"mana_dice"`
	DamageDice string `yaml:"damage_dice"`
	// Attack names the bare-handed attack in the attack table.
	Attack string `yaml:"attack"`
	// Armor is pierce, bash, slash and exotic armor class.
	Armor []int `yaml:"armor"`

	Act      combat.ActFlags  `yaml:"act"`
	Off      combat.OffFlags  `yaml:"off"`
	Imm      combat.IRV       `yaml:"imm"`
	Res      combat.IRV       `yaml:"res"`
	Vuln     combat.IRV       `yaml:"vuln"`
	Affected affect.Flags     `yaml:"affected"`
	Parts    combat.BodyParts `yaml:"parts"`
	Form     combat.FormFlags `yaml:"form"`

	Position        combat.Position `yaml:"position"`
	DefaultPosition combat.Position `yaml:"default_position"`
	// Wealth is the average silver value carried.
	Wealth    int            `yaml:"wealth"`
	Skills    map[string]int `yaml:"skills"`
	HPTrigger int            `yaml:"hp_trigger"`

	Equipment []EquipEntry `yaml:"equipment"`
	Inventory []string     `yaml:"inventory"`

	// RespawnDelay is the duration string (e.g. "5m", "30s") before a dead NPC
	// of this template respawns. Empty means the NPC does not respawn.
	RespawnDelay string     `yaml:"respawn_delay"`
	Loot         *LootTable `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// every dice expression parses and every duration is valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("npc template %q: level must be >= 1", t.ID)
	}
	if _, err := dice.Parse(t.HitDice); err != nil {
		return fmt.Errorf("npc template %q: hit_dice: %w", t.ID, err)
	}
	if t.ManaDice != "" {
		if _, err := dice.Parse(t.ManaDice); err != nil {
			return fmt.Errorf("npc template %q: mana_dice: %w", t.ID, err)
		}
	}
	if _, err := dice.Parse(t.DamageDice); err != nil {
		return fmt.Errorf("npc template %q: damage_dice: %w", t.ID, err)
	}
	if _, err := parseSex(t.Sex); err != nil {
		return fmt.Errorf("npc template %q: %w", t.ID, err)
	}
	if len(t.Armor) != 0 && len(t.Armor) != int(inventory.ArmorClasses) {
		return fmt.Errorf("npc template %q: armor needs %d values, got %d", t.ID, int(inventory.ArmorClasses), len(t.Armor))
	}
	if t.Wealth < 0 {
		return fmt.Errorf("npc template %q: wealth must be >= 0", t.ID)
	}
	for _, e := range t.Equipment {
		if e.Item == "" || !e.Slot.Valid() {
			return fmt.Errorf("npc template %q: equipment entry %q needs an item and a valid slot", t.ID, e.Item)
		}
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			return fmt.Errorf("npc template %q: respawn_delay %q is not a valid duration: %w", t.ID, t.RespawnDelay, err)
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("npc template %q: %w", t.ID, err)
		}
	}
	return nil
}

// Respawn returns the parsed respawn delay, zero when the template does not
// respawn.
func (t *Template) Respawn() time.Duration {
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

func parseSex(s string) (combat.Sex, error) {
	switch strings.ToLower(s) {
	case "", "neutral", "none":
		return combat.SexNeutral, nil
	case "male":
		return combat.SexMale, nil
	case "female":
		return combat.SexFemale, nil
	}
	return combat.SexNeutral, fmt.Errorf("unknown sex %q", s)
}

// LoadTemplateFromBytes parses a single NPC template from raw YAML bytes.
// Unknown fields are rejected.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var tmpl Template
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
