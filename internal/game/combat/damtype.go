package combat

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// DamageType is the category of a single instance of damage.
type DamageType int

const (
	DamNone DamageType = iota
	DamBash
	DamPierce
	DamSlash
	DamFire
	DamCold
	DamLightning
	DamAcid
	DamPoison
	DamNegative
	DamHoly
	DamEnergy
	DamMental
	DamDisease
	DamDrowning
	DamLight
	DamOther
	DamHarm
	DamCharm
	DamSound
)

var damageTypeNames = []string{
	"none", "bash", "pierce", "slash", "fire", "cold", "lightning", "acid",
	"poison", "negative", "holy", "energy", "mental", "disease", "drowning",
	"light", "other", "harm", "charm", "sound",
}

func (d DamageType) String() string {
	if d < 0 || int(d) >= len(damageTypeNames) {
		return fmt.Sprintf("damtype(%d)", int(d))
	}
	return damageTypeNames[d]
}

// ParseDamageType resolves a damage type by name.
func ParseDamageType(name string) (DamageType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range damageTypeNames {
		if s == n {
			return DamageType(i), nil
		}
	}
	return DamNone, fmt.Errorf("unknown damage type %q", name)
}

// UnmarshalYAML accepts a damage type name.
func (d *DamageType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDamageType(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML emits the damage type name.
func (d DamageType) MarshalYAML() (interface{}, error) { return d.String(), nil }

// IsPhysical reports whether d is a weapon category.
func (d DamageType) IsPhysical() bool { return d == DamBash || d == DamPierce || d == DamSlash }

// ArmorClass maps d onto the armor category that defends against it.
func (d DamageType) ArmorClass() inventory.ArmorClass {
	switch d {
	case DamPierce:
		return inventory.ACPierce
	case DamBash:
		return inventory.ACBash
	case DamSlash:
		return inventory.ACSlash
	default:
		return inventory.ACExotic
	}
}

// IRV is a set of damage categories used for immunities, resistances and
// vulnerabilities. Weapon and Magic are umbrella bits.
type IRV uint32

const (
	IRVSummon IRV = 1 << iota
	IRVCharm
	IRVMagic
	IRVWeapon
	IRVBash
	IRVPierce
	IRVSlash
	IRVFire
	IRVCold
	IRVLightning
	IRVAcid
	IRVPoison
	IRVNegative
	IRVHoly
	IRVEnergy
	IRVMental
	IRVDisease
	IRVDrowning
	IRVLight
	IRVSound
)

var irvNames = []string{
	"summon", "charm", "magic", "weapon", "bash", "pierce", "slash", "fire",
	"cold", "lightning", "acid", "poison", "negative", "holy", "energy",
	"mental", "disease", "drowning", "light", "sound",
}

// Has reports whether every bit in o is set.
func (f IRV) Has(o IRV) bool { return o != 0 && f&o == o }

// Names returns the set flag names in declaration order.
func (f IRV) Names() []string { return flagNames(uint64(f), irvNames) }

// UnmarshalYAML accepts a list of category names.
func (f *IRV) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeFlags(node, irvNames, "damage category")
	*f = IRV(v)
	return err
}

// MarshalYAML emits the set category names.
func (f IRV) MarshalYAML() (interface{}, error) { return f.Names(), nil }

// irvBit maps a damage type onto its specific IRV bit; 0 means only the
// umbrella bit applies.
var irvBit = map[DamageType]IRV{
	DamBash:      IRVBash,
	DamPierce:    IRVPierce,
	DamSlash:     IRVSlash,
	DamFire:      IRVFire,
	DamCold:      IRVCold,
	DamLightning: IRVLightning,
	DamAcid:      IRVAcid,
	DamPoison:    IRVPoison,
	DamNegative:  IRVNegative,
	DamHoly:      IRVHoly,
	DamEnergy:    IRVEnergy,
	DamMental:    IRVMental,
	DamDisease:   IRVDisease,
	DamDrowning:  IRVDrowning,
	DamLight:     IRVLight,
	DamCharm:     IRVCharm,
	DamSound:     IRVSound,
}

// Susceptibility is the outcome of classifying damage against IRV sets.
type Susceptibility int

const (
	SusNormal Susceptibility = iota
	SusImmune
	SusResistant
	SusVulnerable
)

func (s Susceptibility) String() string {
	switch s {
	case SusImmune:
		return "immune"
	case SusResistant:
		return "resistant"
	case SusVulnerable:
		return "vulnerable"
	default:
		return "normal"
	}
}

// CheckImmune classifies dt against c's immune/resistant/vulnerable sets.
// The umbrella bit (weapon or magic) sets the default; a specific bit
// overrides it, and a specific vulnerability downgrades one step.
func CheckImmune(c *Combatant, dt DamageType) Susceptibility {
	if dt == DamNone {
		return SusNormal
	}
	umbrella := IRVMagic
	if dt.IsPhysical() {
		umbrella = IRVWeapon
	}
	def := SusNormal
	switch {
	case c.Imm.Has(umbrella):
		def = SusImmune
	case c.Res.Has(umbrella):
		def = SusResistant
	case c.Vuln.Has(umbrella):
		def = SusVulnerable
	}

	bit, ok := irvBit[dt]
	if !ok {
		return def
	}
	out := def
	switch {
	case c.Imm.Has(bit):
		out = SusImmune
	case c.Res.Has(bit):
		out = SusResistant
	}
	if c.Vuln.Has(bit) {
		switch out {
		case SusImmune:
			out = SusResistant
		case SusResistant:
			out = SusNormal
		default:
			out = SusVulnerable
		}
	}
	return out
}

// AttackType is one row of the attack table: the verb shown in messages and
// the damage category it inflicts.
type AttackType struct {
	Name   string     `yaml:"name"`
	Noun   string     `yaml:"noun"`
	Damage DamageType `yaml:"damage"`
}

// AttackTable is the immutable table of weapon and innate attack kinds.
// Index 0 is the generic "hit" and is the fallback for unknown names.
type AttackTable struct {
	rows  []AttackType
	index map[string]int
}

// NewAttackTable builds a table from rows.
//
// Precondition: rows is non-empty; rows[0] is the generic fallback.
func NewAttackTable(rows []AttackType) (*AttackTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("attack table must not be empty")
	}
	t := &AttackTable{rows: append([]AttackType(nil), rows...), index: make(map[string]int, len(rows))}
	for i, r := range rows {
		if r.Name == "" {
			return nil, fmt.Errorf("attack table row %d: name must not be empty", i)
		}
		if _, dup := t.index[r.Name]; dup {
			return nil, fmt.Errorf("attack table: duplicate name %q", r.Name)
		}
		t.index[r.Name] = i
	}
	return t, nil
}

// DefaultAttackTable returns the built-in attack table.
func DefaultAttackTable() *AttackTable {
	t, err := NewAttackTable(defaultAttacks)
	if err != nil {
		panic("combat: default attack table: " + err.Error())
	}
	return t
}

// LoadAttackTable reads a YAML list of attack rows from path.
func LoadAttackTable(path string) (*AttackTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attack table %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var rows []AttackType
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing attack table %s: %w", path, err)
	}
	return NewAttackTable(rows)
}

// Len returns the number of rows.
func (t *AttackTable) Len() int { return len(t.rows) }

// Lookup returns the index of name, or 0 when name is unknown.
func (t *AttackTable) Lookup(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return 0
}

// Find returns the index of name and whether it is present.
func (t *AttackTable) Find(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// At returns row i, falling back to row 0 for an out-of-range index.
func (t *AttackTable) At(i int) AttackType {
	if i < 0 || i >= len(t.rows) {
		return t.rows[0]
	}
	return t.rows[i]
}

var defaultAttacks = []AttackType{
	{"none", "hit", DamNone},
	{"slice", "slice", DamSlash},
	{"stab", "stab", DamPierce},
	{"slash", "slash", DamSlash},
	{"whip", "whip", DamSlash},
	{"claw", "claw", DamSlash},
	{"blast", "blast", DamBash},
	{"pound", "pound", DamBash},
	{"crush", "crush", DamBash},
	{"grep", "grep", DamSlash},
	{"bite", "bite", DamPierce},
	{"pierce", "pierce", DamPierce},
	{"suction", "suction", DamBash},
	{"beating", "beating", DamBash},
	{"digestion", "digestion", DamAcid},
	{"charge", "charge", DamBash},
	{"slap", "slap", DamBash},
	{"punch", "punch", DamBash},
	{"wrath", "wrath", DamEnergy},
	{"magic", "magic", DamEnergy},
	{"divine", "divine power", DamHoly},
	{"cleave", "cleave", DamSlash},
	{"scratch", "scratch", DamPierce},
	{"peck", "peck", DamPierce},
	{"peckb", "peck", DamBash},
	{"chop", "chop", DamSlash},
	{"sting", "sting", DamPierce},
	{"smash", "smash", DamBash},
	{"shbite", "shocking bite", DamLightning},
	{"flbite", "flaming bite", DamFire},
	{"frbite", "freezing bite", DamCold},
	{"acbite", "acidic bite", DamAcid},
	{"chomp", "chomp", DamPierce},
	{"drain", "life drain", DamNegative},
	{"thrust", "thrust", DamPierce},
	{"slime", "slime", DamAcid},
	{"shock", "shock", DamLightning},
	{"thwack", "thwack", DamBash},
	{"flame", "flame", DamFire},
	{"chill", "chill", DamCold},
}
