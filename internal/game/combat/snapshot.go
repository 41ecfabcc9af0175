package combat

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// Snapshot is the persisted form of a Combatant. Worn and carried items are
// not part of it; fights, waits and ownership are runtime state.
type Snapshot struct {
	ID         string `yaml:"id" json:"id"`
	Kind       Kind   `yaml:"kind" json:"kind"`
	Name       string `yaml:"name" json:"name"`
	TemplateID string `yaml:"template_id,omitempty" json:"template_id,omitempty"`
	Level      int    `yaml:"level" json:"level"`
	Sex        Sex    `yaml:"sex" json:"sex"`
	Class      string `yaml:"class,omitempty" json:"class,omitempty"`
	Race       string `yaml:"race,omitempty" json:"race,omitempty"`
	Clan       string `yaml:"clan,omitempty" json:"clan,omitempty"`

	Act   ActFlags    `yaml:"act" json:"act"`
	Off   OffFlags    `yaml:"off" json:"off"`
	Plr   PlayerFlags `yaml:"plr" json:"plr"`
	Group int         `yaml:"group,omitempty" json:"group,omitempty"`

	Health     int `yaml:"health" json:"health"`
	MaxHealth  int `yaml:"max_health" json:"max_health"`
	Mana       int `yaml:"mana" json:"mana"`
	MaxMana    int `yaml:"max_mana" json:"max_mana"`
	Stamina    int `yaml:"stamina" json:"stamina"`
	MaxStamina int `yaml:"max_stamina" json:"max_stamina"`

	Position        Position `yaml:"position" json:"position"`
	DefaultPosition Position `yaml:"default_position" json:"default_position"`

	Armor [inventory.ArmorClasses]int `yaml:"armor,flow" json:"armor"`
	Imm   IRV                         `yaml:"imm" json:"imm"`
	Res   IRV                         `yaml:"res" json:"res"`
	Vuln  IRV                         `yaml:"vuln" json:"vuln"`

	AffectedBy    affect.Flags    `yaml:"affected_by" json:"affected_by"`
	InnateAffects affect.Flags    `yaml:"innate_affects" json:"innate_affects"`
	Affects       []affect.Affect `yaml:"affects" json:"affects"`

	Hitroll   int    `yaml:"hitroll" json:"hitroll"`
	Damroll   int    `yaml:"damroll" json:"damroll"`
	Saves     int    `yaml:"saves" json:"saves"`
	Stats     [5]int `yaml:"stats,flow" json:"stats"`
	Alignment int    `yaml:"alignment" json:"alignment"`

	Innate      string         `yaml:"innate,omitempty" json:"innate,omitempty"`
	AttackIndex int            `yaml:"attack_index" json:"attack_index"`
	Skills      map[string]int `yaml:"skills,omitempty" json:"skills,omitempty"`

	Wealth     inventory.Wealth `yaml:"wealth" json:"wealth"`
	Experience int              `yaml:"experience" json:"experience"`
	Played     time.Duration    `yaml:"played" json:"played"`
	Wimpy      int              `yaml:"wimpy" json:"wimpy"`
	Drunk      int              `yaml:"drunk,omitempty" json:"drunk,omitempty"`

	Room   string `yaml:"room" json:"room"`
	Leader string `yaml:"leader,omitempty" json:"leader,omitempty"`

	Parts     BodyParts `yaml:"parts" json:"parts"`
	Form      FormFlags `yaml:"form" json:"form"`
	HPTrigger int       `yaml:"hp_trigger,omitempty" json:"hp_trigger,omitempty"`
}

// Snapshot captures c's persistent state. Affects are stored with their
// exact remaining durations; c's stats already include their modifiers.
func (c *Combatant) Snapshot() Snapshot {
	s := Snapshot{
		ID: c.ID, Kind: c.Kind, Name: c.Name, TemplateID: c.TemplateID,
		Level: c.Level, Sex: c.Sex, Class: c.Class, Race: c.Race, Clan: c.Clan,
		Act: c.Act, Off: c.Off, Plr: c.Plr, Group: c.Group,
		Health: c.Health, MaxHealth: c.MaxHealth,
		Mana: c.Mana, MaxMana: c.MaxMana,
		Stamina: c.Stamina, MaxStamina: c.MaxStamina,
		Position: c.Position, DefaultPosition: c.DefaultPosition,
		Armor: c.Armor, Imm: c.Imm, Res: c.Res, Vuln: c.Vuln,
		AffectedBy: c.AffectedBy, InnateAffects: c.InnateAffects,
		Affects: c.Affects.All(),
		Hitroll: c.Hitroll, Damroll: c.Damroll, Saves: c.Saves,
		Stats: c.Stats, Alignment: c.Alignment,
		Innate: c.Innate.Raw, AttackIndex: c.AttackIndex,
		Wealth: c.Wealth, Experience: c.Experience, Wimpy: c.Wimpy, Drunk: c.Drunk,
		Room: c.Room, Leader: c.Leader,
		Parts: c.Parts, Form: c.Form, HPTrigger: c.HPTrigger,
	}
	s.Played = c.Played
	if !c.Logon.IsZero() {
		s.Played += time.Since(c.Logon)
	}
	if len(c.Skills) > 0 {
		s.Skills = make(map[string]int, len(c.Skills))
		for k, v := range c.Skills {
			s.Skills[k] = v
		}
	}
	return s
}

// FromSnapshot rebuilds a combatant from s with empty equipment and no
// fight. The returned combatant's Logon is zero; callers entering it into
// play set it.
//
// Postcondition: FromSnapshot(c.Snapshot()) has the same health,
// position, armor and affects as c.
func FromSnapshot(s Snapshot) (*Combatant, error) {
	var innate dice.Expression
	if s.Innate != "" {
		expr, err := dice.Parse(s.Innate)
		if err != nil {
			return nil, fmt.Errorf("restoring %q innate dice: %w", s.ID, err)
		}
		innate = expr
	}
	c := &Combatant{
		ID: s.ID, Kind: s.Kind, Name: s.Name, TemplateID: s.TemplateID,
		Level: s.Level, Sex: s.Sex, Class: s.Class, Race: s.Race, Clan: s.Clan,
		Act: s.Act, Off: s.Off, Plr: s.Plr, Group: s.Group,
		Health: s.Health, MaxHealth: s.MaxHealth,
		Mana: s.Mana, MaxMana: s.MaxMana,
		Stamina: s.Stamina, MaxStamina: s.MaxStamina,
		Position: s.Position, DefaultPosition: s.DefaultPosition,
		Armor: s.Armor, Imm: s.Imm, Res: s.Res, Vuln: s.Vuln,
		AffectedBy: s.AffectedBy, InnateAffects: s.InnateAffects,
		Hitroll: s.Hitroll, Damroll: s.Damroll, Saves: s.Saves,
		Stats: s.Stats, Alignment: s.Alignment,
		Innate: innate, AttackIndex: s.AttackIndex,
		Skills:    make(map[string]int, len(s.Skills)),
		Equipment: inventory.NewEquipment(),
		Wealth:    s.Wealth, Experience: s.Experience, Played: s.Played,
		Wimpy: s.Wimpy, Drunk: s.Drunk,
		Room: s.Room, Leader: s.Leader,
		Parts: s.Parts, Form: s.Form, HPTrigger: s.HPTrigger,
	}
	for k, v := range s.Skills {
		c.Skills[k] = v
	}
	c.Affects.Restore(s.Affects)
	if c.Position == PosFighting {
		c.Position = PosStanding
	}
	return c, nil
}

// SnapshotPlayers captures every active player in enumeration order.
// Snapshots are taken under the engine lock, so they are consistent with
// each other.
func (e *Engine) SnapshotPlayers() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Snapshot
	for _, id := range e.order {
		if c := e.active[id]; c.IsPlayer() {
			out = append(out, c.Snapshot())
		}
	}
	return out
}
