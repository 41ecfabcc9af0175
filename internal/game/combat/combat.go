// Package combat resolves violence between combatants: to-hit rolls, damage
// calculation and application, position changes, death and its aftermath,
// experience awards and the safety rules that decide whether an attack is
// allowed at all.
package combat

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes player combatants from NPC combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

func (k Kind) String() string {
	if k == KindNPC {
		return "npc"
	}
	return "player"
}

// Sex selects pronouns in messages.
type Sex int

const (
	SexNeutral Sex = iota
	SexMale
	SexFemale
)

func (s Sex) subject() string {
	switch s {
	case SexMale:
		return "he"
	case SexFemale:
		return "she"
	default:
		return "it"
	}
}

func (s Sex) object() string {
	switch s {
	case SexMale:
		return "him"
	case SexFemale:
		return "her"
	default:
		return "it"
	}
}

func (s Sex) possessive() string {
	switch s {
	case SexMale:
		return "his"
	case SexFemale:
		return "her"
	default:
		return "its"
	}
}

// ActFlags are NPC role flags.
type ActFlags uint32

const (
	ActWarrior ActFlags = 1 << iota
	ActThief
	ActCleric
	ActMage
	ActWimpy
	ActPet
	ActTrainer
	ActPractice
	ActHealer
	ActChanger
	ActShopkeeper
	// ActNoAlign victims shift nobody's alignment.
	ActNoAlign
)

var actNames = []string{
	"warrior", "thief", "cleric", "mage", "wimpy", "pet", "trainer",
	"practice", "healer", "changer", "shopkeeper", "noalign",
}

// Has reports whether every bit in o is set.
func (f ActFlags) Has(o ActFlags) bool { return o != 0 && f&o == o }

// Names returns the set flag names in declaration order.
func (f ActFlags) Names() []string { return flagNames(uint64(f), actNames) }

// UnmarshalYAML accepts a list of flag names.
func (f *ActFlags) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeFlags(node, actNames, "act flag")
	*f = ActFlags(v)
	return err
}

// MarshalYAML emits the set flag names.
func (f ActFlags) MarshalYAML() (interface{}, error) { return f.Names(), nil }

// OffFlags are NPC offensive behaviors and assist rules.
type OffFlags uint32

const (
	OffAreaAttack OffFlags = 1 << iota
	OffBackstab
	OffBash
	OffBerserk
	OffDisarm
	OffDodge
	OffFast
	OffKick
	OffDirtKick
	OffParry
	OffTail
	OffTrip
	OffCrush
	AssistAll
	AssistAlign
	AssistRace
	AssistPlayers
	AssistVnum
)

var offNames = []string{
	"area_attack", "backstab", "bash", "berserk", "disarm", "dodge", "fast",
	"kick", "dirt_kick", "parry", "tail", "trip", "crush", "assist_all",
	"assist_align", "assist_race", "assist_players", "assist_vnum",
}

// Has reports whether every bit in o is set.
func (f OffFlags) Has(o OffFlags) bool { return o != 0 && f&o == o }

// Names returns the set flag names in declaration order.
func (f OffFlags) Names() []string { return flagNames(uint64(f), offNames) }

// UnmarshalYAML accepts a list of flag names.
func (f *OffFlags) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeFlags(node, offNames, "offense flag")
	*f = OffFlags(v)
	return err
}

// MarshalYAML emits the set flag names.
func (f OffFlags) MarshalYAML() (interface{}, error) { return f.Names(), nil }

// PlayerFlags are per-player combat flags.
type PlayerFlags uint32

const (
	PlrKiller PlayerFlags = 1 << iota
	PlrThief
	// PlrCanLoot lets anyone loot this player's corpse.
	PlrCanLoot
	PlrAutoAssist
)

var plrNames = []string{"killer", "thief", "canloot", "autoassist"}

// Has reports whether every bit in o is set.
func (f PlayerFlags) Has(o PlayerFlags) bool { return o != 0 && f&o == o }

// Names returns the set flag names in declaration order.
func (f PlayerFlags) Names() []string { return flagNames(uint64(f), plrNames) }

// BodyParts is the body plan consulted by the death cry.
type BodyParts uint32

const (
	PartHead BodyParts = 1 << iota
	PartArms
	PartLegs
	PartHeart
	PartBrains
	PartGuts
)

var partNames = []string{"head", "arms", "legs", "heart", "brains", "guts"}

// HumanoidParts is the default body plan.
const HumanoidParts = PartHead | PartArms | PartLegs | PartHeart | PartBrains | PartGuts

// Has reports whether every bit in o is set.
func (f BodyParts) Has(o BodyParts) bool { return o != 0 && f&o == o }

// UnmarshalYAML accepts a list of part names.
func (f *BodyParts) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeFlags(node, partNames, "body part")
	*f = BodyParts(v)
	return err
}

// MarshalYAML emits the set part names.
func (f BodyParts) MarshalYAML() (interface{}, error) { return flagNames(uint64(f), partNames), nil }

// FormFlags describe what a body is made of.
type FormFlags uint32

const (
	FormEdible FormFlags = 1 << iota
	FormPoison
	FormUndead
)

var formNames = []string{"edible", "poison", "undead"}

// Has reports whether every bit in o is set.
func (f FormFlags) Has(o FormFlags) bool { return o != 0 && f&o == o }

// UnmarshalYAML accepts a list of form names.
func (f *FormFlags) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeFlags(node, formNames, "form")
	*f = FormFlags(v)
	return err
}

// MarshalYAML emits the set form names.
func (f FormFlags) MarshalYAML() (interface{}, error) { return flagNames(uint64(f), formNames), nil }

func flagNames(v uint64, table []string) []string {
	var out []string
	for i, n := range table {
		if v&(1<<uint(i)) != 0 {
			out = append(out, n)
		}
	}
	return out
}

func parseFlagNames(names []string, table []string, what string) (uint64, error) {
	var v uint64
	for _, raw := range names {
		n := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for i, s := range table {
			if s == n {
				v |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown %s %q", what, raw)
		}
	}
	return v, nil
}

func decodeFlags(node *yaml.Node, table []string, what string) (uint64, error) {
	var names []string
	if err := node.Decode(&names); err != nil {
		return 0, err
	}
	return parseFlagNames(names, table, what)
}
