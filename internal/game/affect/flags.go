// Package affect models timed affects: the boolean affect flags a combatant
// carries, the timed modifiers that grant them, and the YAML definitions that
// fix each affect type's stacking policy.
package affect

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flags is a bitset of boolean affects (blind, sanctuary, haste, ...).
type Flags uint64

// Affect flag bits.
const (
	Blind Flags = 1 << iota
	Invisible
	DetectEvil
	DetectInvis
	DetectMagic
	DetectHidden
	DetectGood
	Sanctuary
	FaerieFire
	Infrared
	Curse
	Poison
	ProtectEvil
	ProtectGood
	Sneak
	Hide
	Sleep
	Charm
	Flying
	PassDoor
	Haste
	Calm
	Plague
	Weaken
	DarkVision
	Berserk
	Swim
	Regeneration
	Slow
)

var flagNames = map[string]Flags{
	"blind":         Blind,
	"invisible":     Invisible,
	"detect_evil":   DetectEvil,
	"detect_invis":  DetectInvis,
	"detect_magic":  DetectMagic,
	"detect_hidden": DetectHidden,
	"detect_good":   DetectGood,
	"sanctuary":     Sanctuary,
	"faerie_fire":   FaerieFire,
	"infrared":      Infrared,
	"curse":         Curse,
	"poison":        Poison,
	"protect_evil":  ProtectEvil,
	"protect_good":  ProtectGood,
	"sneak":         Sneak,
	"hide":          Hide,
	"sleep":         Sleep,
	"charm":         Charm,
	"flying":        Flying,
	"pass_door":     PassDoor,
	"haste":         Haste,
	"calm":          Calm,
	"plague":        Plague,
	"weaken":        Weaken,
	"dark_vision":   DarkVision,
	"berserk":       Berserk,
	"swim":          Swim,
	"regeneration":  Regeneration,
	"slow":          Slow,
}

// Has reports whether every bit in want is set.
func (f Flags) Has(want Flags) bool { return want != 0 && f&want == want }

// Any reports whether at least one bit in want is set.
func (f Flags) Any(want Flags) bool { return f&want != 0 }

// Count returns the number of set bits.
func (f Flags) Count() int { return bits.OnesCount64(uint64(f)) }

// Names returns the sorted flag names set in f.
func (f Flags) Names() []string {
	var out []string
	for name, bit := range flagNames {
		if f&bit != 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// String joins Names with "|", or "none".
func (f Flags) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseFlags resolves a list of flag names.
//
// Postcondition: returns an error naming the first unknown flag.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, n := range names {
		bit, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown affect flag %q", n)
		}
		f |= bit
	}
	return f, nil
}

// UnmarshalYAML accepts a sequence of flag names.
func (f *Flags) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return fmt.Errorf("affect flags: %w", err)
	}
	parsed, err := ParseFlags(names)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalYAML emits the sorted flag names.
func (f Flags) MarshalYAML() (interface{}, error) {
	return f.Names(), nil
}
