package affect

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudcore/internal/game/dice"
)

// Location names the stat a timed affect modifies.
type Location int

const (
	LocNone Location = iota
	LocStrength
	LocDexterity
	LocIntelligence
	LocWisdom
	LocConstitution
	LocMana
	LocHealth
	LocStamina
	LocHitroll
	LocDamroll
	LocArmor
	LocSaves
)

var locationNames = []string{
	"none", "strength", "dexterity", "intelligence", "wisdom", "constitution",
	"mana", "health", "stamina", "hitroll", "damroll", "armor", "saves",
}

func (l Location) String() string {
	if l < 0 || int(l) >= len(locationNames) {
		return fmt.Sprintf("location(%d)", int(l))
	}
	return locationNames[l]
}

// ParseLocation resolves a location by name.
func ParseLocation(name string) (Location, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range locationNames {
		if s == n {
			return Location(i), nil
		}
	}
	return LocNone, fmt.Errorf("unknown affect location %q", name)
}

// UnmarshalYAML accepts a location name.
func (l *Location) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalYAML emits the location name.
func (l Location) MarshalYAML() (interface{}, error) { return l.String(), nil }

// Permanent is the Duration of an affect that never expires on its own.
const Permanent = -1

// Affect is one timed modifier on a combatant or item.
type Affect struct {
	Type     string   `yaml:"type" json:"type"`
	Level    int      `yaml:"level" json:"level"`
	Duration int      `yaml:"duration" json:"duration"`
	Location Location `yaml:"location" json:"location"`
	Modifier int      `yaml:"modifier" json:"modifier"`
	Bit      Flags    `yaml:"bit" json:"bit"`
}

// Holder receives the stat and flag side effects of affects entering and
// leaving a List.
type Holder interface {
	Modify(loc Location, mod int)
	AddFlags(f Flags)
	RemoveFlags(f Flags)
}

// List is the ordered collection of timed affects owned by one holder.
// It is not safe for concurrent use; the caller must serialise access.
type List struct {
	items []Affect
}

// Len returns the number of affects.
func (l *List) Len() int { return len(l.items) }

// All returns a copy of the affects in insertion order.
func (l *List) All() []Affect {
	out := make([]Affect, len(l.items))
	copy(out, l.items)
	return out
}

// Bits returns the union of flags granted by every affect.
func (l *List) Bits() Flags {
	var f Flags
	for _, a := range l.items {
		f |= a.Bit
	}
	return f
}

// Has reports whether an affect of type typ is present.
func (l *List) Has(typ string) bool {
	_, ok := l.Find(typ)
	return ok
}

// Find returns the first affect of type typ.
func (l *List) Find(typ string) (Affect, bool) {
	for _, a := range l.items {
		if a.Type == typ {
			return a, true
		}
	}
	return Affect{}, false
}

// Add appends a as a new instance and applies its modifier and flag.
//
// Postcondition: Len() grows by one; existing affects of the same type are untouched.
func (l *List) Add(h Holder, a Affect) {
	l.items = append(l.items, a)
	h.Modify(a.Location, a.Modifier)
	h.AddFlags(a.Bit)
}

// Join merges a into every existing affect of the same type and then adds
// the result: levels are averaged, durations and modifiers are summed.
//
// Postcondition: exactly one affect of a.Type remains when none or one existed before.
func (l *List) Join(h Holder, a Affect) {
	for i := 0; i < len(l.items); {
		old := l.items[i]
		if old.Type != a.Type {
			i++
			continue
		}
		a.Level = (a.Level + old.Level) / 2
		if a.Duration != Permanent && old.Duration != Permanent {
			a.Duration += old.Duration
		} else {
			a.Duration = Permanent
		}
		a.Modifier += old.Modifier
		l.removeAt(h, i)
	}
	l.Add(h, a)
}

// Apply inserts a according to policy.
func (l *List) Apply(h Holder, policy Policy, a Affect) {
	if policy == PolicyJoin {
		l.Join(h, a)
		return
	}
	l.Add(h, a)
}

// Strip removes every affect of type typ and returns how many were removed.
func (l *List) Strip(h Holder, typ string) int {
	n := 0
	for i := 0; i < len(l.items); {
		if l.items[i].Type == typ {
			l.removeAt(h, i)
			n++
			continue
		}
		i++
	}
	return n
}

// Weaken lowers the level and duration of the first affect of type typ by
// the given amounts, never below zero, and returns the weakened affect.
// A permanent affect keeps its duration.
func (l *List) Weaken(typ string, level, duration int) (Affect, bool) {
	for i := range l.items {
		a := &l.items[i]
		if a.Type != typ {
			continue
		}
		a.Level = max(0, a.Level-level)
		if a.Duration != Permanent {
			a.Duration = max(0, a.Duration-duration)
		}
		return *a, true
	}
	return Affect{}, false
}

// Clear removes every affect.
func (l *List) Clear(h Holder) {
	for len(l.items) > 0 {
		l.removeAt(h, len(l.items)-1)
	}
}

// Restore replaces the list contents without applying modifiers; used when
// loading a holder whose stats already include them.
func (l *List) Restore(items []Affect) {
	l.items = append([]Affect(nil), items...)
}

func (l *List) removeAt(h Holder, i int) {
	a := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	h.Modify(a.Location, -a.Modifier)
	if a.Bit != 0 {
		h.RemoveFlags(a.Bit)
		// another affect may still grant the same bit
		if still := l.Bits() & a.Bit; still != 0 {
			h.AddFlags(still)
		}
	}
}

// Tick advances every affect by one tick. Affects with a positive duration
// count down and lose a level one time in five; those reaching zero are
// removed and returned. Permanent affects never change.
func (l *List) Tick(h Holder, rng dice.RNG) []Affect {
	var expired []Affect
	for i := 0; i < len(l.items); {
		a := &l.items[i]
		if a.Duration < 0 {
			i++
			continue
		}
		if a.Duration > 0 {
			a.Duration--
			if rng.Range(0, 4) == 0 && a.Level > 0 {
				a.Level--
			}
		}
		if a.Duration == 0 {
			expired = append(expired, *a)
			l.removeAt(h, i)
			continue
		}
		i++
	}
	return expired
}
