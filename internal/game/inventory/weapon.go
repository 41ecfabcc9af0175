package inventory

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudcore/internal/game/dice"
)

// WeaponClass selects the proficiency a weapon trains and a few special rules
// (daggers backstab harder).
type WeaponClass string

const (
	WeaponExotic  WeaponClass = "exotic"
	WeaponSword   WeaponClass = "sword"
	WeaponMace    WeaponClass = "mace"
	WeaponDagger  WeaponClass = "dagger"
	WeaponAxe     WeaponClass = "axe"
	WeaponSpear   WeaponClass = "spear"
	WeaponFlail   WeaponClass = "flail"
	WeaponWhip    WeaponClass = "whip"
	WeaponPolearm WeaponClass = "polearm"
)

var validWeaponClasses = map[WeaponClass]bool{
	WeaponExotic: true, WeaponSword: true, WeaponMace: true, WeaponDagger: true,
	WeaponAxe: true, WeaponSpear: true, WeaponFlail: true, WeaponWhip: true, WeaponPolearm: true,
}

// WeaponFlags are the special properties a weapon may carry.
type WeaponFlags uint32

const (
	WeaponFlaming WeaponFlags = 1 << iota
	WeaponFrost
	WeaponVampiric
	WeaponSharp
	WeaponVorpal
	WeaponTwoHands
	WeaponShocking
	WeaponPoison
)

var weaponFlagNames = []string{
	"flaming", "frost", "vampiric", "sharp", "vorpal", "two_hands", "shocking", "poison",
}

// Has reports whether every bit in o is set.
func (f WeaponFlags) Has(o WeaponFlags) bool { return f&o == o && o != 0 }

// Names returns the set flag names in declaration order.
func (f WeaponFlags) Names() []string { return bitNames(uint64(f), weaponFlagNames) }

func (f WeaponFlags) String() string { return joinNames(f.Names()) }

// UnmarshalYAML accepts a list of flag names.
func (f *WeaponFlags) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeBitNames(node, weaponFlagNames, "weapon flag")
	if err != nil {
		return err
	}
	*f = WeaponFlags(v)
	return nil
}

// MarshalYAML emits the list of set flag names.
func (f WeaponFlags) MarshalYAML() (interface{}, error) { return f.Names(), nil }

// WeaponDef holds the combat stats of a weapon prototype.
type WeaponDef struct {
	Class WeaponClass `yaml:"class"`
	// DamageDice is a dice expression such as "2d8"; modifiers are ignored.
	DamageDice string `yaml:"damage_dice"`
	// Attack names an entry of the attack table ("slash", "pierce", ...).
	Attack string      `yaml:"attack"`
	Flags  WeaponFlags `yaml:"flags"`
}

// Validate checks that the WeaponDef satisfies its invariants.
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponDef) Validate() error {
	var errs []error
	if !validWeaponClasses[w.Class] {
		errs = append(errs, fmt.Errorf("weapon class %q is not recognized", w.Class))
	}
	if w.DamageDice == "" {
		errs = append(errs, errors.New("DamageDice must not be empty"))
	} else if _, err := dice.Parse(w.DamageDice); err != nil {
		errs = append(errs, fmt.Errorf("DamageDice: %w", err))
	}
	if w.Attack == "" {
		errs = append(errs, errors.New("Attack must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// Dice returns the weapon's dice count and sides.
// An unparseable expression yields 1d4 so a bad prototype still swings.
func (w *WeaponDef) Dice() (count, sides int) {
	expr, err := dice.Parse(w.DamageDice)
	if err != nil {
		return 1, 4
	}
	return expr.Count, expr.Sides
}
