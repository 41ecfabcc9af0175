package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
)

// Kind classifies an item prototype.
type Kind string

// Kind constants for ItemDef.Kind.
const (
	KindWeapon    Kind = "weapon"
	KindArmor     Kind = "armor"
	KindPotion    Kind = "potion"
	KindScroll    Kind = "scroll"
	KindFood      Kind = "food"
	KindContainer Kind = "container"
	KindMoney     Kind = "money"
	KindTrash     Kind = "trash"
	KindCorpseNPC Kind = "corpse_npc"
	KindCorpsePC  Kind = "corpse_pc"
)

// validKinds is the set of kinds a prototype file may declare.
// Corpses and money are only ever created at runtime.
var validKinds = map[Kind]bool{
	KindWeapon:    true,
	KindArmor:     true,
	KindPotion:    true,
	KindScroll:    true,
	KindFood:      true,
	KindContainer: true,
	KindTrash:     true,
}

// IsCorpse reports whether k is either corpse kind.
func (k Kind) IsCorpse() bool { return k == KindCorpseNPC || k == KindCorpsePC }

// ExtraFlags is the set of behavioral flags carried by an item.
type ExtraFlags uint32

const (
	ExtraGlow ExtraFlags = 1 << iota
	ExtraHum
	ExtraNoDrop
	ExtraNoRemove
	ExtraAntiGood
	ExtraAntiEvil
	ExtraAntiNeutral
	// ExtraInventory items are destroyed rather than left on a corpse.
	ExtraInventory
	// ExtraRotDeath items start decaying when their carrier dies.
	ExtraRotDeath
	// ExtraVisDeath items are invisible until their carrier dies.
	ExtraVisDeath
	ExtraMeltDrop
)

var extraNames = []string{
	"glow", "hum", "no_drop", "no_remove", "anti_good", "anti_evil",
	"anti_neutral", "inventory", "rot_death", "vis_death", "melt_drop",
}

// Has reports whether every bit in o is set.
func (f ExtraFlags) Has(o ExtraFlags) bool { return f&o == o && o != 0 }

// Names returns the set flag names in declaration order.
func (f ExtraFlags) Names() []string { return bitNames(uint64(f), extraNames) }

func (f ExtraFlags) String() string { return joinNames(f.Names()) }

// UnmarshalYAML accepts a list of flag names.
func (f *ExtraFlags) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeBitNames(node, extraNames, "extra flag")
	if err != nil {
		return err
	}
	*f = ExtraFlags(v)
	return nil
}

// MarshalYAML emits the list of set flag names.
func (f ExtraFlags) MarshalYAML() (interface{}, error) { return f.Names(), nil }

// ArmorClass indexes the four armor categories.
type ArmorClass int

const (
	ACPierce ArmorClass = iota
	ACBash
	ACSlash
	ACExotic
	// ArmorClasses is the number of armor categories.
	ArmorClasses
)

var armorClassNames = []string{"pierce", "bash", "slash", "exotic"}

func (a ArmorClass) String() string {
	if a < 0 || a >= ArmorClasses {
		return fmt.Sprintf("armorclass(%d)", int(a))
	}
	return armorClassNames[a]
}

// ItemDef defines the static properties of an item prototype loaded from YAML.
type ItemDef struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Kind        Kind            `yaml:"kind"`
	Level       int             `yaml:"level"`
	Weight      int             `yaml:"weight"`
	Value       int             `yaml:"value"`
	Wear        Slot            `yaml:"wear"`
	Extra       ExtraFlags      `yaml:"extra"`
	Armor       [4]int          `yaml:"armor"`
	Weapon      *WeaponDef      `yaml:"weapon"`
	Affects     []affect.Affect `yaml:"affects"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of weapon, armor, potion, scroll, food, container, trash; got %q", d.Kind))
	}
	if d.Weight < 0 {
		errs = append(errs, errors.New("Weight must be >= 0"))
	}
	if d.Wear != SlotNone && !d.Wear.Valid() {
		errs = append(errs, fmt.Errorf("Wear slot %q is not recognized", d.Wear))
	}
	if d.Kind == KindWeapon {
		if d.Weapon == nil {
			errs = append(errs, errors.New("weapon block is required when Kind is weapon"))
		} else if err := d.Weapon.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// Item is a live instance of an ItemDef (or a runtime-created corpse, money
// pile or severed body part).
type Item struct {
	ID          string
	PrototypeID string
	Name        string
	Description string
	Kind        Kind
	Level       int
	Weight      int
	Value       int
	// Timer counts down once per tick while positive; the item decays at 0.
	Timer int
	Extra ExtraFlags
	// CanWear is the slot this item may be equipped into.
	CanWear Slot
	// WornAt is the slot the item currently occupies, SlotNone when carried.
	WornAt  Slot
	Armor   [4]int
	Weapon  *WeaponDef
	Affects affect.List
	// Contents holds items inside containers and corpses.
	Contents []*Item
	// Money is non-zero only on money piles.
	Money Wealth
	// Owner restricts looting of a player corpse; empty means unrestricted.
	Owner string
	// Poisoned marks food that sickens whoever eats it.
	Poisoned bool
}

// NewItem instantiates def at the given level with a fresh identity.
//
// Precondition: def is non-nil and valid.
// Postcondition: the returned item's ID is a new uuid; prototype affects are copied.
func NewItem(def *ItemDef, level int) *Item {
	it := &Item{
		ID:          uuid.NewString(),
		PrototypeID: def.ID,
		Name:        def.Name,
		Description: def.Description,
		Kind:        def.Kind,
		Level:       level,
		Weight:      def.Weight,
		Value:       def.Value,
		Extra:       def.Extra,
		CanWear:     def.Wear,
		Armor:       def.Armor,
		Weapon:      def.Weapon,
	}
	if level <= 0 {
		it.Level = def.Level
	}
	it.Affects.Restore(def.Affects)
	return it
}

// NewContainer creates an empty runtime container such as a corpse.
func NewContainer(kind Kind, name, description string, level int) *Item {
	return &Item{
		ID:          uuid.NewString(),
		PrototypeID: string(kind),
		Name:        name,
		Description: description,
		Kind:        kind,
		Level:       level,
	}
}

// Put moves child into it.
func (it *Item) Put(child *Item) {
	child.WornAt = SlotNone
	it.Contents = append(it.Contents, child)
}

// TakeAll empties the item's contents and returns them.
func (it *Item) TakeAll() []*Item {
	out := it.Contents
	it.Contents = nil
	return out
}

// IsWeapon reports whether the item carries weapon stats.
func (it *Item) IsWeapon() bool { return it != nil && it.Kind == KindWeapon && it.Weapon != nil }

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice sorted by ID.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		d, err := LoadItemFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// LoadItemFromBytes parses and validates a single item prototype.
func LoadItemFromBytes(data []byte) (*ItemDef, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	var d ItemDef
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing item: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func bitNames(v uint64, table []string) []string {
	var out []string
	for i, n := range table {
		if v&(1<<uint(i)) != 0 {
			out = append(out, n)
		}
	}
	return out
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, " ")
}

func decodeBitNames(node *yaml.Node, table []string, what string) (uint64, error) {
	var names []string
	if err := node.Decode(&names); err != nil {
		return 0, err
	}
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
