package combat

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// Stat indexes the five attributes affects may modify.
type Stat int

const (
	StatStr Stat = iota
	StatDex
	StatInt
	StatWis
	StatCon
)

// Combatant represents one participant in combat, either a player or an
// NPC instance.
//
// Invariant: Health may be negative while Position is not Dead; Position is
// a banded function of Health maintained by UpdatePosition.
type Combatant struct {
	ID         string
	Kind       Kind
	Name       string
	TemplateID string
	Level      int
	Sex        Sex
	// Class selects the player to-hit curve.
	Class string
	Race  string
	Clan  string

	Act ActFlags
	Off OffFlags
	Plr PlayerFlags
	// Group is the NPC assist group; 0 means none.
	Group int

	Health, MaxHealth   int
	Mana, MaxMana       int
	Stamina, MaxStamina int

	Position        Position
	DefaultPosition Position

	Armor          [inventory.ArmorClasses]int
	Imm, Res, Vuln IRV

	// AffectedBy is the live flag set; InnateAffects survive affect removal.
	AffectedBy    affect.Flags
	InnateAffects affect.Flags
	Affects       affect.List

	Hitroll, Damroll int
	Saves            int
	Stats            [5]int
	Alignment        int

	// Innate is the NPC's bare-handed damage dice.
	Innate dice.Expression
	// AttackIndex is the NPC's bare-handed attack kind in the attack table.
	AttackIndex int

	// Skills holds learned percentages for players and overrides for NPCs.
	Skills map[string]int

	Equipment *inventory.Equipment
	Carried   []*inventory.Item
	Wealth    inventory.Wealth

	Experience int
	// Played is total time online before the current session.
	Played time.Duration
	Logon  time.Time
	Wimpy  int

	// Wait and Daze count pulses until the combatant may act freely.
	Wait, Daze int
	// Timer counts idle ticks.
	Timer    int
	Linkdead bool
	Drunk    int

	Room string
	// Fighting is the ID of the current opponent; empty when not fighting.
	Fighting string
	// Leader is the ID of the group leader; empty when leading or alone.
	Leader string

	Parts BodyParts
	Form  FormFlags

	// HPTrigger is the health percent at or below which the hp trigger fires.
	HPTrigger int
}

// NewPlayer returns a standing player with full pools and default armor.
func NewPlayer(name, class string, level int) *Combatant {
	return &Combatant{
		ID:              uuid.NewString(),
		Kind:            KindPlayer,
		Name:            name,
		Class:           class,
		Level:           level,
		Health:          20 + 10*level,
		MaxHealth:       20 + 10*level,
		Mana:            100,
		MaxMana:         100,
		Stamina:         100,
		MaxStamina:      100,
		Position:        PosStanding,
		DefaultPosition: PosStanding,
		Armor:           [inventory.ArmorClasses]int{100, 100, 100, 100},
		Skills:          make(map[string]int),
		Equipment:       inventory.NewEquipment(),
		Parts:           HumanoidParts,
		Form:            FormEdible,
	}
}

// IsNPC reports whether this combatant is an NPC.
func (c *Combatant) IsNPC() bool { return c.Kind == KindNPC }

// IsPlayer reports whether this combatant is a player character.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// IsAwake reports whether the combatant is conscious.
func (c *Combatant) IsAwake() bool { return c.Position.IsAwake() }

// IsDead reports whether Position is Dead.
func (c *Combatant) IsDead() bool { return c.Position == PosDead }

// IsAffected reports whether the flag is currently set.
func (c *Combatant) IsAffected(f affect.Flags) bool { return c.AffectedBy.Has(f) }

// IsGood, IsEvil and IsNeutral band alignment at +/-350.
func (c *Combatant) IsGood() bool    { return c.Alignment >= 350 }
func (c *Combatant) IsEvil() bool    { return c.Alignment <= -350 }
func (c *Combatant) IsNeutral() bool { return !c.IsGood() && !c.IsEvil() }

// InClan reports whether the combatant belongs to a player-killing clan.
func (c *Combatant) InClan() bool { return c.Clan != "" }

// Wielded returns the primary weapon, or nil.
func (c *Combatant) Wielded() *inventory.Item { return c.Equipment.At(inventory.SlotWield) }

// OffHand returns the secondary weapon, or nil.
func (c *Combatant) OffHand() *inventory.Item { return c.Equipment.At(inventory.SlotSecondary) }

// Shield returns the worn shield, or nil.
func (c *Combatant) Shield() *inventory.Item { return c.Equipment.At(inventory.SlotShield) }

// HealthPercent returns current health as a percentage of maximum.
func (c *Combatant) HealthPercent() int {
	if c.MaxHealth <= 0 {
		return 0
	}
	return 100 * c.Health / c.MaxHealth
}

// Modify applies an affect modifier. It implements affect.Holder.
func (c *Combatant) Modify(loc affect.Location, mod int) {
	switch loc {
	case affect.LocStrength:
		c.Stats[StatStr] += mod
	case affect.LocDexterity:
		c.Stats[StatDex] += mod
	case affect.LocIntelligence:
		c.Stats[StatInt] += mod
	case affect.LocWisdom:
		c.Stats[StatWis] += mod
	case affect.LocConstitution:
		c.Stats[StatCon] += mod
	case affect.LocMana:
		c.MaxMana += mod
	case affect.LocHealth:
		c.MaxHealth += mod
	case affect.LocStamina:
		c.MaxStamina += mod
	case affect.LocHitroll:
		c.Hitroll += mod
	case affect.LocDamroll:
		c.Damroll += mod
	case affect.LocArmor:
		for i := range c.Armor {
			c.Armor[i] += mod
		}
	case affect.LocSaves:
		c.Saves += mod
	}
}

// AddFlags sets affect flags. It implements affect.Holder.
func (c *Combatant) AddFlags(f affect.Flags) { c.AffectedBy |= f }

// RemoveFlags clears affect flags other than innate ones. It implements affect.Holder.
func (c *Combatant) RemoveFlags(f affect.Flags) {
	c.AffectedBy = (c.AffectedBy &^ f) | c.InnateAffects
}

// allItems returns worn then carried items.
func (c *Combatant) allItems() []*inventory.Item {
	out := c.Equipment.All()
	return append(out, c.Carried...)
}

// removeItem detaches it from equipment or inventory.
func (c *Combatant) removeItem(it *inventory.Item) {
	if it.WornAt != inventory.SlotNone {
		if c.Equipment.At(it.WornAt) == it {
			c.Equipment.Remove(it.WornAt)
			return
		}
	}
	for i, x := range c.Carried {
		if x == it {
			c.Carried = append(c.Carried[:i], c.Carried[i+1:]...)
			return
		}
	}
}

// clampPools keeps every pool at or below its maximum.
func (c *Combatant) clampPools() {
	c.Health = min(c.Health, c.MaxHealth)
	c.Mana = min(c.Mana, c.MaxMana)
	c.Stamina = min(c.Stamina, c.MaxStamina)
}

// Equip wears it at slot, applying its armor and affect modifiers, and
// returns the displaced item, already unapplied and moved to Carried.
func (c *Combatant) Equip(slot inventory.Slot, it *inventory.Item) *inventory.Item {
	if c.Equipment == nil {
		c.Equipment = inventory.NewEquipment()
	}
	prev := c.Unequip(slot)
	for i, x := range c.Carried {
		if x == it {
			c.Carried = append(c.Carried[:i], c.Carried[i+1:]...)
			break
		}
	}
	c.Equipment.Wear(slot, it)
	c.applyItem(it, 1)
	return prev
}

// Unequip removes the item at slot into Carried and reverses its modifiers.
func (c *Combatant) Unequip(slot inventory.Slot) *inventory.Item {
	it := c.Equipment.Remove(slot)
	if it == nil {
		return nil
	}
	c.applyItem(it, -1)
	c.Carried = append(c.Carried, it)
	return it
}

func (c *Combatant) applyItem(it *inventory.Item, sign int) {
	for i := range c.Armor {
		c.Armor[i] -= sign * it.Armor[i]
	}
	for _, a := range it.Affects.All() {
		c.Modify(a.Location, sign*a.Modifier)
		if a.Bit != 0 {
			if sign > 0 {
				c.AddFlags(a.Bit)
			} else {
				c.RemoveFlags(a.Bit)
			}
		}
	}
}
