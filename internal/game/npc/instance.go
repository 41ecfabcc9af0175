package npc

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// ItemSource instantiates item prototypes. *inventory.Registry satisfies it.
type ItemSource interface {
	Instantiate(id string, level int) (*inventory.Item, error)
}

// NewCombatant rolls a live NPC from tmpl, placed in roomID.
//
// Precondition: tmpl has passed Validate.
// Postcondition: Health == MaxHealth, rolled from the hit dice; the NPC
// wears its equipment and carries its inventory and loot. An error names
// any item prototype that could not be instantiated; the combatant is
// still returned without it.
func NewCombatant(tmpl *Template, roomID string, rng dice.RNG, attacks *combat.AttackTable, items ItemSource) (*combat.Combatant, error) {
	sex, _ := parseSex(tmpl.Sex)
	hp := max(1, dice.Roll(dice.MustParse(tmpl.HitDice), rng).Total())
	mana := 100
	if tmpl.ManaDice != "" {
		mana = max(0, dice.Roll(dice.MustParse(tmpl.ManaDice), rng).Total())
	}
	pos := tmpl.Position
	if pos == combat.PosDead {
		pos = combat.PosStanding
	}
	def := tmpl.DefaultPosition
	if def == combat.PosDead {
		def = pos
	}

	c := &combat.Combatant{
		ID:              uuid.NewString(),
		Kind:            combat.KindNPC,
		Name:            tmpl.Name,
		TemplateID:      tmpl.ID,
		Level:           tmpl.Level,
		Sex:             sex,
		Race:            tmpl.Race,
		Act:             tmpl.Act,
		Off:             tmpl.Off,
		Group:           tmpl.Group,
		Health:          hp,
		MaxHealth:       hp,
		Mana:            mana,
		MaxMana:         mana,
		Stamina:         100,
		MaxStamina:      100,
		Position:        pos,
		DefaultPosition: def,
		Imm:             tmpl.Imm,
		Res:             tmpl.Res,
		Vuln:            tmpl.Vuln,
		AffectedBy:      tmpl.Affected,
		InnateAffects:   tmpl.Affected,
		Hitroll:         tmpl.Hitroll,
		Alignment:       tmpl.Alignment,
		Innate:          dice.MustParse(tmpl.DamageDice),
		AttackIndex:     attacks.Lookup(tmpl.Attack),
		Skills:          make(map[string]int, len(tmpl.Skills)),
		Equipment:       inventory.NewEquipment(),
		Wealth:          rollWealth(tmpl.Wealth, rng),
		Parts:           tmpl.Parts,
		Form:            tmpl.Form,
		HPTrigger:       tmpl.HPTrigger,
		Room:            roomID,
	}
	if c.Parts == 0 {
		c.Parts = combat.HumanoidParts
	}
	for i := range c.Armor {
		c.Armor[i] = 100
		if len(tmpl.Armor) == int(inventory.ArmorClasses) {
			c.Armor[i] = tmpl.Armor[i]
		}
	}
	for k, v := range tmpl.Skills {
		c.Skills[k] = v
	}

	var missing []string
	for _, e := range tmpl.Equipment {
		it, err := items.Instantiate(e.Item, tmpl.Level)
		if err != nil {
			missing = append(missing, e.Item)
			continue
		}
		c.Equip(e.Slot, it)
	}
	for _, id := range tmpl.Inventory {
		it, err := items.Instantiate(id, tmpl.Level)
		if err != nil {
			missing = append(missing, id)
			continue
		}
		c.Carried = append(c.Carried, it)
	}

	var lootErr error
	if tmpl.Loot != nil {
		loot, err := GenerateLoot(*tmpl.Loot, tmpl.Level, rng, items)
		c.Wealth.Gold += loot.Gold
		c.Carried = append(c.Carried, loot.Items...)
		lootErr = err
	}

	switch {
	case len(missing) > 0:
		return c, fmt.Errorf("npc %q: unknown item prototypes %v", tmpl.ID, missing)
	case lootErr != nil:
		return c, fmt.Errorf("npc %q: %w", tmpl.ID, lootErr)
	}
	return c, nil
}

// rollWealth spreads an average silver value into gold and silver the way
// shopkeepers expect: a few gold coins and the rest in silver.
func rollWealth(avg int, rng dice.RNG) inventory.Wealth {
	if avg <= 0 {
		return inventory.Wealth{}
	}
	w := rng.Range(avg/2, 3*avg/2)
	gold := rng.Range(w/200, w/100)
	return inventory.Wealth{Gold: gold, Silver: w - gold*100}
}
