package npc

import (
	"fmt"

	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// CurrencyDrop is the range of gold an NPC carries on top of its wealth.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop is one item prototype an NPC may carry, with a percent chance.
type ItemDrop struct {
	ItemID string `yaml:"item"`
	Chance int    `yaml:"chance"`
	MinQty int    `yaml:"min_qty"`
	MaxQty int    `yaml:"max_qty"`
}

// LootTable lists what an NPC carries into its corpse.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	Items    []ItemDrop    `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Postcondition: Returns nil iff all currency and item constraints hold;
// an empty loot table (no currency, no items) is valid.
func (lt *LootTable) Validate() error {
	if lt.Currency != nil {
		if lt.Currency.Min < 0 {
			return fmt.Errorf("loot table: currency min must be >= 0, got %d", lt.Currency.Min)
		}
		if lt.Currency.Min > lt.Currency.Max {
			return fmt.Errorf("loot table: currency min (%d) must be <= max (%d)", lt.Currency.Min, lt.Currency.Max)
		}
	}
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance <= 0 || item.Chance > 100 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 100], got %d", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// LootResult holds what a freshly spawned NPC carries.
type LootResult struct {
	Gold  int
	Items []*inventory.Item
}

// GenerateLoot rolls lt through rng, instantiating dropped prototypes at
// level. Prototypes the source does not know are skipped and reported in
// the returned error, which never prevents the rest of the roll.
//
// Postcondition: Gold is in [Currency.Min, Currency.Max] if currency is set.
func GenerateLoot(lt LootTable, level int, rng dice.RNG, items ItemSource) (LootResult, error) {
	var result LootResult
	var missing []string

	if lt.Currency != nil && lt.Currency.Max > 0 {
		result.Gold = rng.Range(lt.Currency.Min, lt.Currency.Max)
	}

	for _, drop := range lt.Items {
		if rng.Percent() >= drop.Chance {
			continue
		}
		qty := rng.Range(drop.MinQty, drop.MaxQty)
		for i := 0; i < qty; i++ {
			it, err := items.Instantiate(drop.ItemID, level)
			if err != nil {
				missing = append(missing, drop.ItemID)
				break
			}
			result.Items = append(result.Items, it)
		}
	}

	if len(missing) > 0 {
		return result, fmt.Errorf("loot table: unknown item prototypes %v", missing)
	}
	return result, nil
}
