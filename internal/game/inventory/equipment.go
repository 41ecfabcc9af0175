package inventory

// Slot identifies a body location an item can be worn at.
type Slot string

const (
	SlotNone      Slot = ""
	SlotLight     Slot = "light"
	SlotHead      Slot = "head"
	SlotNeck      Slot = "neck"
	SlotBody      Slot = "body"
	SlotArms      Slot = "arms"
	SlotHands     Slot = "hands"
	SlotWaist     Slot = "waist"
	SlotLegs      Slot = "legs"
	SlotFeet      Slot = "feet"
	SlotShield    Slot = "shield"
	SlotWield     Slot = "wield"
	SlotSecondary Slot = "secondary"
	SlotHold      Slot = "hold"
	SlotFloat     Slot = "float"
)

// slotOrder fixes the iteration order of Equipment.All.
var slotOrder = []Slot{
	SlotLight, SlotHead, SlotNeck, SlotBody, SlotArms, SlotHands, SlotWaist,
	SlotLegs, SlotFeet, SlotShield, SlotWield, SlotSecondary, SlotHold, SlotFloat,
}

// slotDisplayNames maps every slot identifier to its human-readable label.
var slotDisplayNames = map[Slot]string{
	SlotLight:     "used as light",
	SlotHead:      "worn on head",
	SlotNeck:      "worn around neck",
	SlotBody:      "worn on torso",
	SlotArms:      "worn on arms",
	SlotHands:     "worn on hands",
	SlotWaist:     "worn about waist",
	SlotLegs:      "worn on legs",
	SlotFeet:      "worn on feet",
	SlotShield:    "worn as shield",
	SlotWield:     "wielded",
	SlotSecondary: "secondary weapon",
	SlotHold:      "held",
	SlotFloat:     "floating nearby",
}

// Valid reports whether s names a known slot.
func (s Slot) Valid() bool {
	_, ok := slotDisplayNames[s]
	return ok
}

// DisplayName returns the human-readable label for the slot, or the raw
// identifier when it is not registered.
func (s Slot) DisplayName() string {
	if label, ok := slotDisplayNames[s]; ok {
		return label
	}
	return string(s)
}

// Equipment maps worn slots to items. The zero value is ready to use.
type Equipment struct {
	slots map[Slot]*Item
}

// NewEquipment returns an empty Equipment.
func NewEquipment() *Equipment {
	return &Equipment{slots: make(map[Slot]*Item)}
}

// At returns the item worn at slot, or nil.
func (e *Equipment) At(slot Slot) *Item {
	if e == nil {
		return nil
	}
	return e.slots[slot]
}

// Wear places it at slot and returns whatever it displaced.
//
// Precondition: slot is valid.
// Postcondition: At(slot) == it; it.WornAt == slot.
func (e *Equipment) Wear(slot Slot, it *Item) *Item {
	if e.slots == nil {
		e.slots = make(map[Slot]*Item)
	}
	prev := e.slots[slot]
	if prev != nil {
		prev.WornAt = SlotNone
	}
	e.slots[slot] = it
	it.WornAt = slot
	return prev
}

// Remove clears slot and returns the item that was there, or nil.
func (e *Equipment) Remove(slot Slot) *Item {
	if e == nil {
		return nil
	}
	it := e.slots[slot]
	if it == nil {
		return nil
	}
	delete(e.slots, slot)
	it.WornAt = SlotNone
	return it
}

// All returns worn items in a stable slot order.
func (e *Equipment) All() []*Item {
	if e == nil {
		return nil
	}
	out := make([]*Item, 0, len(e.slots))
	for _, s := range slotOrder {
		if it := e.slots[s]; it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of occupied slots.
func (e *Equipment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.slots)
}
