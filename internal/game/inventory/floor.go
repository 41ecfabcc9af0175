package inventory

import "sync"

// FloorManager tracks items lying on the floor of rooms.
// It is thread-safe via sync.RWMutex.
type FloorManager struct {
	mu    sync.RWMutex
	rooms map[string][]*Item
}

// Decayed reports one item whose timer ran out during Tick.
type Decayed struct {
	RoomID  string
	Item    *Item
	Message string
}

// NewFloorManager creates a FloorManager with no items on any floor.
//
// Postcondition: returned FloorManager is ready for use with zero items.
func NewFloorManager() *FloorManager {
	return &FloorManager{
		rooms: make(map[string][]*Item),
	}
}

// Drop places an item on the floor of the given room.
//
// Precondition: roomID is non-empty; it is non-nil.
// Postcondition: it is appended to the room's floor items.
func (fm *FloorManager) Drop(roomID string, it *Item) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	it.WornAt = SlotNone
	fm.rooms[roomID] = append(fm.rooms[roomID], it)
}

// Pickup removes and returns the item with the given ID from the room.
// Returns false if the item is not found.
//
// Postcondition: on success, the item is removed from the room's floor and returned;
// on failure, room state is unchanged.
func (fm *FloorManager) Pickup(roomID, itemID string) (*Item, bool) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	items := fm.rooms[roomID]
	for i, it := range items {
		if it.ID == itemID {
			fm.rooms[roomID] = append(items[:i], items[i+1:]...)
			return it, true
		}
	}
	return nil, false
}

// PickupAll removes and returns all items from the room's floor.
//
// Postcondition: the room's floor is empty; returned slice contains all previously held items.
func (fm *FloorManager) PickupAll(roomID string) []*Item {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	items := fm.rooms[roomID]
	if len(items) == 0 {
		return []*Item{}
	}
	delete(fm.rooms, roomID)
	return items
}

// ItemsInRoom returns a snapshot copy of the item list on the floor of the given room.
//
// Postcondition: returned slice is a copy; mutations to it do not affect internal state.
func (fm *FloorManager) ItemsInRoom(roomID string) []*Item {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	items := fm.rooms[roomID]
	out := make([]*Item, len(items))
	copy(out, items)
	return out
}

// Tick counts down every positive floor timer once and removes items that
// reach zero. Player corpses and floating items spill their contents onto
// the floor; anything else takes its contents with it.
//
// Postcondition: no item left on any floor has Timer == 0 after being positive.
func (fm *FloorManager) Tick() []Decayed {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	var out []Decayed
	for roomID, items := range fm.rooms {
		kept := items[:0]
		var spilled []*Item
		for _, it := range items {
			if it.Timer <= 0 {
				kept = append(kept, it)
				continue
			}
			it.Timer--
			if it.Timer > 0 {
				kept = append(kept, it)
				continue
			}
			out = append(out, Decayed{RoomID: roomID, Item: it, Message: DecayMessage(it)})
			if it.Kind == KindCorpsePC || it.CanWear == SlotFloat {
				spilled = append(spilled, it.TakeAll()...)
			}
		}
		kept = append(kept, spilled...)
		if len(kept) == 0 {
			delete(fm.rooms, roomID)
			continue
		}
		fm.rooms[roomID] = kept
	}
	return out
}

// DecayMessage returns the room message shown when it decays.
func DecayMessage(it *Item) string {
	switch {
	case it.Kind.IsCorpse():
		return it.Name + " decays into dust."
	case it.Kind == KindFood:
		return it.Name + " decomposes."
	case it.Kind == KindPotion:
		return it.Name + " has evaporated from disuse."
	case it.CanWear == SlotFloat:
		return it.Name + " flickers and vanishes."
	default:
		return it.Name + " crumbles into dust."
	}
}
