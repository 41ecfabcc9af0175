package combat

import (
	"sort"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
)

// Ownership records which combatant masters which charmed followers. It
// holds IDs only, so removing either side never leaves a dangling pointer.
// It is not safe for concurrent use; the Engine serialises access.
type Ownership struct {
	masterOf map[string]string
	owned    map[string]map[string]struct{}
}

// NewOwnership returns an empty table.
func NewOwnership() *Ownership {
	return &Ownership{
		masterOf: make(map[string]string),
		owned:    make(map[string]map[string]struct{}),
	}
}

// Bind makes owner the master of pet, replacing any previous master.
func (o *Ownership) Bind(owner, pet string) {
	o.Release(pet)
	o.masterOf[pet] = owner
	set, ok := o.owned[owner]
	if !ok {
		set = make(map[string]struct{})
		o.owned[owner] = set
	}
	set[pet] = struct{}{}
}

// Release frees pet from its master, if any.
func (o *Ownership) Release(pet string) {
	owner, ok := o.masterOf[pet]
	if !ok {
		return
	}
	delete(o.masterOf, pet)
	if set := o.owned[owner]; set != nil {
		delete(set, pet)
		if len(set) == 0 {
			delete(o.owned, owner)
		}
	}
}

// MasterOf returns pet's master ID, or "".
func (o *Ownership) MasterOf(pet string) string { return o.masterOf[pet] }

// Owned returns the IDs owner masters, sorted.
func (o *Ownership) Owned(owner string) []string {
	set := o.owned[owner]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RemoveAll drops every link naming id on either side.
func (o *Ownership) RemoveAll(id string) {
	o.Release(id)
	for _, pet := range o.Owned(id) {
		delete(o.masterOf, pet)
	}
	delete(o.owned, id)
}

// Charm binds pet to master: pet follows master, joins its group and
// carries the charm flag.
func (e *Engine) Charm(master, pet *Combatant) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owners.Bind(master.ID, pet.ID)
	pet.Leader = master.ID
	pet.AddFlags(affect.Charm)
}

// MasterOf returns c's master if it is still active.
func (e *Engine) MasterOf(c *Combatant) (*Combatant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.master(c)
	return m, m != nil
}

func (e *Engine) master(c *Combatant) *Combatant {
	return e.lookup(e.owners.MasterOf(c.ID))
}

// stopFollower breaks c's bond to its master and clears charm.
func (e *Engine) stopFollower(c *Combatant) {
	m := e.master(c)
	if c.IsAffected(affect.Charm) {
		c.Affects.Strip(c, "charm person")
		c.RemoveFlags(affect.Charm)
	}
	if m != nil && m.Room == c.Room {
		e.act("$n stops following you.", c, nil, m, toVict)
		e.act("You stop following $N.", c, nil, m, toChar)
	}
	e.owners.Release(c.ID)
	c.Leader = ""
}

// dieFollower detaches c from its master and frees everything c owned or led.
func (e *Engine) dieFollower(c *Combatant) {
	if e.owners.MasterOf(c.ID) != "" {
		e.stopFollower(c)
	}
	c.Leader = ""
	for _, id := range e.owners.Owned(c.ID) {
		if pet := e.lookup(id); pet != nil {
			e.stopFollower(pet)
		}
	}
	for _, id := range e.order {
		if o := e.active[id]; o.Leader == c.ID {
			o.Leader = ""
		}
	}
}

// nukePets removes c's pets from the simulation.
func (e *Engine) nukePets(c *Combatant) {
	for _, id := range e.owners.Owned(c.ID) {
		pet := e.lookup(id)
		if pet == nil || !pet.Act.Has(ActPet) {
			continue
		}
		e.stopFollower(pet)
		e.act("$n slowly fades away.", pet, nil, nil, toRoom)
		e.stopFighting(pet, true)
		e.remove(pet)
	}
}
