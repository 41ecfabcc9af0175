package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/ruleset"
)

// RawKill kills victim outright: the fight ends, the death cry sounds, a
// corpse is left and the victim is either removed (NPC) or reset at its
// recall point (player). killer may be nil.
func (e *Engine) RawKill(victim, killer *Combatant) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rawKill(victim, killer)
}

func (e *Engine) rawKill(victim, killer *Combatant) {
	e.stopFighting(victim, true)
	e.deathCry(victim)
	corpse := e.makeCorpse(victim)

	if victim.IsNPC() {
		e.kills.ByTemplate[victim.TemplateID]++
		e.kills.ByLevel[victim.Level]++
		e.nukePets(victim)
		e.dieFollower(victim)
		e.remove(victim)
		victim.Position = PosDead
		e.logger.Debug("npc killed",
			zap.String("victim", victim.Name),
			zap.String("template", victim.TemplateID),
			zap.Int("level", victim.Level),
		)
	} else {
		e.nukePets(victim)
		e.resetPlayer(victim)
	}

	for _, h := range e.deathHooks {
		h(victim, killer, corpse)
	}
}

// resetPlayer returns a dead player to its recall point, stripped of
// affects and resting with at least 1 in every pool.
func (e *Engine) resetPlayer(c *Combatant) {
	if r := e.room(c); r != nil {
		if recall := e.rooms.RecallRoom(r.ZoneID); recall != "" {
			c.Room = recall
		}
	}
	c.Affects.Clear(c)
	c.AffectedBy = c.InnateAffects
	armor := e.rules.Damage.DefaultArmor
	for i := range c.Armor {
		c.Armor[i] = armor
	}
	c.Position = PosResting
	c.Health = max(1, c.Health)
	c.Mana = max(1, c.Mana)
	c.Stamina = max(1, c.Stamina)
	c.Fighting = ""
}

// deathCry is one outcome of the death cry roll: the room message and the
// body part left behind, if any.
type deathCry struct {
	Part    BodyParts
	Message string
	// Leaves names the severed object; its Kind decides whether it is food.
	Leaves string
	Kind   inventory.Kind
}

var deathCries = map[int]deathCry{
	0: {Message: "$n hits the ground ... DEAD."},
	1: {Message: "$n splatters blood on your armor."},
	2: {PartGuts, "$n spills $s guts all over the floor.", "the guts of %s", inventory.KindFood},
	3: {PartHead, "$n's severed head plops on the ground.", "the severed head of %s", inventory.KindTrash},
	4: {PartHeart, "$n's heart is torn from $s chest.", "the torn-out heart of %s", inventory.KindFood},
	5: {PartArms, "$n's arm is sliced from $s dead body.", "the sliced-off arm of %s", inventory.KindFood},
	6: {PartLegs, "$n's leg is sliced from $s dead body.", "the sliced-off leg of %s", inventory.KindFood},
	7: {PartBrains, "$n's head is shattered, and $s brains splash all over you.", "the splattered brains of %s", inventory.KindFood},
}

// deathCry broadcasts the victim's last moments to its room and to every
// room one open exit away, sometimes leaving a body part behind.
func (e *Engine) deathCry(c *Combatant) {
	msg := "You hear $n's death cry."
	cry, ok := deathCries[e.env.RNG.Bits(4)]
	if ok && (cry.Part == 0 || c.Parts.Has(cry.Part)) {
		msg = cry.Message
	} else {
		cry = deathCry{}
	}
	e.act(msg, c, nil, nil, toRoom)

	if cry.Leaves != "" {
		part := inventory.NewContainer(cry.Kind, fmt.Sprintf(cry.Leaves, c.Name), "", c.Level)
		part.Timer = e.span(e.rules.Corpse.SeveredPart)
		if part.Kind == inventory.KindFood {
			switch {
			case c.Form.Has(FormPoison):
				part.Poisoned = true
			case !c.Form.Has(FormEdible):
				part.Kind = inventory.KindTrash
			}
		}
		e.floor.Drop(c.Room, part)
	}

	far := "You hear someone's death cry."
	if c.IsNPC() {
		far = "You hear something's death cry."
	}
	if r := e.room(c); r != nil {
		for _, ex := range r.OpenExits() {
			e.env.Messenger.ToRoom(ex.TargetRoom, far)
		}
	}
}

func (e *Engine) span(s ruleset.Span) int { return e.env.RNG.Range(s.Min, s.Max) }

// makeCorpse builds the victim's corpse, moves its belongings in and drops
// it in the victim's room.
func (e *Engine) makeCorpse(c *Combatant) *inventory.Item {
	var corpse *inventory.Item
	if c.IsNPC() {
		corpse = inventory.NewContainer(inventory.KindCorpseNPC,
			"the corpse of "+c.Name, fmt.Sprintf("The corpse of %s is lying here.", c.Name), c.Level)
		corpse.Timer = e.span(e.rules.Corpse.NPCDecay)
		if !c.Wealth.IsZero() {
			corpse.Put(inventory.NewMoney(c.Wealth.TakeAll()))
		}
	} else {
		corpse = inventory.NewContainer(inventory.KindCorpsePC,
			"the corpse of "+c.Name, fmt.Sprintf("The corpse of %s is lying here.", c.Name), c.Level)
		corpse.Timer = e.span(e.rules.Corpse.PlayerDecay)
		c.Plr &^= PlrCanLoot
		if !c.InClan() {
			corpse.Owner = c.ID
		} else if c.Wealth.Gold > 1 || c.Wealth.Silver > 1 {
			corpse.Put(inventory.NewMoney(c.Wealth.TakeHalf()))
		}
	}

	floating := c.Equipment.At(inventory.SlotFloat)
	for _, it := range c.Equipment.All() {
		c.Unequip(it.WornAt)
	}
	carried := c.Carried
	c.Carried = nil

	rules := e.rules.Corpse
	for _, it := range carried {
		isFloat := it == floating
		switch it.Kind {
		case inventory.KindPotion:
			it.Timer = e.span(rules.PotionDecay)
		case inventory.KindScroll:
			it.Timer = e.span(rules.ScrollDecay)
		}
		if it.Extra.Has(inventory.ExtraRotDeath) && !isFloat {
			it.Timer = e.span(rules.RotDeath)
			it.Extra &^= inventory.ExtraRotDeath
		}
		it.Extra &^= inventory.ExtraVisDeath

		switch {
		case it.Extra.Has(inventory.ExtraInventory):
		case isFloat && it.Extra.Has(inventory.ExtraRotDeath):
			if len(it.Contents) > 0 {
				e.act("$p evaporates, scattering its contents.", c, it, nil, toRoom)
				for _, sub := range it.TakeAll() {
					e.floor.Drop(c.Room, sub)
				}
			} else {
				e.act("$p evaporates.", c, it, nil, toRoom)
			}
		case isFloat:
			e.act("$p falls to the floor.", c, it, nil, toRoom)
			e.floor.Drop(c.Room, it)
		default:
			corpse.Put(it)
		}
	}
	e.floor.Drop(c.Room, corpse)
	return corpse
}

// CanLoot reports whether looter may take from corpse: unrestricted
// corpses, the owner, the owner's group and anyone the owner has
// consented to are allowed.
func (e *Engine) CanLoot(looter *Combatant, corpse *inventory.Item) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isImmortal(looter) || corpse.Owner == "" {
		return true
	}
	owner := e.lookup(corpse.Owner)
	switch {
	case owner == nil, owner == looter:
		return true
	case owner.IsPlayer() && owner.Plr.Has(PlrCanLoot):
		return true
	}
	return e.sameGroup(looter, owner)
}

// DescribeContents lists a container's contents with duplicates folded,
// e.g. "( 2) a rusty dagger".
func DescribeContents(container *inventory.Item) []string {
	groups := inventory.GroupByPrototype(container.Contents)
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Count() > 1 {
			out = append(out, fmt.Sprintf("(%2d) %s", g.Count(), g.Name))
			continue
		}
		out = append(out, "     "+g.Name)
	}
	return out
}
