package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// GroupGain awards experience for victim to every player in ch's group
// standing in ch's room.
func (e *Engine) GroupGain(ch, victim *Combatant) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groupGain(ch, victim)
}

func (e *Engine) groupGain(ch, victim *Combatant) {
	if victim == ch {
		return
	}
	here := e.inRoom(ch.Room)
	members, levels := 0, 0
	for _, g := range here {
		if !e.sameGroup(g, ch) {
			continue
		}
		members++
		if g.IsNPC() {
			levels += g.Level / 2
		} else {
			levels += g.Level
		}
	}
	if members == 0 {
		e.logger.Error("group gain with no members in the room", zap.String("killer", ch.Name))
		levels = ch.Level
	}

	lch := e.lookup(ch.Leader)
	if lch == nil {
		lch = ch
	}
	window := e.rules.XP.GroupWindow
	for _, g := range here {
		if !e.sameGroup(g, ch) || g.IsNPC() {
			continue
		}
		if window > 0 {
			if g.Level-lch.Level >= window {
				e.tell(g, "You are too high for this group.")
				continue
			}
			if g.Level-lch.Level <= -window {
				e.tell(g, "You are too low for this group.")
				continue
			}
		}
		xp := e.ops.XPCompute(e.env, g, victim, levels)
		e.tell(g, fmt.Sprintf("You receive %d experience points.", xp))
		e.gainExp(g, xp)
		e.zapAligned(g)
	}
}

// zapAligned drops worn items whose alignment restriction g now violates.
func (e *Engine) zapAligned(g *Combatant) {
	for _, it := range g.Equipment.All() {
		if (it.Extra.Has(inventory.ExtraAntiEvil) && g.IsEvil()) ||
			(it.Extra.Has(inventory.ExtraAntiGood) && g.IsGood()) ||
			(it.Extra.Has(inventory.ExtraAntiNeutral) && g.IsNeutral()) {
			e.act("You are zapped by $p.", g, it, nil, toChar)
			e.act("$n is zapped by $p.", g, it, nil, toRoom)
			g.Unequip(it.WornAt)
			g.removeItem(it)
			e.floor.Drop(g.Room, it)
		}
	}
}

// GainExp adds gain to a player's experience, never dropping below the
// first level's threshold, and advances levels up to hero.
func (e *Engine) GainExp(c *Combatant, gain int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gainExp(c, gain)
}

func (e *Engine) gainExp(c *Combatant, gain int) {
	hero := e.rules.ImmortalLevel - 1
	if c.IsNPC() || c.Level >= hero {
		return
	}
	epl := e.rules.XP.ExpPerLevel
	c.Experience = max(epl, c.Experience+gain)
	for c.Level < hero && c.Experience >= epl*(c.Level+1) {
		e.tell(c, "You raise a level!!  ")
		c.Level++
		c.MaxHealth += 10
		e.logger.Info("level gained", zap.String("player", c.Name), zap.Int("level", c.Level))
	}
}
