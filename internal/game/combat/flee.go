package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

const fleeAttempts = 6

// Flee tries to carry ch out of its fight through a random open exit.
// It reports whether ch escaped.
func (e *Engine) Flee(ch *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flee(ch)
}

func (e *Engine) flee(ch *Combatant) bool {
	if ch.Fighting == "" {
		if ch.Position == PosFighting {
			ch.Position = PosStanding
		}
		e.tell(ch, "You aren't fighting anyone.")
		return false
	}
	r := e.room(ch)
	if r == nil {
		e.tell(ch, "PANIC! You couldn't escape!")
		return false
	}

	for attempt := 0; attempt < fleeAttempts; attempt++ {
		dir := world.Directions[e.env.RNG.Range(0, len(world.Directions)-1)]
		ex, ok := r.ExitForDirection(dir)
		if !ok || ex.Closed || ex.TargetRoom == "" || ex.TargetRoom == r.ID {
			continue
		}
		if e.env.RNG.Range(0, ch.Daze) != 0 {
			continue
		}
		if _, ok := e.rooms.GetRoom(ex.TargetRoom); !ok {
			continue
		}

		from := ch.Room
		e.act("$n has fled!", ch, nil, nil, toRoom)
		ch.Room = ex.TargetRoom
		e.logger.Debug("fled",
			zap.String("combatant", ch.Name),
			zap.String("from", from),
			zap.String("to", ch.Room),
		)

		if ch.IsPlayer() {
			e.tell(ch, "You flee from combat!")
			if ch.Class == "thief" && e.env.RNG.Percent() < 3*(ch.Level/2) {
				e.tell(ch, "You snuck away safely.")
			} else {
				loss := e.rules.XP.FleeLoss
				e.tell(ch, fmt.Sprintf("You lost %d exp.", loss))
				e.gainExp(ch, -loss)
			}
		}
		e.stopFighting(ch, true)
		if ch.IsNPC() {
			e.triggers.Fire(TriggerFlee, ch, nil, 0)
		}
		return true
	}

	e.tell(ch, "PANIC! You couldn't escape!")
	return false
}

// Recall prays c back to its zone's recall room, taking along any pets
// standing with it. Recalling out of a fight costs experience and can fail
// on the recall skill.
func (e *Engine) Recall(c *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recall(c, true)
}

// recall moves c to its recall room. A linkdead player is pulled out
// without a skill check and at the higher experience cost.
func (e *Engine) recall(c *Combatant, checkSkill bool) bool {
	if c.IsNPC() && !c.Act.Has(ActPet) {
		e.tell(c, "Only players can recall.")
		return false
	}
	e.act("$n prays for transportation!", c, nil, nil, toRoom)

	r := e.room(c)
	if r == nil {
		return false
	}
	dest := e.rooms.RecallRoom(r.ZoneID)
	if dest == "" || dest == c.Room {
		return false
	}
	if r.Flags.Has(world.RoomNoRecall) || c.IsAffected(affect.Curse) {
		e.tell(c, "The gods have forsaken you.")
		return false
	}

	if c.Fighting != "" {
		if checkSkill {
			skill := e.env.Skill(c, SkillRecall)
			if e.env.RNG.Percent() >= 80*skill/100 {
				e.env.Improve(c, SkillRecall, false, 6)
				c.Wait = max(c.Wait, 4)
				e.tell(c, "You failed!")
				return false
			}
		}
		lose := 25
		if c.Linkdead || !checkSkill {
			lose = 50
		}
		e.gainExp(c, -lose)
		if checkSkill {
			e.env.Improve(c, SkillRecall, true, 4)
		}
		e.tell(c, fmt.Sprintf("You recall from combat!  You lose %d exps.", lose))
		e.stopFighting(c, true)
	}

	from := c.Room
	c.Stamina /= 2
	e.act("$n disappears.", c, nil, nil, toRoom)
	c.Room = dest
	e.act("$n appears in the room.", c, nil, nil, toRoom)

	for _, id := range e.owners.Owned(c.ID) {
		if pet := e.lookup(id); pet != nil && pet.Room == from {
			e.recall(pet, checkSkill)
		}
	}
	return true
}
