package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
)

// IsSafe reports whether victim is protected from a physical attack by ch.
// A protected target produces a refusal message to ch.
func (e *Engine) IsSafe(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSafe(ch, victim)
}

func (e *Engine) isSafe(ch, victim *Combatant) bool {
	if ch.Room != victim.Room || ch.Room == "" {
		return true
	}
	if victim == ch || victim.Fighting == ch.ID {
		return false
	}
	if e.isImmortal(ch) {
		return false
	}
	if e.veto != nil {
		if msg, vetoed := e.veto.Veto(ch, victim); vetoed {
			if msg != "" {
				e.tell(ch, msg)
			}
			return true
		}
	}
	safeRoom := e.room(victim).IsSafe()

	if victim.IsNPC() {
		switch {
		case safeRoom:
			e.tell(ch, "Not in this room.")
			return true
		case victim.Act.Has(ActShopkeeper):
			e.tell(ch, "The shopkeeper wouldn't like that.")
			return true
		case victim.Act.Has(ActTrainer), victim.Act.Has(ActPractice),
			victim.Act.Has(ActHealer), victim.Act.Has(ActChanger):
			e.tell(ch, "I don't think the guildmaster would approve.")
			return true
		}
		if ch.IsPlayer() {
			if victim.Act.Has(ActPet) {
				e.act("But $N looks so cute and cuddly...", ch, nil, victim, toChar)
				return true
			}
			if victim.IsAffected(affect.Charm) && e.owners.MasterOf(victim.ID) != ch.ID {
				e.tell(ch, "You don't own that monster.")
				return true
			}
		}
		return false
	}

	if ch.IsNPC() {
		if safeRoom {
			e.tell(ch, "Not in this room.")
			return true
		}
		if m := e.master(ch); m != nil && ch.IsAffected(affect.Charm) && m.Fighting != victim.ID {
			e.tell(ch, "Players are your friends!")
			return true
		}
		return false
	}

	if !ch.InClan() {
		e.tell(ch, "Join a clan if you want to kill players.")
		return true
	}
	if victim.Plr.Has(PlrKiller) || victim.Plr.Has(PlrThief) {
		return false
	}
	if !victim.InClan() {
		e.tell(ch, "They aren't in a clan, leave them alone.")
		return true
	}
	if ch.Level > victim.Level+e.rules.PKLevelGap {
		e.tell(ch, "Pick on someone your own size.")
		return true
	}
	return false
}

// IsSafeSpell reports whether victim is protected from a spell cast by ch.
// An area spell never hits its caster, immortals or creatures outside the
// caster's fight. No message is sent.
func (e *Engine) IsSafeSpell(ch, victim *Combatant, area bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSafeSpell(ch, victim, area)
}

func (e *Engine) isSafeSpell(ch, victim *Combatant, area bool) bool {
	if ch.Room != victim.Room || ch.Room == "" {
		return true
	}
	if victim == ch && area {
		return true
	}
	if victim == ch || victim.Fighting == ch.ID {
		return false
	}
	if e.isImmortal(ch) && !area {
		return false
	}
	if e.veto != nil {
		if _, vetoed := e.veto.Veto(ch, victim); vetoed {
			return true
		}
	}
	safeRoom := e.room(victim).IsSafe()

	if victim.IsNPC() {
		if safeRoom || victim.Act.Has(ActShopkeeper) || victim.Act.Has(ActTrainer) ||
			victim.Act.Has(ActPractice) || victim.Act.Has(ActHealer) || victim.Act.Has(ActChanger) {
			return true
		}
		if ch.IsPlayer() {
			if victim.Act.Has(ActPet) {
				return true
			}
			if victim.IsAffected(affect.Charm) && (area || e.owners.MasterOf(victim.ID) != ch.ID) {
				return true
			}
			if f := e.lookup(victim.Fighting); f != nil && !e.sameGroup(ch, f) {
				return true
			}
			return false
		}
		if area {
			f := e.lookup(ch.Fighting)
			if f == nil || !e.sameGroup(victim, f) {
				return true
			}
		}
		return false
	}

	if area && e.isImmortal(victim) {
		return true
	}
	if ch.IsNPC() {
		if m := e.master(ch); m != nil && ch.IsAffected(affect.Charm) && m.Fighting != victim.ID {
			return true
		}
		if safeRoom {
			return true
		}
		if f := e.lookup(ch.Fighting); f != nil && !e.sameGroup(f, victim) {
			return true
		}
		return false
	}
	if !ch.InClan() {
		return true
	}
	if victim.Plr.Has(PlrKiller) || victim.Plr.Has(PlrThief) {
		return false
	}
	if !victim.InClan() {
		return true
	}
	return ch.Level > victim.Level+e.rules.PKLevelGap
}

// CheckKillSteal reports whether ch attacking victim would steal another
// group's kill, telling ch so.
func (e *Engine) CheckKillSteal(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.killSteal(ch, victim)
}

func (e *Engine) killSteal(ch, victim *Combatant) bool {
	if !victim.IsNPC() || victim.Fighting == "" || victim.Fighting == ch.ID {
		return false
	}
	f := e.lookup(victim.Fighting)
	if f == nil || e.sameGroup(ch, f) {
		return false
	}
	e.tell(ch, "Kill stealing is not permitted.")
	return true
}

// checkKiller flags a clan player who starts a fight with another player.
// Attacking a charmed creature counts as attacking its master.
func (e *Engine) checkKiller(ch, victim *Combatant) {
	for i := 0; i < 8 && victim.IsAffected(affect.Charm); i++ {
		m := e.master(victim)
		if m == nil {
			break
		}
		victim = m
	}
	if victim.IsNPC() || victim.Plr.Has(PlrKiller) || victim.Plr.Has(PlrThief) {
		return
	}
	if ch.IsAffected(affect.Charm) {
		if e.master(ch) == nil {
			e.logger.Error("charmed combatant without a master")
			ch.Affects.Strip(ch, "charm person")
			ch.RemoveFlags(affect.Charm)
			return
		}
		e.stopFollower(ch)
		return
	}
	if ch.IsNPC() || ch == victim || e.isImmortal(ch) || !ch.InClan() ||
		ch.Plr.Has(PlrKiller) || ch.Fighting == victim.ID {
		return
	}
	e.tell(ch, "*** You are now a KILLER!! ***")
	ch.Plr |= PlrKiller
	e.logger.Info("player flagged killer", zap.String("attacker", ch.Name), zap.String("victim", victim.Name))
}

func (e *Engine) leaderOf(c *Combatant) string {
	if c.Leader != "" {
		return c.Leader
	}
	return c.ID
}

// sameGroup reports whether a and b follow the same leader.
func (e *Engine) sameGroup(a, b *Combatant) bool {
	if a == nil || b == nil {
		return false
	}
	return e.leaderOf(a) == e.leaderOf(b)
}
