package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// SoftCap halves the part of dam above each cap in turn.
//
// Postcondition: the result is non-decreasing in dam.
func SoftCap(caps []int, dam int) int {
	for _, c := range caps {
		if dam > c {
			dam = (dam-c)/2 + c
		}
	}
	return dam
}

// ApplyDamage is the single gate through which all damage reaches a
// combatant. A nil a.Attacker means the damage is self-inflicted.
//
// Precondition: a.Victim is non-nil.
func (e *Engine) ApplyDamage(a Attack, dam int, announce bool) DamageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a.Victim == nil {
		e.logger.Error("damage without a victim", zap.String("kind", string(a.Kind)))
		return DamageResult{Survived: true}
	}
	if a.Attacker == nil {
		a.Attacker = a.Victim
	}
	return e.damage(&a, dam, announce)
}

func (e *Engine) damage(a *Attack, dam int, announce bool) DamageResult {
	ch, victim := a.Attacker, a.Victim
	if victim.IsDead() {
		return DamageResult{}
	}

	if ceil := e.rules.Damage.Ceiling; ceil > 0 && dam > ceil {
		e.logger.Warn("damage above ceiling",
			zap.String("attacker", ch.Name),
			zap.String("victim", victim.Name),
			zap.Int("damage", dam),
			zap.Int("ceiling", ceil),
		)
		dam = ceil
		if a.Kind.IsWeaponHit() && !e.isImmortal(ch) {
			e.tell(ch, "You really shouldn't cheat.")
			if w := ch.Unequip(inventory.SlotWield); w != nil {
				ch.removeItem(w)
			}
		}
	}
	dam = SoftCap(e.rules.Damage.SoftCaps, dam)

	if victim != ch {
		if e.isSafe(ch, victim) {
			return DamageResult{Survived: true, Refused: true}
		}
		e.checkKiller(ch, victim)
		if victim.Position > PosStunned {
			if victim.Fighting == "" {
				e.setFighting(victim, ch)
				if victim.IsNPC() {
					e.triggers.Fire(TriggerKill, victim, ch, 0)
				}
			}
			if victim.Timer <= 4 {
				victim.Position = PosFighting
			}
		}
		if victim.Position > PosStunned && ch.Fighting == "" {
			e.setFighting(ch, victim)
		}
		if e.owners.MasterOf(victim.ID) == ch.ID {
			e.stopFollower(victim)
		}
	}

	if ch.IsAffected(affect.Invisible) {
		ch.Affects.Strip(ch, "invis")
		ch.Affects.Strip(ch, "mass invis")
		ch.RemoveFlags(affect.Invisible)
		e.act("$n fades into existence.", ch, nil, nil, toRoom)
	}

	if dam > 1 && ch.IsPlayer() && ch.Drunk > 10 {
		dam = 9 * dam / 10
	}
	if dam > 1 && victim.IsAffected(affect.Sanctuary) {
		dam /= 2
	}
	if dam > 1 && ((victim.IsAffected(affect.ProtectEvil) && ch.IsEvil()) ||
		(victim.IsAffected(affect.ProtectGood) && ch.IsGood())) {
		dam -= dam / 4
	}

	if a.Kind.IsWeaponHit() && ch != victim && !a.Defended {
		a.Defended = true
		if out := e.ops.CheckDefense(e.env, a); out.Negates() {
			return DamageResult{Survived: true, Negated: out}
		}
	}

	res := DamageResult{Survived: true}
	switch CheckImmune(victim, a.DamType) {
	case SusImmune:
		res.Immune = true
		dam = 0
	case SusResistant:
		dam -= dam / 3
	case SusVulnerable:
		dam += dam / 2
	}

	if announce {
		e.env.damMessage(a, dam, res.Immune)
	}
	if dam == 0 {
		return res
	}

	victim.Health -= dam
	if e.isImmortal(victim) && victim.Health < 1 {
		victim.Health = 1
	}
	UpdatePosition(victim)
	res.Dealt = dam

	e.positionMessage(victim, dam)

	if !victim.IsAwake() {
		e.stopFighting(victim, false)
	}

	if victim.IsDead() {
		e.handleDeath(ch, victim)
		res.Survived = false
		return res
	}
	if victim == ch {
		return res
	}

	half := e.rules.PulseViolence / 2
	if victim.IsPlayer() && victim.Linkdead {
		if e.env.RNG.Range(0, victim.Wait) == 0 {
			e.recall(victim, false)
			return res
		}
	}
	if victim.IsNPC() && victim.Wait < half {
		if (victim.Act.Has(ActWimpy) && e.env.RNG.Bits(2) == 0 && victim.Health < victim.MaxHealth/5) ||
			(victim.IsAffected(affect.Charm) && e.masterElsewhere(victim)) {
			e.flee(victim)
		}
	}
	if victim.IsPlayer() && victim.Health > 0 && victim.Health <= victim.Wimpy && victim.Wait < half {
		e.flee(victim)
	}
	return res
}

func (e *Engine) masterElsewhere(c *Combatant) bool {
	m := e.master(c)
	return m != nil && m.Room != c.Room
}

func (e *Engine) positionMessage(victim *Combatant, dam int) {
	switch victim.Position {
	case PosMortal:
		e.act("$n is mortally wounded, and will die soon, if not aided.", victim, nil, nil, toRoom)
		e.tell(victim, "You are mortally wounded, and will die soon, if not aided.")
	case PosIncap:
		e.act("$n is incapacitated and will slowly die, if not aided.", victim, nil, nil, toRoom)
		e.tell(victim, "You are incapacitated and will slowly die, if not aided.")
	case PosStunned:
		e.act("$n is stunned, but will probably recover.", victim, nil, nil, toRoom)
		e.tell(victim, "You are stunned, but will probably recover.")
	case PosDead:
		e.act("$n is DEAD!!", victim, nil, nil, toRoom)
		e.tell(victim, "You have been KILLED!!")
	default:
		if dam > victim.MaxHealth/4 {
			e.tell(victim, "That really did HURT!")
		}
		if victim.Health < victim.MaxHealth/4 {
			e.tell(victim, "You sure are BLEEDING!")
		}
	}
}

// handleDeath runs everything that follows a killing blow.
func (e *Engine) handleDeath(ch, victim *Combatant) {
	e.groupGain(ch, victim)

	if victim.IsPlayer() {
		e.logger.Info("player killed",
			zap.String("victim", victim.Name),
			zap.String("killer", ch.Name),
			zap.String("room", victim.Room),
		)
		epl := e.rules.XP.ExpPerLevel
		if victim.Experience > epl*victim.Level {
			e.gainExp(victim, 2*(epl*victim.Level-victim.Experience)/3+e.rules.XP.DeathBonus)
		}
	}
	if victim.IsNPC() {
		victim.Position = PosStanding
		e.triggers.Fire(TriggerDeath, victim, ch, 0)
	}

	e.rawKill(victim, ch)

	if ch != victim && ch.IsPlayer() && !sameClan(ch, victim) {
		if victim.Plr.Has(PlrKiller) {
			victim.Plr &^= PlrKiller
		} else {
			victim.Plr &^= PlrThief
		}
	}
}

func sameClan(a, b *Combatant) bool { return a.Clan != "" && a.Clan == b.Clan }
