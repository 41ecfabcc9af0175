package combat

import (
	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

// Lag, in pulses, imposed by each special attack.
const (
	kickBeats  = 12
	skillBeats = 24
)

// Kick kicks ch's current opponent.
func (e *Engine) Kick(ch *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kick(ch)
}

// Bash tries to knock victim down. A nil victim means ch's opponent.
func (e *Engine) Bash(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bash(ch, e.target(ch, victim))
}

// Berserk sends ch into a rage.
func (e *Engine) Berserk(ch *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.berserk(ch)
}

// Disarm tries to knock the weapon out of ch's opponent's hand.
func (e *Engine) Disarm(ch *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disarm(ch)
}

// Dirt kicks dirt in victim's eyes. A nil victim means ch's opponent.
func (e *Engine) Dirt(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirt(ch, e.target(ch, victim))
}

// Trip tries to trip victim. A nil victim means ch's opponent.
func (e *Engine) Trip(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trip(ch, e.target(ch, victim))
}

// Backstab opens a fight with a stab in victim's back.
func (e *Engine) Backstab(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backstab(ch, victim)
}

func (e *Engine) target(ch, victim *Combatant) *Combatant {
	if victim != nil {
		return victim
	}
	return e.lookup(ch.Fighting)
}

// mayAssault runs the checks every targeted special shares.
func (e *Engine) mayAssault(ch, victim *Combatant) bool {
	if e.isSafe(ch, victim) || e.killSteal(ch, victim) {
		return false
	}
	if ch.IsAffected(affect.Charm) && e.owners.MasterOf(ch.ID) == victim.ID {
		e.act("But $N is your friend!", ch, nil, victim, toChar)
		return false
	}
	return true
}

func speedy(c *Combatant) bool { return c.Off.Has(OffFast) || c.IsAffected(affect.Haste) }

func carryWeight(c *Combatant) int {
	w := 0
	for _, it := range c.allItems() {
		w += it.Weight
	}
	return w
}

// fuzzy nudges n by one either way a quarter of the time each, never
// below 1.
func (e *Engine) fuzzy(n int) int {
	switch e.env.RNG.Bits(2) {
	case 0:
		n--
	case 3:
		n++
	}
	return max(1, n)
}

func (e *Engine) kick(ch *Combatant) bool {
	skill := e.env.Skill(ch, SkillKick)
	if ch.IsPlayer() && skill == 0 {
		e.tell(ch, "You better leave the martial arts to fighters.")
		return false
	}
	victim := e.lookup(ch.Fighting)
	if victim == nil {
		e.tell(ch, "You aren't fighting anyone.")
		return false
	}
	ch.Wait = max(ch.Wait, kickBeats)
	a := &Attack{Attacker: ch, Victim: victim, Kind: AttackKick, DamType: DamBash}
	if skill > e.env.RNG.Percent() {
		e.damage(a, e.env.RNG.Range(1, max(1, ch.Level)), true)
		e.env.Improve(ch, SkillKick, true, 1)
	} else {
		e.damage(a, 0, true)
		e.env.Improve(ch, SkillKick, false, 1)
	}
	e.checkKiller(ch, victim)
	return true
}

func (e *Engine) bash(ch, victim *Combatant) bool {
	chance := e.env.Skill(ch, SkillBash)
	switch {
	case chance == 0:
		e.tell(ch, "Bashing? What's that?")
		return false
	case victim == nil:
		e.tell(ch, "But you aren't fighting anyone!")
		return false
	case victim.Position < PosFighting:
		e.act("You'll have to let $M get back up first.", ch, nil, victim, toChar)
		return false
	case victim == ch:
		e.tell(ch, "You try to bash your brains out, but fail.")
		return false
	case !e.mayAssault(ch, victim):
		return false
	}

	chance += carryWeight(ch) / 250
	chance -= carryWeight(victim) / 200
	chance += ch.Stats[StatStr]
	chance -= victim.Stats[StatDex] * 4 / 3
	chance -= victim.Armor[inventory.ACBash] / 25
	if speedy(ch) {
		chance += 10
	}
	if speedy(victim) {
		chance -= 30
	}
	chance += ch.Level - victim.Level
	if victim.IsPlayer() {
		if dodge := e.env.Skill(victim, SkillDodge); chance < dodge {
			chance -= 3 * (dodge - chance)
		}
	}

	a := &Attack{Attacker: ch, Victim: victim, Kind: AttackBash, DamType: DamBash}
	if e.env.RNG.Percent() < chance {
		e.act("$n sends you sprawling with a powerful bash!", ch, nil, victim, toVict)
		e.act("You slam into $N, and send $M flying!", ch, nil, victim, toChar)
		e.act("$n sends $N sprawling with a powerful bash.", ch, nil, victim, toNotVict)
		e.env.Improve(ch, SkillBash, true, 1)
		victim.Daze = max(victim.Daze, 3*e.rules.PulseViolence)
		ch.Wait = max(ch.Wait, skillBeats)
		victim.Position = PosResting
		e.damage(a, e.env.RNG.Range(2, 2+4+chance/20), false)
	} else {
		e.damage(a, 0, false)
		e.act("You fall flat on your face!", ch, nil, victim, toChar)
		e.act("$n falls flat on $s face.", ch, nil, victim, toNotVict)
		e.act("You evade $n's bash, causing $m to fall flat on $s face.", ch, nil, victim, toVict)
		e.env.Improve(ch, SkillBash, false, 1)
		ch.Position = PosResting
		ch.Wait = max(ch.Wait, skillBeats*3/2)
	}
	e.checkKiller(ch, victim)
	return true
}

func (e *Engine) berserk(ch *Combatant) bool {
	chance := e.env.Skill(ch, SkillBerserk)
	switch {
	case chance == 0 || (ch.IsNPC() && !ch.Off.Has(OffBerserk)):
		e.tell(ch, "You turn red in the face, but nothing happens.")
		return false
	case ch.IsAffected(affect.Berserk) || ch.Affects.Has("berserk"):
		e.tell(ch, "You get a little madder.")
		return false
	case ch.IsAffected(affect.Calm):
		e.tell(ch, "You're feeling to mellow to berserk.")
		return false
	case ch.Mana < 50:
		e.tell(ch, "You can't get up enough energy.")
		return false
	}

	if ch.Position == PosFighting {
		chance += 10
	}
	chance += 25 - ch.HealthPercent()/2

	if e.env.RNG.Percent() >= chance {
		ch.Wait = max(ch.Wait, 3*e.rules.PulseViolence)
		ch.Mana -= 25
		ch.Stamina /= 2
		e.tell(ch, "Your pulse speeds up, but nothing happens.")
		e.env.Improve(ch, SkillBerserk, false, 2)
		return true
	}

	ch.Wait = max(ch.Wait, e.rules.PulseViolence)
	ch.Mana -= 50
	ch.Stamina /= 2
	ch.Health = min(ch.MaxHealth, ch.Health+2*ch.Level)
	e.tell(ch, "Your pulse races as you are consumed by rage!")
	e.act("$n gets a wild look in $s eyes.", ch, nil, nil, toRoom)
	e.env.Improve(ch, SkillBerserk, true, 2)

	dur := e.fuzzy(ch.Level / 8)
	rage := affect.Affect{Type: "berserk", Level: ch.Level, Duration: dur, Modifier: max(1, ch.Level/5), Bit: affect.Berserk}
	rage.Location = affect.LocHitroll
	ch.Affects.Add(ch, rage)
	rage.Location = affect.LocDamroll
	ch.Affects.Add(ch, rage)
	rage.Location = affect.LocArmor
	rage.Modifier = max(10, 10*(ch.Level/5))
	ch.Affects.Add(ch, rage)
	return true
}

func (e *Engine) disarm(ch *Combatant) bool {
	chance := e.env.Skill(ch, SkillDisarm)
	if chance == 0 {
		e.tell(ch, "You don't know how to disarm opponents.")
		return false
	}
	wield := ch.Wielded()
	hth := 0
	if wield == nil {
		hth = e.env.Skill(ch, SkillHandToHand)
		if hth == 0 || (ch.IsNPC() && !ch.Off.Has(OffDisarm)) {
			e.tell(ch, "You must wield a weapon to disarm.")
			return false
		}
	}
	victim := e.lookup(ch.Fighting)
	if victim == nil {
		e.tell(ch, "You aren't fighting anyone.")
		return false
	}
	obj := victim.Wielded()
	if obj == nil {
		e.tell(ch, "Your opponent is not wielding a weapon.")
		return false
	}

	chWeapon := e.env.WeaponSkill(ch, wield)
	victWeapon := e.env.WeaponSkill(victim, obj)
	chVictWeapon := e.env.WeaponSkill(ch, obj)
	if wield == nil {
		chance = chance * hth / 150
	} else {
		chance = chance * chWeapon / 100
	}
	chance += (chVictWeapon/2 - victWeapon) / 2
	chance += ch.Stats[StatDex]
	chance -= 2 * victim.Stats[StatStr]
	chance += (ch.Level - victim.Level) * 2

	ch.Wait = max(ch.Wait, skillBeats)
	if e.env.RNG.Percent() < chance {
		e.knockAway(ch, victim)
		e.env.Improve(ch, SkillDisarm, true, 1)
	} else {
		e.act("You fail to disarm $N.", ch, nil, victim, toChar)
		e.act("$n tries to disarm you, but fails.", ch, nil, victim, toVict)
		e.act("$n tries to disarm $N, but fails.", ch, nil, victim, toNotVict)
		e.env.Improve(ch, SkillDisarm, false, 1)
	}
	e.checkKiller(ch, victim)
	return true
}

// knockAway strips victim's weapon. It lands on the floor unless it cannot
// leave its owner; an NPC with time to act picks it straight back up.
func (e *Engine) knockAway(ch, victim *Combatant) {
	obj := victim.Wielded()
	if obj == nil {
		return
	}
	if obj.Extra.Has(inventory.ExtraNoRemove) {
		e.act("$S weapon won't budge!", ch, nil, victim, toChar)
		e.act("$n tries to disarm you, but your weapon won't budge!", ch, nil, victim, toVict)
		e.act("$n tries to disarm $N, but fails.", ch, nil, victim, toNotVict)
		return
	}
	e.act("$n DISARMS you and sends your weapon flying!", ch, nil, victim, toVict)
	e.act("You disarm $N!", ch, nil, victim, toChar)
	e.act("$n disarms $N!", ch, nil, victim, toNotVict)

	victim.Unequip(inventory.SlotWield)
	if obj.Extra.Has(inventory.ExtraNoDrop) || obj.Extra.Has(inventory.ExtraInventory) {
		return
	}
	victim.removeItem(obj)
	e.floor.Drop(victim.Room, obj)
	if victim.IsNPC() && victim.Wait == 0 && victim.IsAwake() {
		if _, ok := e.floor.Pickup(victim.Room, obj.ID); ok {
			victim.Carried = append(victim.Carried, obj)
			e.act("$n gets $p.", victim, obj, nil, toRoom)
		}
	}
}

func (e *Engine) dirt(ch, victim *Combatant) bool {
	chance := e.env.Skill(ch, SkillDirtKicking)
	switch {
	case chance == 0:
		e.tell(ch, "You get your feet dirty.")
		return false
	case victim == nil:
		e.tell(ch, "But you aren't in combat!")
		return false
	case victim.IsAffected(affect.Blind):
		e.act("$E's already been blinded.", ch, nil, victim, toChar)
		return false
	case victim == ch:
		e.tell(ch, "Very funny.")
		return false
	case !e.mayAssault(ch, victim):
		return false
	}

	chance += ch.Stats[StatDex]
	chance -= 2 * victim.Stats[StatDex]
	if speedy(ch) {
		chance += 10
	}
	if speedy(victim) {
		chance -= 25
	}
	chance += (ch.Level - victim.Level) * 2
	if chance%5 == 0 {
		chance++
	}
	if r := e.room(ch); r != nil && r.Flags.Has(world.RoomIndoors) {
		chance -= 20
	}
	if chance == 0 {
		e.tell(ch, "There isn't any dirt to kick.")
		return false
	}

	a := &Attack{Attacker: ch, Victim: victim, Kind: AttackDirt, DamType: DamNone}
	ch.Wait = max(ch.Wait, skillBeats)
	if e.env.RNG.Percent() < chance {
		e.act("$n is blinded by the dirt in $s eyes!", victim, nil, nil, toRoom)
		e.act("$n kicks dirt in your eyes!", ch, nil, victim, toVict)
		res := e.damage(a, e.env.RNG.Range(2, 5), false)
		e.tell(victim, "You can't see a thing!")
		e.env.Improve(ch, SkillDirtKicking, true, 2)
		if res.Survived && !res.Refused {
			victim.Affects.Add(victim, affect.Affect{
				Type:     "dirt kicking",
				Level:    ch.Level,
				Location: affect.LocHitroll,
				Modifier: -4,
				Bit:      affect.Blind,
			})
		}
	} else {
		e.damage(a, 0, true)
		e.env.Improve(ch, SkillDirtKicking, false, 2)
	}
	e.checkKiller(ch, victim)
	return true
}

func (e *Engine) trip(ch, victim *Combatant) bool {
	chance := e.env.Skill(ch, SkillTrip)
	switch {
	case chance == 0:
		e.tell(ch, "Tripping?  What's that?")
		return false
	case victim == nil:
		e.tell(ch, "But you aren't fighting anyone!")
		return false
	case victim.IsAffected(affect.Flying):
		e.act("$S feet aren't on the ground.", ch, nil, victim, toChar)
		return false
	case victim.Position < PosFighting:
		e.act("$N is already down.", ch, nil, victim, toChar)
		return false
	case victim == ch:
		e.tell(ch, "You fall flat on your face!")
		ch.Wait = max(ch.Wait, 2*skillBeats)
		e.act("$n trips over $s own feet!", ch, nil, nil, toRoom)
		return false
	case !e.mayAssault(ch, victim):
		return false
	}

	chance += ch.Stats[StatDex]
	chance -= victim.Stats[StatDex] * 3 / 2
	if speedy(ch) {
		chance += 10
	}
	if speedy(victim) {
		chance -= 20
	}
	chance += (ch.Level - victim.Level) * 2

	a := &Attack{Attacker: ch, Victim: victim, Kind: AttackTrip, DamType: DamBash}
	if e.env.RNG.Percent() < chance {
		e.act("$n trips you and you go down!", ch, nil, victim, toVict)
		e.act("You trip $N and $N goes down!", ch, nil, victim, toChar)
		e.act("$n trips $N, sending $M to the ground.", ch, nil, victim, toNotVict)
		e.env.Improve(ch, SkillTrip, true, 1)
		victim.Daze = max(victim.Daze, 2*e.rules.PulseViolence)
		ch.Wait = max(ch.Wait, skillBeats)
		victim.Position = PosResting
		e.damage(a, e.env.RNG.Range(2, 2+4), true)
	} else {
		e.damage(a, 0, true)
		ch.Wait = max(ch.Wait, skillBeats*2/3)
		e.env.Improve(ch, SkillTrip, false, 1)
	}
	e.checkKiller(ch, victim)
	return true
}

func (e *Engine) backstab(ch, victim *Combatant) bool {
	switch {
	case ch.Fighting != "":
		e.tell(ch, "You're facing the wrong end.")
		return false
	case victim == nil || e.lookup(victim.ID) == nil || victim.Room != ch.Room:
		e.tell(ch, "They aren't here.")
		return false
	case victim == ch:
		e.tell(ch, "How can you sneak up on yourself?")
		return false
	case !e.mayAssault(ch, victim):
		return false
	case ch.Wielded() == nil:
		e.tell(ch, "You need to wield a weapon to backstab.")
		return false
	case victim.Health < victim.MaxHealth/3:
		e.act("$N is hurt and suspicious ... you can't sneak up.", ch, nil, victim, toChar)
		return false
	}

	e.checkKiller(ch, victim)
	ch.Wait = max(ch.Wait, skillBeats)
	skill := e.env.Skill(ch, SkillBackstab)
	if e.env.RNG.Percent() < skill || (skill >= 2 && !victim.IsAwake()) {
		e.env.Improve(ch, SkillBackstab, true, 1)
		e.multiHit(ch, victim, AttackBackstab)
	} else {
		e.env.Improve(ch, SkillBackstab, false, 1)
		e.damage(&Attack{Attacker: ch, Victim: victim, Kind: AttackBackstab, DamType: DamNone}, 0, true)
	}
	return true
}
