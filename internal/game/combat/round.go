package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// Stage names where in the attack pipeline a swing happened.
type Stage string

const (
	StageMain    Stage = "main"
	StageOffhand Stage = "offhand"
	StageHaste   Stage = "haste"
	StageSecond  Stage = "second"
	StageThird   Stage = "third"
	StageArea    Stage = "area"
	StageSpecial Stage = "special"
)

// Swing is one resolved attack.
type Swing struct {
	Attacker string
	Victim   string
	Stage    Stage
	Outcome  Outcome
}

// Assist records a bystander joining a fight.
type Assist struct {
	Helper string
	Target string
}

// RoundRecord lists every swing and assist resolved in one violence round,
// in resolution order.
type RoundRecord struct {
	Pulse   int
	Swings  []Swing
	Assists []Assist
}

// SwingsBy returns the stages attackerID swung at, in order.
func (r *RoundRecord) SwingsBy(attackerID string) []Stage {
	var out []Stage
	for _, s := range r.Swings {
		if s.Attacker == attackerID {
			out = append(out, s.Stage)
		}
	}
	return out
}

func (e *Engine) record(ch, victim *Combatant, stage Stage, out Outcome) {
	if e.round == nil {
		return
	}
	e.round.Swings = append(e.round.Swings, Swing{Attacker: ch.ID, Victim: victim.ID, Stage: stage, Outcome: out})
}

// ViolenceTick runs one violence round for every fighting combatant.
func (e *Engine) ViolenceTick() *RoundRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.violenceTick()
}

func (e *Engine) violenceTick() *RoundRecord {
	e.round = &RoundRecord{Pulse: e.pulse}
	defer func() { e.round = nil }()

	ids := append([]string(nil), e.order...)
	for _, id := range ids {
		ch := e.lookup(id)
		if ch == nil || ch.Fighting == "" {
			continue
		}
		victim := e.lookup(ch.Fighting)
		if victim == nil {
			e.logger.Warn("fighting a combatant no longer present",
				zap.String("attacker", ch.Name),
				zap.String("victim", ch.Fighting),
			)
			e.stopFighting(ch, false)
			continue
		}
		if ch.IsAwake() && ch.Room == victim.Room {
			e.multiHit(ch, victim, AttackHit)
		} else {
			e.stopFighting(ch, false)
		}

		if victim = e.lookup(ch.Fighting); victim == nil || e.lookup(ch.ID) == nil {
			continue
		}
		e.checkAssist(ch, victim)
		if ch.IsNPC() {
			e.triggers.Fire(TriggerFight, ch, victim, 0)
			if ch.HPTrigger > 0 && ch.HealthPercent() < ch.HPTrigger {
				e.triggers.Fire(TriggerHPPercent, ch, victim, ch.HealthPercent())
			}
		}
	}
	return e.round
}

// still reports whether ch is present and still fighting victim.
func (e *Engine) still(ch, victim *Combatant) bool {
	return e.lookup(ch.ID) == ch && ch.Fighting == victim.ID
}

// multiHit resolves ch's full attack sequence against victim: main hand,
// off hand, haste, second attack and third attack, stopping as soon as
// the fight changes.
func (e *Engine) multiHit(ch, victim *Combatant, kind AttackKind) {
	if ch.Position < PosResting {
		return
	}
	if ch.IsNPC() {
		e.mobHit(ch, victim, kind)
		return
	}

	e.oneHit(ch, victim, kind, false, StageMain)
	if !e.still(ch, victim) {
		return
	}
	if ch.OffHand() != nil {
		e.oneHit(ch, victim, kind, true, StageOffhand)
		if !e.still(ch, victim) {
			return
		}
	}
	if ch.IsAffected(affect.Haste) {
		e.oneHit(ch, victim, kind, false, StageHaste)
		if !e.still(ch, victim) {
			return
		}
	}
	if kind == AttackBackstab {
		return
	}

	chance := e.env.Skill(ch, SkillSecondAttack) / 2
	if ch.IsAffected(affect.Slow) {
		chance /= 2
	}
	if e.env.RNG.Percent() < chance {
		e.oneHit(ch, victim, kind, false, StageSecond)
		e.env.Improve(ch, SkillSecondAttack, true, 5)
		if !e.still(ch, victim) {
			return
		}
	}

	chance = e.env.Skill(ch, SkillThirdAttack) / 4
	if ch.IsAffected(affect.Slow) {
		chance = 0
	}
	if e.env.RNG.Percent() < chance {
		e.oneHit(ch, victim, kind, false, StageThird)
		e.env.Improve(ch, SkillThirdAttack, true, 6)
	}
}

// mobHit is the NPC attack sequence: it adds area attacks, the fast
// offense flag and a special attack drawn from the NPC's offense flags.
func (e *Engine) mobHit(ch, victim *Combatant, kind AttackKind) {
	e.oneHit(ch, victim, kind, false, StageMain)
	if !e.still(ch, victim) {
		return
	}
	if ch.OffHand() != nil {
		e.oneHit(ch, victim, kind, true, StageOffhand)
		if !e.still(ch, victim) {
			return
		}
	}

	if ch.Off.Has(OffAreaAttack) {
		for _, vch := range e.inRoom(ch.Room) {
			if vch != victim && vch.Fighting == ch.ID {
				e.oneHit(ch, vch, kind, false, StageArea)
			}
		}
	}

	fast := ch.Off.Has(OffFast)
	if ch.IsAffected(affect.Haste) || (fast && !ch.IsAffected(affect.Slow)) {
		e.oneHit(ch, victim, kind, false, StageHaste)
	}
	if !e.still(ch, victim) || kind == AttackBackstab {
		return
	}

	slowed := ch.IsAffected(affect.Slow) && !fast
	chance := e.env.Skill(ch, SkillSecondAttack) / 2
	if slowed {
		chance /= 2
	}
	if e.env.RNG.Percent() < chance {
		e.oneHit(ch, victim, kind, false, StageSecond)
		if !e.still(ch, victim) {
			return
		}
	}

	chance = e.env.Skill(ch, SkillThirdAttack) / 4
	if slowed {
		chance = 0
	}
	if e.env.RNG.Percent() < chance {
		e.oneHit(ch, victim, kind, false, StageThird)
		if !e.still(ch, victim) {
			return
		}
	}

	if ch.Wait > 0 {
		return
	}
	e.mobSpecial(ch)
}

// mobSpecial picks one special attack slot; an NPC without the matching
// offense flag does nothing this round.
func (e *Engine) mobSpecial(ch *Combatant) {
	victim := e.lookup(ch.Fighting)
	if victim == nil {
		return
	}
	var used bool
	switch e.env.RNG.Range(0, 8) {
	case 0:
		used = ch.Off.Has(OffBash) && e.bash(ch, victim)
	case 1:
		used = ch.Off.Has(OffBerserk) && !ch.IsAffected(affect.Berserk) && e.berserk(ch)
	case 2:
		warriorish := ch.Wielded() != nil && (ch.Act.Has(ActWarrior) || ch.Act.Has(ActThief))
		used = (ch.Off.Has(OffDisarm) || warriorish) && e.disarm(ch)
	case 3:
		used = ch.Off.Has(OffKick) && e.kick(ch)
	case 4:
		used = ch.Off.Has(OffDirtKick) && e.dirt(ch, victim)
	case 6:
		used = ch.Off.Has(OffTrip) && e.trip(ch, victim)
	default:
		// tail, crush and backstab have no round effect
	}
	if used && e.lookup(ch.ID) != nil {
		e.record(ch, victim, StageSpecial, Hit)
	}
}

// newAttack builds the descriptor for a swing by ch, resolving its attack
// table row and damage category from the weapon or the innate attack.
func (e *Engine) newAttack(ch, victim *Combatant, kind AttackKind, secondary bool) *Attack {
	a := &Attack{Attacker: ch, Victim: victim, Kind: kind, Secondary: secondary}
	if secondary {
		a.Weapon = ch.OffHand()
	} else {
		a.Weapon = ch.Wielded()
	}

	table := e.env.Attacks
	switch {
	case a.Weapon.IsWeapon():
		idx, ok := table.Find(a.Weapon.Weapon.Attack)
		if !ok && a.Weapon.Weapon.Attack != "" {
			e.logger.Warn("weapon has unknown attack kind",
				zap.String("item", a.Weapon.Name),
				zap.String("attack", a.Weapon.Weapon.Attack),
			)
		}
		a.Index = idx
	case ch.AttackIndex < 0 || ch.AttackIndex >= table.Len():
		e.logger.Error("attack index out of range",
			zap.String("attacker", ch.Name),
			zap.Int("index", ch.AttackIndex),
		)
	default:
		a.Index = ch.AttackIndex
	}
	a.DamType = table.At(a.Index).Damage
	if a.DamType == DamNone {
		a.DamType = DamBash
	}
	return a
}

// oneHit resolves a single swing: to-hit, damage and the weapon's special
// properties.
func (e *Engine) oneHit(ch, victim *Combatant, kind AttackKind, secondary bool, stage Stage) {
	if victim == ch || victim.IsDead() || ch.Room != victim.Room || e.lookup(victim.ID) == nil {
		return
	}
	a := e.newAttack(ch, victim, kind, secondary)

	hit := e.ops.ResolveHit(e.env, a)
	e.record(ch, victim, stage, hit.Outcome)
	switch {
	case hit.Outcome == NoOp:
		return
	case hit.Outcome == Miss:
		e.damage(a, 0, true)
		return
	case hit.Outcome.Negates():
		e.damage(a, 0, false)
		return
	}

	dam := max(1, e.ops.CalculateDamage(e.env, a))
	res := e.damage(a, dam, true)
	if !res.Survived || res.Negated != NoOp || res.Refused || !a.Weapon.IsWeapon() {
		return
	}
	e.weaponEffects(ch, victim, a.Weapon)
}

// poisonAffect is the poison laid on a victim by venom of the given level.
func poisonAffect(level int) affect.Affect {
	return affect.Affect{
		Type:     "poison",
		Level:    level * 3 / 4,
		Duration: level / 2,
		Location: affect.LocStrength,
		Modifier: -1,
		Bit:      affect.Poison,
	}
}

// weaponEffects applies the wielded weapon's special properties after a
// blow that connected.
func (e *Engine) weaponEffects(ch, victim *Combatant, wield *inventory.Item) {
	flags := wield.Weapon.Flags

	if e.still(ch, victim) && flags.Has(inventory.WeaponPoison) {
		level := wield.Level
		coat, coated := wield.Affects.Find("poison")
		if coated {
			level = coat.Level
		}
		if !e.env.SavesSpell(level/2, victim, DamPoison) {
			e.tell(victim, "You feel poison coursing through your veins.")
			e.act("$n is poisoned by the venom on $p.", victim, wield, nil, toRoom)
			victim.Affects.Join(victim, poisonAffect(level))
		}
		if coated {
			if w, _ := wield.Affects.Weaken("poison", 2, 1); w.Level == 0 || w.Duration == 0 {
				e.act("The poison on $p has worn off.", ch, wield, nil, toChar)
			}
		}
	}

	if e.still(ch, victim) && flags.Has(inventory.WeaponVampiric) {
		dam := e.env.RNG.Range(1, wield.Level/5+1)
		e.act("$p draws life from $n.", victim, wield, nil, toRoom)
		e.act("You feel $p drawing your life away.", victim, wield, nil, toChar)
		e.damage(&Attack{Attacker: ch, Victim: victim, Kind: AttackVampiric, Weapon: wield, DamType: DamNegative}, dam, false)
		ch.Alignment = max(-1000, ch.Alignment-1)
		ch.Health = min(ch.MaxHealth, ch.Health+dam/2)
	}

	if e.still(ch, victim) && flags.Has(inventory.WeaponFlaming) {
		dam := e.env.RNG.Range(1, wield.Level/4+1)
		e.act("$n is burned by $p.", victim, wield, nil, toRoom)
		e.act("$p sears your flesh.", victim, wield, nil, toChar)
		e.damage(&Attack{Attacker: ch, Victim: victim, Kind: AttackFlaming, Weapon: wield, DamType: DamFire}, dam, false)
	}

	if e.still(ch, victim) && flags.Has(inventory.WeaponFrost) {
		dam := e.env.RNG.Range(1, wield.Level/6+2)
		e.act("$p freezes $n.", victim, wield, nil, toRoom)
		e.act("The cold touch of $p surrounds you with ice.", victim, wield, nil, toChar)
		e.damage(&Attack{Attacker: ch, Victim: victim, Kind: AttackFrost, Weapon: wield, DamType: DamCold}, dam, false)
	}

	if e.still(ch, victim) && flags.Has(inventory.WeaponShocking) {
		dam := e.env.RNG.Range(1, wield.Level/5+2)
		e.act("$n is struck by lightning from $p.", victim, wield, nil, toRoom)
		e.act("You are shocked by $p.", victim, wield, nil, toChar)
		e.damage(&Attack{Attacker: ch, Victim: victim, Kind: AttackShocking, Weapon: wield, DamType: DamLightning}, dam, false)
	}
}

// checkAssist lets bystanders in ch's room join ch's fight against victim.
func (e *Engine) checkAssist(ch, victim *Combatant) {
	for _, rch := range e.inRoom(ch.Room) {
		if e.lookup(rch.ID) == nil || !rch.IsAwake() || rch.Fighting != "" || !e.env.CanSee(rch, victim) {
			continue
		}
		if e.lookup(victim.ID) == nil {
			return
		}

		if ch.IsPlayer() && rch.IsNPC() && rch.Off.Has(AssistPlayers) && rch.Level+6 > victim.Level {
			e.assist(rch, victim)
			continue
		}

		if rch.IsPlayer() || rch.IsAffected(affect.Charm) {
			if ((rch.IsPlayer() && rch.Plr.Has(PlrAutoAssist)) || rch.IsAffected(affect.Charm)) &&
				e.sameGroup(ch, rch) && !e.isSafe(rch, victim) {
				e.joinFight(rch, victim)
			}
			continue
		}

		if !ch.IsNPC() || ch.IsAffected(affect.Charm) || !e.assistsNPC(rch, ch) {
			continue
		}
		if e.env.RNG.Bits(1) == 0 {
			continue
		}
		var target *Combatant
		number := 0
		for _, vch := range e.inRoom(ch.Room) {
			if e.env.CanSee(rch, vch) && e.sameGroup(vch, victim) && e.env.RNG.Range(0, number) == 0 {
				target = vch
				number++
			}
		}
		if target != nil {
			e.assist(rch, target)
		}
	}
}

// assistsNPC reports whether the NPC rch takes ch's side by its assist flags.
func (e *Engine) assistsNPC(rch, ch *Combatant) bool {
	switch {
	case rch.Off.Has(AssistAll):
		return true
	case rch.Group != 0 && rch.Group == ch.Group:
		return true
	case rch.Off.Has(AssistRace) && rch.Race == ch.Race:
		return true
	case rch.Off.Has(AssistAlign) && ((rch.IsGood() && ch.IsGood()) ||
		(rch.IsEvil() && ch.IsEvil()) || (rch.IsNeutral() && ch.IsNeutral())):
		return true
	case rch.Off.Has(AssistVnum) && rch.TemplateID != "" && rch.TemplateID == ch.TemplateID:
		return true
	}
	return false
}

func (e *Engine) assist(rch, target *Combatant) {
	e.act("$n screams and attacks!", rch, nil, nil, toRoom)
	e.joinFight(rch, target)
}

func (e *Engine) joinFight(rch, target *Combatant) {
	if e.round != nil {
		e.round.Assists = append(e.round.Assists, Assist{Helper: rch.ID, Target: target.ID})
	}
	e.multiHit(rch, target, AttackHit)
}

// InitiateAttack starts a fight between ch and victim on ch's command and
// resolves ch's opening attacks. It reports whether the attack went ahead;
// every refusal is explained to ch.
func (e *Engine) InitiateAttack(ch, victim *Combatant) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if victim == nil || e.lookup(victim.ID) == nil || victim.Room != ch.Room {
		e.tell(ch, "They aren't here.")
		return false
	}
	if victim == ch {
		e.tell(ch, "You hit yourself.  Ouch!")
		return false
	}
	if e.isSafe(ch, victim) || e.killSteal(ch, victim) {
		return false
	}
	if ch.IsAffected(affect.Charm) && e.owners.MasterOf(ch.ID) == victim.ID {
		e.act("$N is your beloved master.", ch, nil, victim, toChar)
		return false
	}
	if ch.Position == PosFighting {
		e.tell(ch, "You do the best you can!")
		return false
	}
	ch.Wait = max(ch.Wait, e.rules.PulseViolence)
	e.checkKiller(ch, victim)
	e.multiHit(ch, victim, AttackHit)
	return true
}

// setFighting makes ch fight victim. A sleeping ch wakes.
func (e *Engine) setFighting(ch, victim *Combatant) {
	if ch.Fighting != "" {
		e.logger.Error("set fighting while already fighting",
			zap.String("attacker", ch.Name),
			zap.String("victim", victim.Name),
			zap.String("current", ch.Fighting),
		)
		return
	}
	if ch.IsAffected(affect.Sleep) {
		ch.Affects.Strip(ch, "sleep")
		ch.RemoveFlags(affect.Sleep)
	}
	ch.Fighting = victim.ID
	ch.Position = PosFighting
}

// stopFighting ends ch's fight and, when both is set, every fight against
// ch. Each released combatant returns to its resting position.
func (e *Engine) stopFighting(ch *Combatant, both bool) {
	release := func(c *Combatant) {
		c.Fighting = ""
		if c.IsNPC() {
			c.Position = c.DefaultPosition
		} else {
			c.Position = PosStanding
		}
		UpdatePosition(c)
	}
	release(ch)
	if !both {
		return
	}
	for _, id := range e.order {
		if f := e.active[id]; f != ch && f.Fighting == ch.ID {
			release(f)
		}
	}
}
