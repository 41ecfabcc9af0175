package combat

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/ruleset"
)

// Env carries the read-only tables and collaborators every resolver needs.
type Env struct {
	RNG       dice.RNG
	Rules     *ruleset.Rules
	Attacks   *AttackTable
	Perceiver Perceiver
	Messenger Messenger
	Logger    *zap.Logger
	// Now is the clock used for playtime scaling.
	Now func() time.Time
}

// Ops is the set of swappable resolver operations. StandardOps is the real
// implementation; ScriptedOps replays fixed results for tests.
type Ops interface {
	// ResolveHit rolls to hit and, on a weapon hit, gives the victim its
	// parry, dodge and block checks.
	ResolveHit(env *Env, a *Attack) HitResult
	// CalculateDamage returns the raw damage of a connecting blow, at least 1.
	CalculateDamage(env *Env, a *Attack) int
	// CheckDefense runs parry, dodge then shield block and returns the first
	// that succeeds, or Hit.
	CheckDefense(env *Env, a *Attack) Outcome
	// XPCompute returns gch's share of experience for killing victim and
	// shifts gch's alignment.
	XPCompute(env *Env, gch, victim *Combatant, totalLevels int) int
}

// StandardOps implements Ops with the ruleset arithmetic.
type StandardOps struct{}

var _ Ops = StandardOps{}

// npcRole names the to-hit curve an NPC uses.
func npcRole(c *Combatant) string {
	switch {
	case c.Act.Has(ActWarrior):
		return "warrior"
	case c.Act.Has(ActThief):
		return "thief"
	case c.Act.Has(ActCleric):
		return "cleric"
	case c.Act.Has(ActMage):
		return "mage"
	}
	return "default"
}

// Thac0 returns the attacker's interpolated to-hit target before skill
// adjustments. Lower is better.
func Thac0(rules *ruleset.Rules, c *Combatant) int {
	var t ruleset.Thac0
	if c.IsNPC() {
		t = rules.RoleThac0(npcRole(c))
	} else {
		t = rules.ClassThac0(c.Class)
	}
	span := rules.InterpolationSpan
	if span <= 0 {
		span = 32
	}
	thac0 := t.At0 + c.Level*(t.AtTop-t.At0)/span
	if thac0 < 0 {
		thac0 /= 2
	}
	if thac0 < -5 {
		thac0 = -5 + (thac0+5)/2
	}
	return thac0
}

// ArmorValue returns victim's armor against dt on the d20 scale.
func ArmorValue(rules *ruleset.Rules, victim *Combatant, dt DamageType) int {
	div := rules.Damage.ArmorDivisor
	if div <= 0 {
		div = 10
	}
	ac := victim.Armor[dt.ArmorClass()] / div
	if ac < -15 {
		ac = (ac+15)/5 - 15
	}
	return ac
}

// ResolveHit implements Ops.
//
// Precondition: a.Attacker and a.Victim are non-nil.
func (StandardOps) ResolveHit(env *Env, a *Attack) HitResult {
	ch, victim := a.Attacker, a.Victim
	if ch == victim || victim.IsDead() || ch.Room != victim.Room {
		return HitResult{Outcome: NoOp}
	}

	skill := 20 + env.WeaponSkill(ch, a.Weapon)
	thac0 := Thac0(env.Rules, ch)
	thac0 -= ch.Hitroll * skill / 100
	thac0 += 5 * (100 - skill) / 100
	if a.Kind == AttackBackstab {
		thac0 -= 10 * env.Skill(ch, SkillBackstab) / 100
	}

	ac := ArmorValue(env.Rules, victim, a.DamType)
	if !env.CanSee(ch, victim) {
		ac -= 4
	}
	if victim.Position < PosFighting {
		ac += 4
	}
	if victim.Position < PosResting {
		ac += 6
	}

	roll := env.RNG.Bits(5)
	for roll >= 20 {
		roll = env.RNG.Bits(5)
	}
	if roll == 0 || (roll != 19 && roll < thac0-ac) {
		return HitResult{Outcome: Miss, Roll: roll}
	}
	if a.Kind.IsWeaponHit() {
		a.Defended = true
		if out := (StandardOps{}).CheckDefense(env, a); out.Negates() {
			return HitResult{Outcome: out, Roll: roll}
		}
	}
	return HitResult{Outcome: Hit, Roll: roll}
}

// CheckDefense implements Ops.
func (StandardOps) CheckDefense(env *Env, a *Attack) Outcome {
	switch {
	case checkParry(env, a.Attacker, a.Victim):
		return Parried
	case checkDodge(env, a.Attacker, a.Victim):
		return Dodged
	case checkShieldBlock(env, a.Attacker, a.Victim):
		return Blocked
	}
	return Hit
}

func checkParry(env *Env, ch, victim *Combatant) bool {
	if !victim.IsAwake() {
		return false
	}
	chance := env.Skill(victim, SkillParry) / 2
	if victim.Wielded() == nil {
		if victim.IsPlayer() {
			return false
		}
		chance /= 2
	}
	if !env.CanSee(victim, ch) {
		chance /= 2
	}
	if env.RNG.Percent() >= chance+victim.Level-ch.Level {
		return false
	}
	env.act("You parry $n's attack.", ch, nil, victim, toVict)
	env.act("$N parries your attack.", ch, nil, victim, toChar)
	env.Improve(victim, SkillParry, true, 6)
	return true
}

func checkDodge(env *Env, ch, victim *Combatant) bool {
	if !victim.IsAwake() {
		return false
	}
	chance := env.Skill(victim, SkillDodge) / 2
	if !env.CanSee(victim, ch) {
		chance /= 2
	}
	if env.RNG.Percent() >= chance+victim.Level-ch.Level {
		return false
	}
	env.act("You dodge $n's attack.", ch, nil, victim, toVict)
	env.act("$N dodges your attack.", ch, nil, victim, toChar)
	env.Improve(victim, SkillDodge, true, 6)
	return true
}

func checkShieldBlock(env *Env, ch, victim *Combatant) bool {
	if !victim.IsAwake() || victim.Shield() == nil {
		return false
	}
	chance := env.Skill(victim, SkillShieldBlock)/5 + 3
	if env.RNG.Percent() >= chance+victim.Level-ch.Level {
		return false
	}
	env.act("You block $n's attack with your shield.", ch, nil, victim, toVict)
	env.act("$N blocks your attack with a shield.", ch, nil, victim, toChar)
	env.Improve(victim, SkillShieldBlock, true, 6)
	return true
}

// CalculateDamage implements Ops.
func (StandardOps) CalculateDamage(env *Env, a *Attack) int {
	ch, victim, wield := a.Attacker, a.Victim, a.Weapon
	skill := 20 + env.WeaponSkill(ch, wield)

	var dam int
	switch {
	case ch.IsNPC() && !wield.IsWeapon():
		dam = env.RNG.Dice(ch.Innate.Count, ch.Innate.Sides) + ch.Innate.Modifier
	case wield.IsWeapon():
		env.Improve(ch, WeaponSkillName(wield), true, 5)
		count, sides := wield.Weapon.Dice()
		dam = env.RNG.Dice(count, sides) * skill / 100
		if ch.Shield() == nil {
			dam = dam * 11 / 10
		}
		if wield.Weapon.Flags.Has(inventory.WeaponSharp) {
			if pct := env.RNG.Percent(); pct <= skill/8 {
				dam = 2*dam + dam*2*pct/100
			}
		}
	default:
		env.Improve(ch, SkillHandToHand, true, 5)
		dam = env.RNG.Range(1+4*skill/100, 2*ch.Level/3*skill/100)
	}

	if ed := env.Skill(ch, SkillEnhancedDamage); ed > 0 {
		if roll := env.RNG.Percent(); roll <= ed {
			env.Improve(ch, SkillEnhancedDamage, true, 6)
			dam += 2 * (dam * roll / 300)
		}
	}

	if !victim.IsAwake() {
		dam *= 2
	} else if victim.Position < PosFighting {
		dam = dam * 3 / 2
	}

	if a.Kind == AttackBackstab && wield.IsWeapon() {
		if wield.Weapon.Class == inventory.WeaponDagger {
			dam *= 2 + ch.Level/8
		} else {
			dam *= 2 + ch.Level/10
		}
	}

	dam += ch.Damroll * min(100, skill) / 100
	if dam <= 0 {
		dam = 1
	}
	return dam
}

// XPCompute implements Ops.
func (StandardOps) XPCompute(env *Env, gch, victim *Combatant, totalLevels int) int {
	r := env.Rules
	lvl := max(1, gch.Level)
	if totalLevels <= 0 {
		totalLevels = lvl
	}
	base := r.BaseXP(victim.Level - gch.Level)

	if !victim.Act.Has(ActNoAlign) {
		gap := r.XP.AlignmentGap
		if gap <= 0 {
			gap = 500
		}
		align := victim.Alignment - gch.Alignment
		switch {
		case align > gap:
			change := max(1, (align-gap)*base/gap*lvl/totalLevels)
			gch.Alignment = max(-1000, gch.Alignment-change)
		case align < -gap:
			change := max(1, (-align-gap)*base/gap*lvl/totalLevels)
			gch.Alignment = min(1000, gch.Alignment+change)
		default:
			change := gch.Alignment * base / gap * lvl / totalLevels
			gch.Alignment -= change
		}
	}

	xp := base
	if !victim.Act.Has(ActNoAlign) {
		num, den := r.AlignmentMultiplier(gch.Alignment, victim.Alignment)
		if den > 0 {
			xp = base * num / den
		}
	}

	if r.XP.LowLevel > 0 && lvl < r.XP.LowLevel {
		xp = r.XP.LowNumerator * xp / (lvl + r.XP.LowOffset)
	}
	if r.XP.HighLevel > 0 && lvl > r.XP.HighLevel {
		xp = r.XP.HighNumerator * xp / (lvl - r.XP.HighOffset)
	}

	if r.XP.PlaytimeMax > 0 {
		xp = xp * playtimeFactor(env, r, gch, lvl) / r.XP.PlaytimeMax
	}

	xp = env.RNG.Range(xp*3/4, xp*5/4)
	return xp * lvl / max(1, totalLevels-1)
}

// playtimeFactor is quarter-hours played per level, banded.
func playtimeFactor(env *Env, r *ruleset.Rules, c *Combatant, lvl int) int {
	secs := int(c.Played / time.Second)
	if !c.Logon.IsZero() && env.Now != nil {
		secs += int(env.Now().Sub(c.Logon) / time.Second)
	}
	tpl := clamp(4*secs/3600/lvl, r.XP.PlaytimeMin, r.XP.PlaytimeMax)
	if lvl < r.XP.PlaytimeCurve {
		tpl = max(tpl, r.XP.PlaytimeCurve-lvl)
	}
	return tpl
}

// ScriptedOps replays queued results and delegates to Fallback when a queue
// is empty. A nil Fallback yields Miss, 1 damage, Hit and 0 experience.
// Calls records one line per invocation.
type ScriptedOps struct {
	mu       sync.Mutex
	Hits     []HitResult
	Damage   []int
	Defense  []Outcome
	XP       []int
	Fallback Ops
	Calls    []string
}

var _ Ops = (*ScriptedOps)(nil)

func (s *ScriptedOps) record(format string, args ...any) {
	s.Calls = append(s.Calls, fmt.Sprintf(format, args...))
}

// ResolveHit implements Ops.
func (s *ScriptedOps) ResolveHit(env *Env, a *Attack) HitResult {
	s.mu.Lock()
	s.record("hit %s>%s", a.Attacker.Name, a.Victim.Name)
	if len(s.Hits) > 0 {
		r := s.Hits[0]
		s.Hits = s.Hits[1:]
		s.mu.Unlock()
		if a.Kind.IsWeaponHit() {
			a.Defended = true
		}
		return r
	}
	s.mu.Unlock()
	if s.Fallback != nil {
		return s.Fallback.ResolveHit(env, a)
	}
	return HitResult{Outcome: Miss}
}

// CalculateDamage implements Ops.
func (s *ScriptedOps) CalculateDamage(env *Env, a *Attack) int {
	s.mu.Lock()
	s.record("damage %s>%s", a.Attacker.Name, a.Victim.Name)
	if len(s.Damage) > 0 {
		d := s.Damage[0]
		s.Damage = s.Damage[1:]
		s.mu.Unlock()
		return d
	}
	s.mu.Unlock()
	if s.Fallback != nil {
		return s.Fallback.CalculateDamage(env, a)
	}
	return 1
}

// CheckDefense implements Ops.
func (s *ScriptedOps) CheckDefense(env *Env, a *Attack) Outcome {
	s.mu.Lock()
	s.record("defense %s>%s", a.Attacker.Name, a.Victim.Name)
	if len(s.Defense) > 0 {
		o := s.Defense[0]
		s.Defense = s.Defense[1:]
		s.mu.Unlock()
		return o
	}
	s.mu.Unlock()
	if s.Fallback != nil {
		return s.Fallback.CheckDefense(env, a)
	}
	return Hit
}

// XPCompute implements Ops.
func (s *ScriptedOps) XPCompute(env *Env, gch, victim *Combatant, totalLevels int) int {
	s.mu.Lock()
	s.record("xp %s<%s", gch.Name, victim.Name)
	if len(s.XP) > 0 {
		x := s.XP[0]
		s.XP = s.XP[1:]
		s.mu.Unlock()
		return x
	}
	s.mu.Unlock()
	if s.Fallback != nil {
		return s.Fallback.XPCompute(env, gch, victim, totalLevels)
	}
	return 0
}
