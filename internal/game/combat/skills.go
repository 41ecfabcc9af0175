package combat

import (
	"fmt"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

// Skill names used by the combat core. Weapon proficiencies are keyed by
// the weapon class name ("sword", "dagger", ...).
const (
	SkillParry          = "parry"
	SkillDodge          = "dodge"
	SkillShieldBlock    = "shield block"
	SkillSecondAttack   = "second attack"
	SkillThirdAttack    = "third attack"
	SkillEnhancedDamage = "enhanced damage"
	SkillHandToHand     = "hand to hand"
	SkillBackstab       = "backstab"
	SkillBash           = "bash"
	SkillKick           = "kick"
	SkillTrip           = "trip"
	SkillDisarm         = "disarm"
	SkillBerserk        = "berserk"
	SkillDirtKicking    = "dirt kicking"
	SkillSneak          = "sneak"
	SkillHide           = "hide"
	SkillRecall         = "recall"
)

var weaponSkills = map[string]bool{
	string(inventory.WeaponSword):   true,
	string(inventory.WeaponMace):    true,
	string(inventory.WeaponDagger):  true,
	string(inventory.WeaponAxe):     true,
	string(inventory.WeaponSpear):   true,
	string(inventory.WeaponFlail):   true,
	string(inventory.WeaponWhip):    true,
	string(inventory.WeaponPolearm): true,
}

// npcSkill derives an NPC's proficiency from its level and flags.
func npcSkill(c *Combatant, name string) int {
	l := c.Level
	switch {
	case name == SkillSneak || name == SkillHide:
		return 2*l + 20
	case name == SkillDodge && c.Off.Has(OffDodge), name == SkillParry && c.Off.Has(OffParry):
		return 2 * l
	case name == SkillShieldBlock:
		return 10 + 2*l
	case name == SkillSecondAttack && (c.Act.Has(ActWarrior) || c.Act.Has(ActThief)):
		return 10 + 3*l
	case name == SkillThirdAttack && c.Act.Has(ActWarrior):
		return 4*l - 40
	case name == SkillHandToHand:
		return 40 + 2*l
	case name == SkillTrip && c.Off.Has(OffTrip), name == SkillBash && c.Off.Has(OffBash):
		return 10 + 3*l
	case name == SkillDirtKicking && c.Off.Has(OffDirtKick):
		return 10 + 3*l
	case name == SkillDisarm && (c.Off.Has(OffDisarm) || c.Act.Has(ActWarrior) || c.Act.Has(ActThief)):
		return 20 + 3*l
	case name == SkillBerserk && c.Off.Has(OffBerserk):
		return 3 * l
	case name == SkillKick:
		return 10 + 3*l
	case name == SkillBackstab && c.Act.Has(ActThief):
		return 20 + 2*l
	case name == SkillRecall:
		return 40 + l
	case weaponSkills[name]:
		return 40 + 5*l/2
	}
	return 0
}

// Skill returns c's effective proficiency in name, in [0, 100]. Players use
// their learned percentage; NPCs use an explicit override or the derived
// value. Dazed combatants and drunk players are penalised.
func (e *Env) Skill(c *Combatant, name string) int {
	var skill int
	if v, ok := c.Skills[name]; ok {
		skill = v
	} else if c.IsNPC() {
		skill = npcSkill(c, name)
	}
	if c.Daze > 0 {
		skill = 2 * skill / 3
	}
	if c.IsPlayer() && c.Drunk > 10 {
		skill = 9 * skill / 10
	}
	return clamp(skill, 0, 100)
}

// WeaponSkillName returns the proficiency exercised by swinging w, or hand
// to hand when w is nil.
func WeaponSkillName(w *inventory.Item) string {
	if !w.IsWeapon() {
		return SkillHandToHand
	}
	return string(w.Weapon.Class)
}

// WeaponSkill returns c's proficiency with w.
func (e *Env) WeaponSkill(c *Combatant, w *inventory.Item) int {
	name := WeaponSkillName(w)
	var skill int
	switch {
	case name == string(inventory.WeaponExotic):
		skill = 3 * c.Level
	case c.IsNPC() && name == SkillHandToHand:
		skill = 40 + 2*c.Level
	case c.IsNPC():
		skill = 40 + 5*c.Level/2
	default:
		skill = c.Skills[name]
	}
	return clamp(skill, 0, 100)
}

// Improve gives a player a chance to raise a skill through use. Higher
// multipliers make improvement rarer.
func (e *Env) Improve(c *Combatant, name string, success bool, multiplier int) {
	if c.IsNPC() || multiplier <= 0 {
		return
	}
	learned, ok := c.Skills[name]
	if !ok || learned <= 0 || learned >= 100 {
		return
	}
	chance := 30/(multiplier*4) + c.Level
	if e.RNG.Range(1, 1000) > chance {
		return
	}
	if success {
		if e.RNG.Percent() < clamp(100-learned, 5, 95) {
			c.Skills[name] = learned + 1
			e.Messenger.ToChar(c, fmt.Sprintf("You have become better at %s!", name))
		}
		return
	}
	if e.RNG.Percent() < clamp(learned/2, 5, 30) {
		c.Skills[name] = min(100, learned+e.RNG.Range(1, 3))
		e.Messenger.ToChar(c, fmt.Sprintf("You learn from your mistakes, and your %s skill improves.", name))
	}
}

// SavesSpell reports whether victim resists an effect of the given level
// and damage type.
func (e *Env) SavesSpell(level int, victim *Combatant, dt DamageType) bool {
	save := 50 + (victim.Level-level)*5 - victim.Saves*2
	if victim.IsAffected(affect.Berserk) {
		save += victim.Level / 2
	}
	switch CheckImmune(victim, dt) {
	case SusImmune:
		return true
	case SusResistant:
		save += 2
	case SusVulnerable:
		save -= 2
	}
	save = clamp(save, 5, 95)
	return e.RNG.Percent() < save
}

// CanSee reports whether viewer perceives target.
func (e *Env) CanSee(viewer, target *Combatant) bool {
	return e.Perceiver.CanSee(viewer, target)
}

// Perceiver decides visibility between two combatants.
type Perceiver interface {
	CanSee(viewer, target *Combatant) bool
}

// SightRules is the default Perceiver: blindness, darkness, invisibility
// and hiding, each with its detection counterpart.
type SightRules struct {
	Rooms Rooms
}

// CanSee implements Perceiver.
func (s SightRules) CanSee(viewer, target *Combatant) bool {
	if viewer == target {
		return true
	}
	if viewer.IsAffected(affect.Blind) {
		return false
	}
	if s.Rooms != nil {
		if room, ok := s.Rooms.GetRoom(viewer.Room); ok && room.Flags.Has(world.RoomDark) &&
			!viewer.IsAffected(affect.Infrared) && !viewer.IsAffected(affect.DarkVision) {
			return false
		}
	}
	if target.IsAffected(affect.Invisible) && !viewer.IsAffected(affect.DetectInvis) {
		return false
	}
	if target.IsAffected(affect.Hide) && !viewer.IsAffected(affect.DetectHidden) && target.Fighting == "" {
		return false
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
