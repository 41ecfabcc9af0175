// Package ruleset holds the versioned, immutable tables that tune combat:
// to-hit endpoints per class and NPC role, damage caps, corpse timers, and
// the experience/alignment tables. Rules are loaded once at startup and
// injected read-only into the combat engine.
package ruleset

// CurrentVersion is the ruleset schema version this build understands.
const CurrentVersion = "1"

// Thac0 holds the two to-hit endpoints interpolated across levels.
// Lower is better.
type Thac0 struct {
	At0   int `yaml:"at_0" toml:"at_0"`
	AtTop int `yaml:"at_top" toml:"at_top"`
}

// Span is an inclusive [Min, Max] random window.
type Span struct {
	Min int `yaml:"min" toml:"min"`
	Max int `yaml:"max" toml:"max"`
}

// Band matches an alignment value strictly above Above and strictly below
// Below; a nil bound is open.
type Band struct {
	Above *int `yaml:"above,omitempty" toml:"above,omitempty"`
	Below *int `yaml:"below,omitempty" toml:"below,omitempty"`
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v int) bool {
	if b.Above != nil && v <= *b.Above {
		return false
	}
	if b.Below != nil && v >= *b.Below {
		return false
	}
	return true
}

// Multiplier scales experience by Num/Den when the victim's alignment falls
// inside the band.
type Multiplier struct {
	Band `yaml:",inline"`
	Num  int `yaml:"num" toml:"num"`
	Den  int `yaml:"den" toml:"den"`
}

// AlignmentRow is one killer-alignment band of the experience matrix.
// The first victim multiplier whose band matches wins; no match means 1/1.
type AlignmentRow struct {
	Name   string       `yaml:"name" toml:"name"`
	Killer Band         `yaml:"killer" toml:"killer"`
	Victim []Multiplier `yaml:"victim" toml:"victim"`
}

// DamageRules bounds single hits.
type DamageRules struct {
	// Ceiling is the cheat-detection clamp for a single weapon hit.
	Ceiling int `yaml:"ceiling" toml:"ceiling"`
	// SoftCaps halve damage above each threshold in order.
	SoftCaps []int `yaml:"soft_caps" toml:"soft_caps"`
	// ArmorDivisor scales armor values onto the d20 scale.
	ArmorDivisor int `yaml:"armor_divisor" toml:"armor_divisor"`
	// DefaultArmor is the armor value restored on player death.
	DefaultArmor int `yaml:"default_armor" toml:"default_armor"`
}

// CorpseRules holds decay windows, in ticks.
type CorpseRules struct {
	NPCDecay    Span `yaml:"npc_decay" toml:"npc_decay"`
	PlayerDecay Span `yaml:"player_decay" toml:"player_decay"`
	PotionDecay Span `yaml:"potion_decay" toml:"potion_decay"`
	ScrollDecay Span `yaml:"scroll_decay" toml:"scroll_decay"`
	RotDeath    Span `yaml:"rot_death" toml:"rot_death"`
	SeveredPart Span `yaml:"severed_part" toml:"severed_part"`
}

// XPRules parameterize experience and alignment computation.
type XPRules struct {
	// BaseTable[i] is the base experience for a level difference of BaseTableMin+i.
	BaseTable    []int `yaml:"base_table" toml:"base_table"`
	BaseTableMin int   `yaml:"base_table_min" toml:"base_table_min"`
	// Above the table, base = AboveBase + AboveSlope*(diff - top).
	AboveBase  int `yaml:"above_base" toml:"above_base"`
	AboveSlope int `yaml:"above_slope" toml:"above_slope"`

	AlignmentGap int            `yaml:"alignment_gap" toml:"alignment_gap"`
	Matrix       []AlignmentRow `yaml:"matrix" toml:"matrix"`

	LowLevel      int `yaml:"low_level" toml:"low_level"`
	LowNumerator  int `yaml:"low_numerator" toml:"low_numerator"`
	LowOffset     int `yaml:"low_offset" toml:"low_offset"`
	HighLevel     int `yaml:"high_level" toml:"high_level"`
	HighNumerator int `yaml:"high_numerator" toml:"high_numerator"`
	HighOffset    int `yaml:"high_offset" toml:"high_offset"`

	PlaytimeMin   int `yaml:"playtime_min" toml:"playtime_min"`
	PlaytimeMax   int `yaml:"playtime_max" toml:"playtime_max"`
	PlaytimeCurve int `yaml:"playtime_curve" toml:"playtime_curve"`

	// GroupWindow excludes members this many levels above or below the leader.
	GroupWindow int `yaml:"group_window" toml:"group_window"`
	ExpPerLevel int `yaml:"exp_per_level" toml:"exp_per_level"`
	DeathBonus  int `yaml:"death_bonus" toml:"death_bonus"`
	FleeLoss    int `yaml:"flee_loss" toml:"flee_loss"`
}

// Regen is the per-tick regeneration percentage of max pools by position name.
type Regen map[string]int

// Rules is the complete, versioned combat ruleset.
type Rules struct {
	Version       string `yaml:"version" toml:"version"`
	MaxLevel      int    `yaml:"max_level" toml:"max_level"`
	ImmortalLevel int    `yaml:"immortal_level" toml:"immortal_level"`
	// InterpolationSpan is the level at which Thac0.AtTop applies.
	InterpolationSpan int `yaml:"interpolation_span" toml:"interpolation_span"`
	// PKLevelGap forbids player attacks on players more than this many levels lower.
	PKLevelGap int `yaml:"pk_level_gap" toml:"pk_level_gap"`
	// PulseViolence is the number of pulses per violence round.
	PulseViolence int `yaml:"pulse_violence" toml:"pulse_violence"`

	Classes  map[string]Thac0 `yaml:"classes" toml:"classes"`
	NPCRoles map[string]Thac0 `yaml:"npc_roles" toml:"npc_roles"`

	Damage DamageRules `yaml:"damage" toml:"damage"`
	Corpse CorpseRules `yaml:"corpse" toml:"corpse"`
	XP     XPRules     `yaml:"xp" toml:"xp"`
	Regen  Regen       `yaml:"regen" toml:"regen"`
}

func intp(v int) *int { return &v }

// Default returns the built-in version 1 ruleset.
//
// Postcondition: the returned value passes Validate.
func Default() *Rules {
	return &Rules{
		Version:           CurrentVersion,
		MaxLevel:          60,
		ImmortalLevel:     52,
		InterpolationSpan: 32,
		PKLevelGap:        8,
		PulseViolence:     12,
		Classes: map[string]Thac0{
			"mage":    {At0: 20, AtTop: 6},
			"cleric":  {At0: 20, AtTop: 2},
			"thief":   {At0: 20, AtTop: -4},
			"warrior": {At0: 20, AtTop: -10},
		},
		NPCRoles: map[string]Thac0{
			"default": {At0: 20, AtTop: -4},
			"warrior": {At0: 20, AtTop: -10},
			"thief":   {At0: 20, AtTop: -4},
			"cleric":  {At0: 20, AtTop: 2},
			"mage":    {At0: 20, AtTop: 6},
		},
		Damage: DamageRules{
			Ceiling:      1200,
			SoftCaps:     []int{35, 80},
			ArmorDivisor: 10,
			DefaultArmor: 100,
		},
		Corpse: CorpseRules{
			NPCDecay:    Span{3, 6},
			PlayerDecay: Span{25, 40},
			PotionDecay: Span{500, 1000},
			ScrollDecay: Span{1000, 2500},
			RotDeath:    Span{5, 10},
			SeveredPart: Span{4, 7},
		},
		XP: XPRules{
			BaseTable:    []int{1, 2, 5, 9, 11, 22, 33, 50, 66, 83, 99, 121, 143, 165},
			BaseTableMin: -9,
			AboveBase:    160,
			AboveSlope:   20,
			AlignmentGap: 500,
			Matrix: []AlignmentRow{
				{Name: "good", Killer: Band{Above: intp(500)}, Victim: []Multiplier{
					{Band{Below: intp(-750)}, 4, 3},
					{Band{Below: intp(-500)}, 5, 4},
					{Band{Above: intp(750)}, 1, 4},
					{Band{Above: intp(500)}, 1, 2},
					{Band{Above: intp(250)}, 3, 4},
				}},
				{Name: "evil", Killer: Band{Below: intp(-500)}, Victim: []Multiplier{
					{Band{Above: intp(750)}, 5, 4},
					{Band{Above: intp(500)}, 11, 10},
					{Band{Below: intp(-750)}, 1, 2},
					{Band{Below: intp(-500)}, 3, 4},
					{Band{Below: intp(-250)}, 9, 10},
				}},
				{Name: "leaning good", Killer: Band{Above: intp(200)}, Victim: []Multiplier{
					{Band{Below: intp(-500)}, 6, 5},
					{Band{Above: intp(750)}, 1, 2},
					{Band{Above: intp(0)}, 3, 4},
				}},
				{Name: "leaning evil", Killer: Band{Below: intp(-200)}, Victim: []Multiplier{
					{Band{Above: intp(500)}, 6, 5},
					{Band{Below: intp(-750)}, 1, 2},
					{Band{Below: intp(0)}, 3, 4},
				}},
				{Name: "neutral", Killer: Band{}, Victim: []Multiplier{
					{Band{Above: intp(500)}, 4, 3},
					{Band{Below: intp(-500)}, 4, 3},
					{Band{Above: intp(-200), Below: intp(200)}, 1, 2},
				}},
			},
			LowLevel:      6,
			LowNumerator:  10,
			LowOffset:     4,
			HighLevel:     35,
			HighNumerator: 15,
			HighOffset:    25,
			PlaytimeMin:   2,
			PlaytimeMax:   12,
			PlaytimeCurve: 15,
			GroupWindow:   5,
			ExpPerLevel:   1000,
			DeathBonus:    50,
			FleeLoss:      10,
		},
		Regen: Regen{
			"stunned":  2,
			"sleeping": 15,
			"resting":  10,
			"sitting":  8,
			"standing": 5,
		},
	}
}

// ClassThac0 returns the endpoints for a player class, falling back to the
// warrior-less "thief" curve for unknown classes.
func (r *Rules) ClassThac0(class string) Thac0 {
	if t, ok := r.Classes[class]; ok {
		return t
	}
	return Thac0{At0: 20, AtTop: -4}
}

// RoleThac0 returns the endpoints for an NPC role, falling back to "default".
func (r *Rules) RoleThac0(role string) Thac0 {
	if t, ok := r.NPCRoles[role]; ok {
		return t
	}
	return r.NPCRoles["default"]
}

// BaseXP returns the base experience for a level difference (victim - killer).
func (r *Rules) BaseXP(diff int) int {
	idx := diff - r.XP.BaseTableMin
	top := r.XP.BaseTableMin + len(r.XP.BaseTable) - 1
	switch {
	case idx < 0:
		return 0
	case diff > top:
		return r.XP.AboveBase + r.XP.AboveSlope*(diff-top)
	default:
		return r.XP.BaseTable[idx]
	}
}

// AlignmentMultiplier returns Num/Den for a killer and victim alignment pair.
func (r *Rules) AlignmentMultiplier(killer, victim int) (num, den int) {
	for _, row := range r.XP.Matrix {
		if !row.Killer.Contains(killer) {
			continue
		}
		for _, m := range row.Victim {
			if m.Contains(victim) {
				return m.Num, m.Den
			}
		}
		return 1, 1
	}
	return 1, 1
}
