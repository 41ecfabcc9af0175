package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

func TestSoftCap_Monotonic(t *testing.T) {
	caps := []int{35, 80}
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 5000).Draw(rt, "a")
		b := rapid.IntRange(a, 5000).Draw(rt, "b")
		assert.LessOrEqual(rt, combat.SoftCap(caps, a), combat.SoftCap(caps, b))
		assert.LessOrEqual(rt, combat.SoftCap(caps, b), b)
	})
}

func TestSoftCap_HalvesAboveEachCap(t *testing.T) {
	caps := []int{35, 80}
	assert.Equal(t, 35, combat.SoftCap(caps, 35))
	assert.Equal(t, 40, combat.SoftCap(caps, 45))
	assert.Equal(t, 173, combat.SoftCap(caps, 500))
}

func TestApplyDamage_ZeroDamageChangesNothing(t *testing.T) {
	f := newFixture(t)
	a, v := mob("rat", 5), mob("cat", 5)
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 0, true)
	assert.True(t, res.Survived)
	assert.Zero(t, res.Dealt)
	assert.Equal(t, 100, v.Health)
	assert.Equal(t, combat.PosFighting, v.Position, "a zero blow still starts the fight")
	assert.Equal(t, a.ID, v.Fighting)
	assert.Equal(t, v.ID, a.Fighting)
}

func TestApplyDamage_ImmuneVictimTakesNothing(t *testing.T) {
	f := newFixture(t)
	a, v := hero("Ana", 20), mob("salamander", 20)
	v.Imm = combat.IRVFire
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackFlaming, DamType: combat.DamFire}, 500, true)
	assert.True(t, res.Survived)
	assert.True(t, res.Immune)
	assert.Zero(t, res.Dealt)
	assert.Equal(t, 100, v.Health)
	assert.Equal(t, combat.PosFighting, v.Position)
	assert.True(t, contains(f.msgs.char("Ana"), "is unaffected by your flames"))
}

func TestApplyDamage_ImmunityAlwaysZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		a, v := mob("a", 10), mob("v", 10)
		v.Imm = combat.IRVWeapon
		require.NoError(rt, f.engine.Add(a))
		require.NoError(rt, f.engine.Add(v))
		dam := rapid.IntRange(0, 3000).Draw(rt, "dam")

		res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackBash, DamType: combat.DamBash}, dam, false)
		assert.Zero(rt, res.Dealt)
		assert.Equal(rt, 100, v.Health)
	})
}

func TestApplyDamage_DeadVictimIsNoOp(t *testing.T) {
	f := newFixture(t)
	a, v := hero("Ana", 20), mob("rat", 1)
	v.Health = 5
	f.add(t, a, v)

	first := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 50, false)
	require.False(t, first.Survived)
	require.Equal(t, combat.PosDead, v.Position)
	health := v.Health

	second := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 50, false)
	assert.Equal(t, combat.DamageResult{}, second)
	assert.Equal(t, health, v.Health)
}

func TestApplyDamage_DefenseBeforeImmunity(t *testing.T) {
	f := newFixture(t)
	f.ops.Defense = []combat.Outcome{combat.Parried}
	a, v := mob("orc", 10), mob("knight", 10)
	v.Imm = combat.IRVSlash
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackHit, DamType: combat.DamSlash}, 20, true)
	assert.Equal(t, combat.Parried, res.Negated)
	assert.False(t, res.Immune, "a parried blow never reaches the immunity check")
	assert.True(t, res.Survived)
	assert.Contains(t, f.ops.Calls, "defense orc>knight")
	assert.Equal(t, 100, v.Health)
}

func TestApplyDamage_DefendedBlowSkipsDefense(t *testing.T) {
	f := newFixture(t)
	f.ops.Defense = []combat.Outcome{combat.Parried}
	a, v := mob("orc", 10), mob("knight", 10)
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, DamType: combat.DamSlash, Defended: true}, 10, false)
	assert.Equal(t, combat.NoOp, res.Negated)
	assert.Equal(t, 10, res.Dealt)
	assert.Empty(t, f.ops.Calls)
}

func TestApplyDamage_CeilingConfiscatesWeapon(t *testing.T) {
	f := newFixture(t)
	f.ops.Defense = []combat.Outcome{combat.Hit}
	a, v := hero("Cheat", 20), mob("golem", 20)
	v.Health, v.MaxHealth = 5000, 5000
	a.Equip(inventory.SlotWield, sword("blade"))
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, DamType: combat.DamSlash}, 99999, false)
	assert.Nil(t, a.Wielded())
	assert.Empty(t, a.Carried)
	assert.True(t, contains(f.msgs.char("Cheat"), "You really shouldn't cheat."))
	assert.Equal(t, combat.SoftCap([]int{35, 80}, 1200), res.Dealt)
}

func TestApplyDamage_SanctuaryHalves(t *testing.T) {
	f := newFixture(t)
	a, v := mob("orc", 10), mob("priest", 10)
	v.AddFlags(affect.Sanctuary)
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 20, false)
	assert.Equal(t, 10, res.Dealt)
}

func TestApplyDamage_PlayerBandsToMortal(t *testing.T) {
	f := newFixture(t)
	a, v := mob("orc", 10), hero("Bo", 10)
	v.Health = 4
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	assert.True(t, res.Survived)
	assert.Equal(t, -6, v.Health)
	assert.Equal(t, combat.PosMortal, v.Position)
	assert.True(t, contains(f.msgs.char("Bo"), "You are mortally wounded"))
	assert.Empty(t, v.Fighting, "a victim who drops stops fighting")
}

func TestApplyDamage_SafeRoomRefuses(t *testing.T) {
	f := newFixture(t)
	a, v := hero("Ana", 10), mob("monk", 10)
	a.Room, v.Room = "sanctum", "sanctum"
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	assert.True(t, res.Refused)
	assert.Equal(t, 100, v.Health)
	assert.Equal(t, []string{"Not in this room."}, f.msgs.char("Ana"))
}

func TestApplyDamage_WimpyNPCFlees(t *testing.T) {
	// bits(2) for the wimpy roll, then range(0,5) picks east.
	f := newFixture(t, 0, 1)
	a, v := hero("Ana", 10), mob("coward", 10)
	v.Act = combat.ActWimpy
	v.Health = 25
	f.add(t, a, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	require.True(t, res.Survived)
	assert.Equal(t, "hall", v.Room)
	assert.Empty(t, v.Fighting)
	assert.Empty(t, a.Fighting)
	assert.True(t, contains(f.msgs.room("arena"), "Coward has fled!"))
}

func TestApplyDamage_DrunkAttackerHitsSofter(t *testing.T) {
	f := newFixture(t)
	sot, v := hero("Sot", 10), mob("rat", 10)
	sot.Drunk = 20
	f.add(t, sot, v)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: sot, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}, 20, false)
	assert.Equal(t, 18, res.Dealt)
}

func TestApplyDamage_DrunkVictimTakesFullDamage(t *testing.T) {
	f := newFixture(t)
	a, sot := mob("orc", 10), hero("Sot", 10)
	sot.Drunk = 20
	f.add(t, a, sot)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: sot, Kind: combat.AttackKick, DamType: combat.DamBash}, 20, false)
	assert.Equal(t, 20, res.Dealt)
}

func TestApplyDamage_LinkdeadVictimIsRecalled(t *testing.T) {
	// range(0,0) always lands on zero
	f := newFixture(t)
	a, bo := mob("orc", 10), hero("Bo", 10)
	bo.Linkdead = true
	f.add(t, a, bo)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: bo, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	require.True(t, res.Survived)
	assert.Equal(t, "temple", bo.Room)
	assert.Equal(t, 10000-50, bo.Experience)
	assert.Empty(t, bo.Fighting)
	assert.Empty(t, a.Fighting)
	assert.Equal(t, []string{"range(0,0)"}, f.rng.Calls)
}

func TestApplyDamage_LinkdeadRecallRollCanMiss(t *testing.T) {
	f := newFixture(t, 3)
	a, bo := mob("orc", 10), hero("Bo", 10)
	bo.Linkdead = true
	bo.Wait = 6
	f.add(t, a, bo)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: bo, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	require.True(t, res.Survived)
	assert.Equal(t, "arena", bo.Room)
	assert.Equal(t, a.ID, bo.Fighting)
	assert.Equal(t, []string{"range(0,6)"}, f.rng.Calls)
}

func TestApplyDamage_WimpyPlayerFlees(t *testing.T) {
	// range(0,5)=1 is east
	f := newFixture(t, 1)
	a, bo := mob("orc", 10), hero("Bo", 10)
	bo.Wimpy = 50
	bo.Health = 55
	f.add(t, a, bo)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: bo, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	require.True(t, res.Survived)
	assert.Equal(t, 45, bo.Health)
	assert.Equal(t, "hall", bo.Room)
	assert.Empty(t, bo.Fighting)
	assert.Empty(t, a.Fighting)
	assert.Equal(t, 10000-10, bo.Experience)
	assert.True(t, contains(f.msgs.char("Bo"), "You flee from combat!"))
}

func TestApplyDamage_WimpyPlayerWaitsOutDelay(t *testing.T) {
	f := newFixture(t, 1)
	a, bo := mob("orc", 10), hero("Bo", 10)
	bo.Wimpy = 50
	bo.Health = 55
	bo.Wait = 6
	f.add(t, a, bo)

	res := f.engine.ApplyDamage(combat.Attack{Attacker: a, Victim: bo, Kind: combat.AttackKick, DamType: combat.DamBash}, 10, false)
	require.True(t, res.Survived)
	assert.Equal(t, "arena", bo.Room)
	assert.Equal(t, a.ID, bo.Fighting)
	assert.Empty(t, f.rng.Calls)
}
