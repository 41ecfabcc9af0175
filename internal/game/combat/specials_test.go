package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

func TestKick_DamagesOpponent(t *testing.T) {
	// skill roll, then the damage roll
	f := newFixture(t, 0, 7)
	ana, rat := hero("Ana", 20), mob("rat", 20)
	ana.Skills[combat.SkillKick] = 100
	f.add(t, ana, rat)
	fighting(ana, rat)

	require.True(t, f.engine.Kick(ana))
	assert.Equal(t, 93, rat.Health)
	assert.Equal(t, 12, ana.Wait)
}

func TestKick_Refusals(t *testing.T) {
	f := newFixture(t)
	ana := hero("Ana", 20)
	f.add(t, ana)

	assert.False(t, f.engine.Kick(ana))
	ana.Skills[combat.SkillKick] = 50
	assert.False(t, f.engine.Kick(ana))
	assert.Equal(t, []string{
		"You better leave the martial arts to fighters.",
		"You aren't fighting anyone.",
	}, f.msgs.char("Ana"))
}

func TestBash_SendsVictimSprawling(t *testing.T) {
	f := newFixture(t, 0, 5)
	ana, ogre := hero("Ana", 20), mob("ogre", 20)
	ana.Skills[combat.SkillBash] = 100
	f.add(t, ana, ogre)

	require.True(t, f.engine.Bash(ana, ogre))
	assert.Equal(t, 95, ogre.Health)
	assert.Equal(t, 36, ogre.Daze)
	assert.Equal(t, 24, ana.Wait)
	assert.Equal(t, ogre.ID, ana.Fighting)
	assert.True(t, contains(f.msgs.char("ogre"), "Ana sends you sprawling with a powerful bash!"))
}

func TestBash_FailureFloorsTheBasher(t *testing.T) {
	f := newFixture(t, 99)
	ana, ogre := hero("Ana", 20), mob("ogre", 20)
	ana.Skills[combat.SkillBash] = 100
	f.add(t, ana, ogre)

	require.True(t, f.engine.Bash(ana, ogre))
	assert.Equal(t, 100, ogre.Health)
	assert.Equal(t, combat.PosResting, ana.Position)
	assert.Equal(t, 36, ana.Wait)
	assert.True(t, contains(f.msgs.char("Ana"), "You fall flat on your face!"))
}

func TestBerserk_AddsRage(t *testing.T) {
	// success roll, then fuzzy duration
	f := newFixture(t, 0, 1)
	ana := hero("Ana", 20)
	ana.Skills[combat.SkillBerserk] = 100
	f.add(t, ana)

	require.True(t, f.engine.Berserk(ana))
	assert.True(t, ana.IsAffected(affect.Berserk))
	assert.Equal(t, 3, ana.Affects.Len())
	assert.Equal(t, 4, ana.Hitroll)
	assert.Equal(t, 4, ana.Damroll)
	assert.Equal(t, 50, ana.Mana)
	assert.Equal(t, 50, ana.Stamina)

	assert.False(t, f.engine.Berserk(ana))
	assert.Equal(t, "You get a little madder.", f.msgs.char("Ana")[len(f.msgs.char("Ana"))-1])
}

func TestDisarm_KnocksWeaponToFloor(t *testing.T) {
	f := newFixture(t, 0)
	ana, ogre := hero("Ana", 20), mob("ogre", 20)
	ana.Skills[combat.SkillDisarm] = 100
	ana.Skills["sword"] = 100
	ana.Equip(inventory.SlotWield, sword("blade"))
	club := sword("club")
	ogre.Equip(inventory.SlotWield, club)
	ogre.Wait = 5
	f.add(t, ana, ogre)
	fighting(ana, ogre)

	require.True(t, f.engine.Disarm(ana))
	assert.Nil(t, ogre.Wielded())
	assert.NotContains(t, ogre.Carried, club)
	assert.Contains(t, f.engine.Floor().ItemsInRoom("arena"), club)
	assert.True(t, contains(f.msgs.char("Ana"), "You disarm ogre!"))
}

func TestDisarm_NPCPicksWeaponBackUp(t *testing.T) {
	f := newFixture(t, 0)
	ana, ogre := hero("Ana", 20), mob("ogre", 20)
	ana.Skills[combat.SkillDisarm] = 100
	ana.Skills["sword"] = 100
	ana.Equip(inventory.SlotWield, sword("blade"))
	club := sword("club")
	ogre.Equip(inventory.SlotWield, club)
	f.add(t, ana, ogre)
	fighting(ana, ogre)

	require.True(t, f.engine.Disarm(ana))
	assert.Nil(t, ogre.Wielded())
	assert.Contains(t, ogre.Carried, club)
	assert.Empty(t, f.engine.Floor().ItemsInRoom("arena"))
}

func TestDisarm_NoRemoveWeaponStays(t *testing.T) {
	f := newFixture(t, 0)
	ana, ogre := hero("Ana", 20), mob("ogre", 20)
	ana.Skills[combat.SkillDisarm] = 100
	ana.Skills["sword"] = 100
	ana.Equip(inventory.SlotWield, sword("blade"))
	club := sword("club")
	club.Extra = inventory.ExtraNoRemove
	ogre.Equip(inventory.SlotWield, club)
	f.add(t, ana, ogre)
	fighting(ana, ogre)

	require.True(t, f.engine.Disarm(ana))
	assert.Same(t, club, ogre.Wielded())
	assert.True(t, contains(f.msgs.char("Ana"), "weapon won't budge!"))
}

func TestDirt_Blinds(t *testing.T) {
	f := newFixture(t, 0, 3)
	ana, rat := hero("Ana", 20), mob("rat", 20)
	ana.Skills[combat.SkillDirtKicking] = 60
	f.add(t, ana, rat)

	require.True(t, f.engine.Dirt(ana, rat))
	assert.Equal(t, 97, rat.Health)
	assert.True(t, rat.IsAffected(affect.Blind))
	assert.Equal(t, -4, rat.Hitroll)
	assert.True(t, contains(f.msgs.char("rat"), "You can't see a thing!"))

	assert.False(t, f.engine.Dirt(ana, rat), "already blind")
}

func TestTrip_FlyingVictim(t *testing.T) {
	f := newFixture(t)
	ana, bat := hero("Ana", 20), mob("bat", 5)
	ana.Skills[combat.SkillTrip] = 100
	bat.AddFlags(affect.Flying)
	f.add(t, ana, bat)

	assert.False(t, f.engine.Trip(ana, bat))
	assert.True(t, contains(f.msgs.char("Ana"), "feet aren't on the ground."))
}

func TestTrip_Dazes(t *testing.T) {
	f := newFixture(t, 0, 4)
	ana, rat := hero("Ana", 20), mob("rat", 20)
	ana.Skills[combat.SkillTrip] = 100
	f.add(t, ana, rat)

	require.True(t, f.engine.Trip(ana, rat))
	assert.Equal(t, 96, rat.Health)
	assert.Equal(t, 24, rat.Daze)
	assert.Equal(t, 24, ana.Wait)
}
