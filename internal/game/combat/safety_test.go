package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

func TestIsSafe_ProtectedNPCs(t *testing.T) {
	cases := []struct {
		name string
		act  combat.ActFlags
		want string
	}{
		{"shopkeeper", combat.ActShopkeeper, "The shopkeeper wouldn't like that."},
		{"trainer", combat.ActTrainer, "I don't think the guildmaster would approve."},
		{"healer", combat.ActHealer, "I don't think the guildmaster would approve."},
		{"pet", combat.ActPet, "But npc looks so cute and cuddly..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ana, npc := hero("Ana", 10), mob("npc", 10)
			npc.Act = tc.act
			f.add(t, ana, npc)

			assert.True(t, f.engine.IsSafe(ana, npc))
			assert.Equal(t, []string{tc.want}, f.msgs.char("Ana"))
		})
	}
}

func TestIsSafe_SomeoneElsesCharmedCreature(t *testing.T) {
	f := newFixture(t)
	ana, bo, toad := hero("Ana", 10), hero("Bo", 10), mob("toad", 2)
	f.add(t, ana, bo, toad)
	f.engine.Charm(bo, toad)

	assert.True(t, f.engine.IsSafe(ana, toad))
	assert.Equal(t, []string{"You don't own that monster."}, f.msgs.char("Ana"))
	assert.False(t, f.engine.IsSafe(bo, toad))
}

func TestIsSafe_PlayerKillingRules(t *testing.T) {
	cases := []struct {
		name               string
		chClan, victClan   string
		chLevel, victLevel int
		victFlags          combat.PlayerFlags
		wantSafe           bool
		wantMessage        string
	}{
		{"attacker outside clans", "", "red", 10, 10, 0, true, "Join a clan if you want to kill players."},
		{"victim outside clans", "red", "", 10, 10, 0, true, "They aren't in a clan, leave them alone."},
		{"level gap", "red", "blue", 30, 10, 0, true, "Pick on someone your own size."},
		{"fair fight", "red", "blue", 18, 10, 0, false, ""},
		{"killers are fair game", "red", "", 30, 10, combat.PlrKiller, false, ""},
		{"thieves are fair game", "red", "", 30, 10, combat.PlrThief, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ana, bo := hero("Ana", tc.chLevel), hero("Bo", tc.victLevel)
			ana.Clan, bo.Clan = tc.chClan, tc.victClan
			bo.Plr = tc.victFlags
			f.add(t, ana, bo)

			assert.Equal(t, tc.wantSafe, f.engine.IsSafe(ana, bo))
			if tc.wantMessage == "" {
				assert.Empty(t, f.msgs.char("Ana"))
			} else {
				assert.Equal(t, []string{tc.wantMessage}, f.msgs.char("Ana"))
			}
		})
	}
}

func TestIsSafe_Exceptions(t *testing.T) {
	f := newFixture(t)
	ana, bo, god := hero("Ana", 10), hero("Bo", 10), hero("Zeus", 55)
	monk := mob("monk", 10)
	monk.Room = "sanctum"
	f.add(t, ana, bo, god, monk)

	assert.True(t, f.engine.IsSafe(ana, monk), "different rooms")
	assert.False(t, f.engine.IsSafe(god, bo), "immortals may attack anyone")

	bo.Fighting = ana.ID
	assert.False(t, f.engine.IsSafe(ana, bo), "fighting back is always allowed")
}

func TestIsSafeSpell_AreaRules(t *testing.T) {
	f := newFixture(t)
	ana, bo := hero("Ana", 10), hero("Bo", 10)
	orc, rat := mob("orc", 10), mob("rat", 5)
	f.add(t, ana, bo, orc, rat)

	assert.True(t, f.engine.IsSafeSpell(ana, ana, true), "area spells skip the caster")
	assert.False(t, f.engine.IsSafeSpell(ana, ana, false))
	assert.False(t, f.engine.IsSafeSpell(ana, rat, true))

	rat.Fighting = bo.ID
	assert.True(t, f.engine.IsSafeSpell(ana, rat, true), "another group's fight")
	ana.Leader = bo.ID
	assert.False(t, f.engine.IsSafeSpell(ana, rat, true))

	orc.Fighting = ana.ID
	assert.True(t, f.engine.IsSafeSpell(orc, rat, true), "an NPC's area spell spares bystanders")
	assert.False(t, f.engine.IsSafeSpell(orc, bo, true), "but not the group it fights")
	assert.Empty(t, f.msgs.char("Ana"), "spell checks are silent")
}

func TestCheckKillSteal(t *testing.T) {
	f := newFixture(t)
	ana, bo, rat := hero("Ana", 10), hero("Bo", 10), mob("rat", 5)
	f.add(t, ana, bo, rat)
	rat.Fighting = bo.ID

	assert.True(t, f.engine.CheckKillSteal(ana, rat))
	assert.Equal(t, []string{"Kill stealing is not permitted."}, f.msgs.char("Ana"))
	assert.False(t, f.engine.CheckKillSteal(bo, rat))

	ana.Leader = bo.ID
	assert.False(t, f.engine.CheckKillSteal(ana, rat), "helping the group is fine")
}

func TestInitiateAttack_FlagsClanKiller(t *testing.T) {
	f := newFixture(t)
	ana, bo := hero("Ana", 10), hero("Bo", 10)
	ana.Clan, bo.Clan = "red", "blue"
	f.add(t, ana, bo)

	assert.True(t, f.engine.InitiateAttack(ana, bo))
	assert.True(t, ana.Plr.Has(combat.PlrKiller))
	assert.True(t, contains(f.msgs.char("Ana"), "*** You are now a KILLER!! ***"))
	assert.False(t, bo.Plr.Has(combat.PlrKiller))
}
