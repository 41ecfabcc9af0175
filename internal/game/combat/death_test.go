package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

func kick(a, v *combat.Combatant) combat.Attack {
	return combat.Attack{Attacker: a, Victim: v, Kind: combat.AttackKick, DamType: combat.DamBash}
}

func TestRawKill_NPCLeavesCorpseAndCounts(t *testing.T) {
	f := newFixture(t)
	ana, rat := hero("Ana", 10), mob("rat", 1)
	rat.Health = 5
	rat.Wealth = inventory.Wealth{Gold: 5}
	f.add(t, ana, rat)

	var corpse *inventory.Item
	var killer *combat.Combatant
	f.engine.OnDeath(func(_, k *combat.Combatant, c *inventory.Item) {
		killer, corpse = k, c
	})

	res := f.engine.ApplyDamage(kick(ana, rat), 50, false)
	require.False(t, res.Survived)
	require.NotNil(t, corpse)
	assert.Same(t, ana, killer)

	_, present := f.engine.Get("rat")
	assert.False(t, present)
	assert.Equal(t, 1, f.engine.Kills().ByTemplate["tpl-rat"])
	assert.Equal(t, 1, f.engine.Kills().ByLevel[1])

	assert.Equal(t, inventory.KindCorpseNPC, corpse.Kind)
	assert.Equal(t, "the corpse of rat", corpse.Name)
	assert.Equal(t, 3, corpse.Timer, "an empty script picks the shortest decay")
	require.Len(t, corpse.Contents, 1)
	assert.Equal(t, inventory.Wealth{Gold: 5}, corpse.Contents[0].Money)
	assert.True(t, rat.Wealth.IsZero())
	assert.Contains(t, f.engine.Floor().ItemsInRoom("arena"), corpse)

	assert.True(t, contains(f.msgs.room("arena"), "Rat hits the ground ... DEAD."))
	assert.Equal(t, []string{"You hear something's death cry."}, f.msgs.room("hall"))
	assert.Empty(t, ana.Fighting)
}

func TestRawKill_PlayerIsResetAtRecall(t *testing.T) {
	f := newFixture(t)
	orc, bo := mob("orc", 20), hero("Bo", 10)
	bo.Health = 5
	bo.Experience = 10600
	bo.Affects.Add(bo, affect.Affect{Type: "sanctuary", Level: 10, Duration: 5, Bit: affect.Sanctuary})
	f.add(t, orc, bo)

	var corpse *inventory.Item
	f.engine.OnDeath(func(_, _ *combat.Combatant, c *inventory.Item) { corpse = c })

	res := f.engine.ApplyDamage(kick(orc, bo), 100, false)
	require.False(t, res.Survived)

	got, present := f.engine.Get(bo.ID)
	require.True(t, present, "players stay in the simulation")
	assert.Same(t, bo, got)
	assert.Equal(t, "temple", bo.Room)
	assert.Equal(t, combat.PosResting, bo.Position)
	assert.Equal(t, 1, bo.Health)
	assert.Zero(t, bo.Affects.Len())
	assert.False(t, bo.IsAffected(affect.Sanctuary))
	assert.Empty(t, orc.Fighting)
	assert.Equal(t, 10250, bo.Experience, "two thirds of the progress is lost, plus the death bonus")

	require.NotNil(t, corpse)
	assert.Equal(t, inventory.KindCorpsePC, corpse.Kind)
	assert.Equal(t, bo.ID, corpse.Owner)
	assert.Equal(t, 25, corpse.Timer)
	assert.Contains(t, f.engine.Floor().ItemsInRoom("arena"), corpse)
	assert.True(t, contains(f.msgs.char("Bo"), "You have been KILLED!!"))
}

func TestRawKill_CorpseItemRules(t *testing.T) {
	// death cry, corpse decay, potion decay
	f := newFixture(t, 0, 4, 700)
	ana, lich := hero("Ana", 30), mob("lich", 30)
	lich.Health = 5

	potion := &inventory.Item{ID: "potion", Name: "a blue potion", Kind: inventory.KindPotion}
	junk := &inventory.Item{ID: "junk", Name: "a phylactery", Kind: inventory.KindTrash, Extra: inventory.ExtraInventory}
	keep := &inventory.Item{ID: "keep", Name: "a bone ring", Kind: inventory.KindArmor}
	orb := &inventory.Item{ID: "orb", Name: "a glowing orb", Kind: inventory.KindContainer,
		CanWear: inventory.SlotFloat, Extra: inventory.ExtraRotDeath}
	gem := &inventory.Item{ID: "gem", Name: "a black gem", Kind: inventory.KindTrash}
	orb.Put(gem)
	lich.Carried = []*inventory.Item{potion, junk, keep}
	lich.Equip(inventory.SlotFloat, orb)
	f.add(t, ana, lich)

	var corpse *inventory.Item
	f.engine.OnDeath(func(_, _ *combat.Combatant, c *inventory.Item) { corpse = c })
	f.engine.ApplyDamage(kick(ana, lich), 50, false)
	require.NotNil(t, corpse)

	assert.Equal(t, 4, corpse.Timer)
	assert.Equal(t, []*inventory.Item{potion, keep}, corpse.Contents)
	assert.Equal(t, 700, potion.Timer)

	floor := f.engine.Floor().ItemsInRoom("arena")
	assert.Contains(t, floor, gem, "an evaporating float scatters its contents")
	assert.NotContains(t, floor, orb)
	assert.NotContains(t, floor, junk)
	assert.True(t, contains(f.msgs.room("arena"), "evaporates, scattering its contents."))
	assert.Zero(t, lich.Equipment.Len())
	assert.Empty(t, lich.Carried)
}

func TestRawKill_DeathCryLeavesBodyPart(t *testing.T) {
	// bits(4)=3 is the severed head
	f := newFixture(t, 3)
	ana, rat := hero("Ana", 10), mob("rat", 1)
	rat.Health = 1
	f.add(t, ana, rat)

	f.engine.ApplyDamage(kick(ana, rat), 10, false)
	var names []string
	for _, it := range f.engine.Floor().ItemsInRoom("arena") {
		names = append(names, it.Name)
	}
	assert.Contains(t, names, "the severed head of rat")
	assert.True(t, contains(f.msgs.room("arena"), "Rat's severed head plops on the ground."))
}

func TestCanLoot(t *testing.T) {
	f := newFixture(t)
	ana, bo := hero("Ana", 10), hero("Bo", 10)
	f.add(t, ana, bo)
	corpse := inventory.NewContainer(inventory.KindCorpsePC, "the corpse of Bo", "", 10)
	corpse.Owner = bo.ID

	assert.False(t, f.engine.CanLoot(ana, corpse))
	assert.True(t, f.engine.CanLoot(bo, corpse))

	bo.Plr |= combat.PlrCanLoot
	assert.True(t, f.engine.CanLoot(ana, corpse), "the owner consented")
	bo.Plr &^= combat.PlrCanLoot

	ana.Leader = bo.ID
	assert.True(t, f.engine.CanLoot(ana, corpse), "group members may loot")
	ana.Leader = ""

	corpse.Owner = "long-gone"
	assert.True(t, f.engine.CanLoot(ana, corpse))
	corpse.Owner = ""
	assert.True(t, f.engine.CanLoot(ana, corpse))
}

func TestDescribeContents_FoldsDuplicates(t *testing.T) {
	c := inventory.NewContainer(inventory.KindCorpseNPC, "the corpse of orc", "", 5)
	c.Put(&inventory.Item{ID: "1", PrototypeID: "dagger", Name: "a rusty dagger"})
	c.Put(&inventory.Item{ID: "2", PrototypeID: "shield", Name: "a shield"})
	c.Put(&inventory.Item{ID: "3", PrototypeID: "dagger", Name: "a rusty dagger"})

	assert.Equal(t, []string{"( 2) a rusty dagger", "     a shield"}, combat.DescribeContents(c))
	assert.Empty(t, combat.DescribeContents(inventory.NewContainer(inventory.KindCorpseNPC, "x", "", 1)))
}
