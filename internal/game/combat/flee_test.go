package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/ruleset"
	"github.com/cory-johannsen/mudcore/internal/game/world"
)

func fighting(a, b *combat.Combatant) {
	a.Fighting, a.Position = b.ID, combat.PosFighting
	b.Fighting, b.Position = a.ID, combat.PosFighting
}

func TestFlee_EscapesThroughOpenExit(t *testing.T) {
	// range(0,5)=1 is east
	f := newFixture(t, 1)
	ana, rat := hero("Ana", 10), mob("rat", 5)
	f.add(t, ana, rat)
	fighting(ana, rat)

	require.True(t, f.engine.Flee(ana))
	assert.Equal(t, "hall", ana.Room)
	assert.Empty(t, ana.Fighting)
	assert.Empty(t, rat.Fighting)
	assert.Equal(t, combat.PosStanding, ana.Position)
	assert.Equal(t, 9990, ana.Experience)
	assert.Equal(t, []string{"You flee from combat!", "You lost 10 exp."}, f.msgs.char("Ana"))
	assert.True(t, contains(f.msgs.room("arena"), "Ana has fled!"))
	assert.Equal(t, []string{"range(0,5)", "range(0,0)"}, f.rng.Calls)
}

func TestFlee_ThiefSneaksAway(t *testing.T) {
	f := newFixture(t, 1, 0, 0)
	ana, rat := hero("Ana", 20), mob("rat", 5)
	ana.Class = "thief"
	f.add(t, ana, rat)
	fighting(ana, rat)

	require.True(t, f.engine.Flee(ana))
	assert.Equal(t, 20000, ana.Experience)
	assert.True(t, contains(f.msgs.char("Ana"), "You snuck away safely."))
}

func TestFlee_NoExitPanics(t *testing.T) {
	f := newFixture(t)
	ana, rat := hero("Ana", 10), mob("rat", 5)
	ana.Room, rat.Room = "cell", "cell"
	f.add(t, ana, rat)
	fighting(ana, rat)

	assert.False(t, f.engine.Flee(ana))
	assert.Equal(t, "cell", ana.Room)
	assert.Equal(t, rat.ID, ana.Fighting)
	assert.Equal(t, []string{"PANIC! You couldn't escape!"}, f.msgs.char("Ana"))
	assert.Len(t, f.rng.Calls, 6, "every attempt draws a direction")
}

func TestFlee_DazeBlocksEscape(t *testing.T) {
	// every direction roll lands on east, every daze roll fails
	f := newFixture(t, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	ana, rat := hero("Ana", 10), mob("rat", 5)
	ana.Daze = 3
	f.add(t, ana, rat)
	fighting(ana, rat)

	assert.False(t, f.engine.Flee(ana))
	assert.Equal(t, "arena", ana.Room)
}

func TestFlee_NotFighting(t *testing.T) {
	f := newFixture(t)
	ana := hero("Ana", 10)
	f.add(t, ana)

	assert.False(t, f.engine.Flee(ana))
	assert.Equal(t, []string{"You aren't fighting anyone."}, f.msgs.char("Ana"))
}

func TestRecall_MovesToRecallRoomWithPets(t *testing.T) {
	f := newFixture(t)
	ana, dog := hero("Ana", 10), mob("dog", 3)
	dog.Act = combat.ActPet
	f.add(t, ana, dog)
	f.engine.Charm(ana, dog)

	require.True(t, f.engine.Recall(ana))
	assert.Equal(t, "temple", ana.Room)
	assert.Equal(t, "temple", dog.Room)
	assert.Equal(t, 50, ana.Stamina)
	assert.True(t, contains(f.msgs.room("arena"), "Ana disappears."))
	assert.True(t, contains(f.msgs.room("temple"), "Ana appears in the room."))
	assert.True(t, contains(f.msgs.room("temple"), "Dog appears in the room."))
}

func TestRecall_FromCombat(t *testing.T) {
	f := newFixture(t, 0)
	ana, rat := hero("Ana", 10), mob("rat", 5)
	ana.Skills[combat.SkillRecall] = 100
	f.add(t, ana, rat)
	fighting(ana, rat)

	require.True(t, f.engine.Recall(ana))
	assert.Equal(t, "temple", ana.Room)
	assert.Equal(t, 10000-25, ana.Experience)
	assert.Empty(t, rat.Fighting)
	assert.True(t, contains(f.msgs.char("Ana"), "You recall from combat!  You lose 25 exps."))
}

func TestRecall_FailedSkillCheck(t *testing.T) {
	f := newFixture(t, 90)
	ana, rat := hero("Ana", 10), mob("rat", 5)
	ana.Skills[combat.SkillRecall] = 100
	f.add(t, ana, rat)
	fighting(ana, rat)

	assert.False(t, f.engine.Recall(ana))
	assert.Equal(t, "arena", ana.Room)
	assert.Equal(t, 4, ana.Wait)
	assert.Equal(t, 10000, ana.Experience)
	assert.True(t, contains(f.msgs.char("Ana"), "You failed!"))
}

func TestRecall_Refusals(t *testing.T) {
	f := newFixture(t)
	ana, orc := hero("Ana", 10), mob("orc", 10)
	f.add(t, ana, orc)

	assert.False(t, f.engine.Recall(orc))
	assert.Equal(t, []string{"Only players can recall."}, f.msgs.char("orc"))

	ana.AddFlags(affect.Curse)
	assert.False(t, f.engine.Recall(ana))
	assert.True(t, contains(f.msgs.char("Ana"), "The gods have forsaken you."))
	ana.RemoveFlags(affect.Curse)

	ana.Room = "temple"
	assert.False(t, f.engine.Recall(ana), "already home")
}

func TestRecall_NoRecallRoom(t *testing.T) {
	r := newRooms()
	r.m["arena"].Flags |= world.RoomNoRecall
	e, err := combat.NewEngine(combat.Config{Rules: ruleset.Default(), RNG: dice.NewScript(), Rooms: r, Messenger: newMessages()})
	require.NoError(t, err)
	ana := hero("Ana", 10)
	require.NoError(t, e.Add(ana))

	assert.False(t, e.Recall(ana))
	assert.Equal(t, "arena", ana.Room)
}
