package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

func TestOwnership_BindAndRelease(t *testing.T) {
	o := combat.NewOwnership()
	o.Bind("ana", "wolf")
	o.Bind("ana", "dog")
	assert.Equal(t, "ana", o.MasterOf("dog"))
	assert.Equal(t, []string{"dog", "wolf"}, o.Owned("ana"))

	o.Bind("bo", "dog")
	assert.Equal(t, "bo", o.MasterOf("dog"))
	assert.Equal(t, []string{"wolf"}, o.Owned("ana"))

	o.Release("wolf")
	assert.Empty(t, o.MasterOf("wolf"))
	assert.Empty(t, o.Owned("ana"))
	o.Release("nobody")
}

func TestOwnership_RemoveAll(t *testing.T) {
	o := combat.NewOwnership()
	o.Bind("ana", "dog")
	o.Bind("ana", "cat")
	o.Bind("bo", "ana")

	o.RemoveAll("ana")
	assert.Empty(t, o.MasterOf("dog"))
	assert.Empty(t, o.MasterOf("cat"))
	assert.Empty(t, o.MasterOf("ana"))
	assert.Empty(t, o.Owned("ana"))
	assert.Empty(t, o.Owned("bo"))
}

func TestCharm_BindsPet(t *testing.T) {
	f := newFixture(t)
	ana, dog := hero("Ana", 10), mob("dog", 3)
	f.add(t, ana, dog)

	f.engine.Charm(ana, dog)
	m, ok := f.engine.MasterOf(dog)
	assert.True(t, ok)
	assert.Same(t, ana, m)
	assert.Equal(t, ana.ID, dog.Leader)
	assert.True(t, dog.IsAffected(affect.Charm))

	_, ok = f.engine.MasterOf(ana)
	assert.False(t, ok)
}

func TestMasterDeath_NukesPets(t *testing.T) {
	f := newFixture(t)
	bo, dog, ogre := hero("Bo", 5), mob("dog", 3), mob("ogre", 30)
	dog.Act = combat.ActPet
	f.add(t, bo, dog, ogre)
	f.engine.Charm(bo, dog)
	bo.Health = 1

	f.engine.ApplyDamage(kick(ogre, bo), 50, false)
	_, present := f.engine.Get(dog.ID)
	assert.False(t, present)
	_, ok := f.engine.MasterOf(dog)
	assert.False(t, ok)
	assert.False(t, dog.IsAffected(affect.Charm))
	assert.Empty(t, dog.Leader)
	assert.True(t, contains(f.msgs.room("arena"), "Dog slowly fades away."))
}
