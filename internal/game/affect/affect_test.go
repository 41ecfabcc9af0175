package affect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
)

// holder records the net effect of affects on a fake combatant.
type holder struct {
	mods  map[affect.Location]int
	flags affect.Flags
}

func newHolder() *holder { return &holder{mods: make(map[affect.Location]int)} }

func (h *holder) Modify(loc affect.Location, mod int) { h.mods[loc] += mod }
func (h *holder) AddFlags(f affect.Flags)             { h.flags |= f }
func (h *holder) RemoveFlags(f affect.Flags)          { h.flags &^= f }

func haste(dur int) affect.Affect {
	return affect.Affect{Type: "haste", Level: 20, Duration: dur, Location: affect.LocDexterity, Modifier: 2, Bit: affect.Haste}
}

func TestList_Add_StacksIndependentInstances(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Add(h, haste(5))
	l.Add(h, haste(3))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 4, h.mods[affect.LocDexterity])
	assert.True(t, h.flags.Has(affect.Haste))
}

func TestList_Join_MergesLevelDurationModifier(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Add(h, affect.Affect{Type: "bless", Level: 10, Duration: 4, Location: affect.LocHitroll, Modifier: 1})
	l.Join(h, affect.Affect{Type: "bless", Level: 20, Duration: 6, Location: affect.LocHitroll, Modifier: 2})

	require.Equal(t, 1, l.Len())
	got, ok := l.Find("bless")
	require.True(t, ok)
	assert.Equal(t, 15, got.Level)
	assert.Equal(t, 10, got.Duration)
	assert.Equal(t, 3, got.Modifier)
	assert.Equal(t, 3, h.mods[affect.LocHitroll], "holder sees the merged modifier exactly once")
}

func TestList_Apply_FollowsPolicy(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Apply(h, affect.PolicyJoin, haste(2))
	l.Apply(h, affect.PolicyJoin, haste(2))
	assert.Equal(t, 1, l.Len())
	l.Apply(h, affect.PolicyAdd, haste(2))
	assert.Equal(t, 2, l.Len())
}

func TestList_Strip_KeepsBitGrantedByOtherType(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Add(h, affect.Affect{Type: "invis", Duration: 5, Bit: affect.Invisible})
	l.Add(h, affect.Affect{Type: "mass invis", Duration: 5, Bit: affect.Invisible})

	assert.Equal(t, 1, l.Strip(h, "invis"))
	assert.True(t, h.flags.Has(affect.Invisible))
	assert.Equal(t, 1, l.Strip(h, "mass invis"))
	assert.False(t, h.flags.Has(affect.Invisible))
	assert.Equal(t, 0, l.Strip(h, "mass invis"))
}

func TestList_Weaken(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Add(h, haste(3))
	perm := haste(affect.Permanent)
	perm.Type = "fly"
	l.Add(h, perm)

	got, ok := l.Weaken("haste", 25, 1)
	require.True(t, ok)
	assert.Zero(t, got.Level)
	assert.Equal(t, 2, got.Duration)

	got, ok = l.Weaken("fly", 1, 10)
	require.True(t, ok)
	assert.Equal(t, 19, got.Level)
	assert.Equal(t, affect.Permanent, got.Duration)

	_, ok = l.Weaken("plague", 1, 1)
	assert.False(t, ok)
}

func TestList_Tick_ExpiresAtZeroAndSkipsPermanent(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Add(h, haste(1))
	l.Add(h, affect.Affect{Type: "infravision", Duration: affect.Permanent, Bit: affect.Infrared})

	// Range(0,4) draws non-zero so no level decay.
	expired := l.Tick(h, dice.NewScript(3))
	require.Len(t, expired, 1)
	assert.Equal(t, "haste", expired[0].Type)
	assert.Equal(t, 1, l.Len())
	assert.False(t, h.flags.Has(affect.Haste))
	assert.True(t, h.flags.Has(affect.Infrared))
	assert.Equal(t, 0, h.mods[affect.LocDexterity])
}

func TestList_Tick_LevelDecayOnZeroDraw(t *testing.T) {
	h := newHolder()
	var l affect.List
	l.Add(h, haste(5))
	l.Tick(h, dice.NewScript(0))
	got, _ := l.Find("haste")
	assert.Equal(t, 19, got.Level)
	assert.Equal(t, 4, got.Duration)
}

func TestList_AddThenClear_RestoresHolder_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHolder()
		var l affect.List
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		for i := 0; i < n; i++ {
			a := affect.Affect{
				Type:     rapid.SampledFrom([]string{"a", "b", "c"}).Draw(rt, "type"),
				Duration: rapid.IntRange(-1, 20).Draw(rt, "dur"),
				Location: affect.Location(rapid.IntRange(0, 12).Draw(rt, "loc")),
				Modifier: rapid.IntRange(-10, 10).Draw(rt, "mod"),
				Bit:      affect.Flags(1) << uint(rapid.IntRange(0, 28).Draw(rt, "bit")),
			}
			if rapid.Bool().Draw(rt, "join") {
				l.Join(h, a)
			} else {
				l.Add(h, a)
			}
		}
		l.Clear(h)
		for loc, v := range h.mods {
			assert.Equal(rt, 0, v, "modifier at %s must net to zero", loc)
		}
		assert.Equal(rt, affect.Flags(0), h.flags)
	})
}

func TestFlags_ParseAndNames(t *testing.T) {
	f, err := affect.ParseFlags([]string{"sanctuary", "Haste"})
	require.NoError(t, err)
	assert.True(t, f.Has(affect.Sanctuary|affect.Haste))
	assert.Equal(t, []string{"haste", "sanctuary"}, f.Names())
	assert.Equal(t, "none", affect.Flags(0).String())

	_, err = affect.ParseFlags([]string{"glowing"})
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "poison.yaml"), []byte(`
id: poison
name: Poison
policy: join
flags: [poison]
location: strength
modifier: -2
wear_off: You feel less sick.
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg, err := affect.LoadDirectory(dir)
	require.NoError(t, err)
	def, ok := reg.Get("poison")
	require.True(t, ok)
	assert.Equal(t, affect.PolicyJoin, def.Policy)
	assert.Equal(t, affect.Poison, def.Flags)
	assert.Equal(t, affect.LocStrength, def.Location)
	assert.Equal(t, affect.PolicyAdd, reg.PolicyFor("unknown"))

	a := def.New(12, 6)
	assert.Equal(t, affect.Affect{Type: "poison", Level: 12, Duration: 6, Location: affect.LocStrength, Modifier: -2, Bit: affect.Poison}, a)
}

func TestLoadDefFromBytes_RejectsUnknownFieldsAndPolicy(t *testing.T) {
	_, err := affect.LoadDefFromBytes([]byte("id: x\nstacks: 3\n"))
	assert.Error(t, err)
	_, err = affect.LoadDefFromBytes([]byte("id: x\npolicy: merge\n"))
	assert.Error(t, err)
	def, err := affect.LoadDefFromBytes([]byte("id: x\n"))
	require.NoError(t, err)
	assert.Equal(t, affect.PolicyAdd, def.Policy)
}
