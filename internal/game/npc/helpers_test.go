package npc_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/game/dice"
	"github.com/cory-johannsen/mudcore/internal/game/inventory"
	"github.com/cory-johannsen/mudcore/internal/game/npc"
)

// arena records every combatant the manager spawns.
type arena struct {
	mu    sync.Mutex
	added []*combat.Combatant
}

func (a *arena) Add(c *combat.Combatant) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.added = append(a.added, c)
	return nil
}

func (a *arena) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.added)
}

func items(t *testing.T) *inventory.Registry {
	t.Helper()
	reg := inventory.NewRegistry()
	require.NoError(t, reg.RegisterItem(&inventory.ItemDef{
		ID: "club", Name: "a knotted club", Kind: inventory.KindWeapon, Wear: inventory.SlotWield,
		Weapon: &inventory.WeaponDef{Class: inventory.WeaponMace, DamageDice: "1d6", Attack: "pound"},
	}))
	require.NoError(t, reg.RegisterItem(&inventory.ItemDef{ID: "tooth", Name: "a rat tooth", Kind: inventory.KindTrash}))
	return reg
}

func ratTemplate() *npc.Template {
	return &npc.Template{
		ID: "rat", Name: "a sewer rat", Level: 2,
		HitDice: "2d8+10", DamageDice: "1d4", Attack: "bite",
		RespawnDelay: "30s",
	}
}

func newManager(t *testing.T, a *arena, values ...int) *npc.Manager {
	t.Helper()
	m, err := npc.NewManager([]*npc.Template{ratTemplate()}, a, dice.NewScript(values...), combat.DefaultAttackTable(), items(t), nil)
	require.NoError(t, err)
	return m
}
