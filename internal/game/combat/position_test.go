package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

func expectedBand(health int) combat.Position {
	switch {
	case health <= -11:
		return combat.PosDead
	case health <= -6:
		return combat.PosMortal
	case health <= -3:
		return combat.PosIncap
	default:
		return combat.PosStunned
	}
}

func TestUpdatePosition_PlayerBands(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := combat.NewPlayer("p", "warrior", 10)
		c.Health = rapid.IntRange(-40, 200).Draw(rt, "health")
		c.Position = combat.Position(rapid.IntRange(int(combat.PosDead), int(combat.PosStanding)).Draw(rt, "from"))
		before := c.Position
		combat.UpdatePosition(c)

		if c.Health > 0 {
			assert.NotEqual(rt, combat.PosDead, c.Position)
			if before > combat.PosStunned {
				assert.Equal(rt, before, c.Position, "a healthy position is left alone")
			} else {
				assert.Equal(rt, combat.PosStanding, c.Position)
			}
			return
		}
		assert.Equal(rt, expectedBand(c.Health), c.Position)
	})
}

func TestUpdatePosition_NPCDiesBelowOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := mob("m", 5)
		c.Health = rapid.IntRange(-40, 0).Draw(rt, "health")
		combat.UpdatePosition(c)
		assert.Equal(rt, combat.PosDead, c.Position)
	})
}

func TestUpdatePosition_ExactlyMinusSixIsMortal(t *testing.T) {
	c := combat.NewPlayer("p", "warrior", 10)
	c.Health = -6
	combat.UpdatePosition(c)
	assert.Equal(t, combat.PosMortal, c.Position)
}

func TestPosition_StringAndParse(t *testing.T) {
	for p := combat.PosDead; p <= combat.PosStanding; p++ {
		got, err := combat.ParsePosition(p.String())
		assert.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := combat.ParsePosition("levitating")
	assert.Error(t, err)
	assert.True(t, combat.PosResting.IsAwake())
	assert.False(t, combat.PosSleeping.IsAwake())
}
