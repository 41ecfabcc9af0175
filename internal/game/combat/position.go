package combat

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Position is a combatant's consciousness and readiness, ordered worst to best.
type Position int

const (
	PosDead Position = iota
	PosMortal
	PosIncap
	PosStunned
	PosSleeping
	PosResting
	PosSitting
	PosFighting
	PosStanding
)

var positionNames = []string{
	"dead", "mortal", "incapacitated", "stunned", "sleeping",
	"resting", "sitting", "fighting", "standing",
}

func (p Position) String() string {
	if p < PosDead || p > PosStanding {
		return fmt.Sprintf("position(%d)", int(p))
	}
	return positionNames[p]
}

// IsAwake reports whether the combatant can perceive and react.
func (p Position) IsAwake() bool { return p > PosSleeping }

// ParsePosition resolves a position by name.
func ParsePosition(name string) (Position, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range positionNames {
		if s == n {
			return Position(i), nil
		}
	}
	return PosStanding, fmt.Errorf("unknown position %q", name)
}

// UnmarshalYAML accepts a position name.
func (p *Position) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePosition(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML emits the position name.
func (p Position) MarshalYAML() (interface{}, error) { return p.String(), nil }

// MarshalText emits the position name.
func (p Position) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText accepts a position name.
func (p *Position) UnmarshalText(b []byte) error {
	parsed, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Health bands for players below zero.
const (
	deadAt   = -11
	mortalAt = -6
	incapAt  = -3
)

// UpdatePosition recomputes c.Position from c.Health. It must run after
// every health change.
//
// Postcondition: a living player at Health > 0 is never Dead; Health <= -11
// is always Dead; an NPC below 1 is Dead.
func UpdatePosition(c *Combatant) {
	if c.Health > 0 {
		if c.Position <= PosStunned {
			c.Position = PosStanding
		}
		return
	}
	if c.IsNPC() {
		c.Position = PosDead
		return
	}
	switch {
	case c.Health <= deadAt:
		c.Position = PosDead
	case c.Health <= mortalAt:
		c.Position = PosMortal
	case c.Health <= incapAt:
		c.Position = PosIncap
	default:
		c.Position = PosStunned
	}
}
