// Package dice provides the randomness service every probabilistic combat
// decision is expressed through, plus the dice-expression notation used by
// weapon and NPC damage definitions.
package dice

import "fmt"

// Source is the raw randomness provider behind a Roller.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RNG is the four-primitive randomness contract consumed by the combat core.
// All hit rolls, percentage checks, and damage dice are phrased in terms of
// these calls so a scripted implementation can drive any scenario.
type RNG interface {
	// Range returns a uniform integer in [low, high]. Returns low when high <= low.
	Range(low, high int) int
	// Percent returns a uniform integer in [0, 100).
	Percent() int
	// Dice returns the sum of count uniform draws in [1, sides].
	// Returns 0 when sides == 0 and count when sides == 1.
	Dice(count, sides int) int
	// Bits returns a uniform integer in [0, 2^n).
	Bits(n int) int
}

// RollResult holds the audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "2d8+3 -> [4 5] +3 = 12".
func (r RollResult) String() string {
	expr := r.Expression
	if expr == "" {
		expr = "?"
	}
	return fmt.Sprintf("%s -> %v %+d = %d", expr, r.Dice, r.Modifier, r.Total())
}
