package dice

import "go.uber.org/zap"

// Roller implements RNG over a Source and logs expression rolls.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil || logger == nil {
		panic("dice.NewLoggedRoller: src and logger must be non-nil")
	}
	return &Roller{src: src, logger: logger}
}

// Range returns a uniform integer in [low, high].
func (r *Roller) Range(low, high int) int {
	span := high - low + 1
	if span <= 1 {
		return low
	}
	return low + r.src.Intn(span)
}

// Percent returns a uniform integer in [0, 100).
func (r *Roller) Percent() int {
	return r.src.Intn(100)
}

// Dice sums count draws of a sides-faced die.
func (r *Roller) Dice(count, sides int) int {
	switch {
	case sides <= 0 || count <= 0:
		return 0
	case sides == 1:
		return count
	}
	total := 0
	for i := 0; i < count; i++ {
		total += r.src.Intn(sides) + 1
	}
	return total
}

// Bits returns a uniform integer in [0, 2^n).
func (r *Roller) Bits(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.Intn(1 << n)
}

// Roll evaluates expr and logs the result at debug level.
//
// Postcondition: result.Total() == sum(result.Dice) + expr.Modifier.
func (r *Roller) Roll(expr Expression) RollResult {
	res := Roll(expr, r)
	r.logger.Debug("dice roll",
		zap.String("expression", res.Expression),
		zap.Ints("dice", res.Dice),
		zap.Int("modifier", res.Modifier),
		zap.Int("total", res.Total()),
	)
	return res
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Roll evaluates an Expression with any RNG, one Range draw per die.
func Roll(expr Expression, rng RNG) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = rng.Range(1, expr.Sides)
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}
