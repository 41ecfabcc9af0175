package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed "NdS+M" dice expression.
//
// Invariant: Count >= 1 and Sides >= 1 after a successful Parse.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Parse parses "d20", "2d8", "3d6+4" or "1d4-1".
//
// Precondition: expr must be non-empty.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	countPart, rest, ok := strings.Cut(s, "d")
	if !ok {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", expr)
	}

	count := 1
	if countPart != "" {
		n, err := strconv.Atoi(countPart)
		if err != nil || n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q", expr)
		}
		count = n
	}

	sidesPart, modPart := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesPart, modPart = rest[:i], rest[i:]
	}
	sides, err := strconv.Atoi(sidesPart)
	if err != nil || sides < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q", expr)
	}

	mod := 0
	if modPart != "" {
		mod, err = strconv.Atoi(modPart)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}
	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: mod}, nil
}

// MustParse parses expr and panics on error. Intended for package-level tables.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// String returns the canonical form of the expression.
func (e Expression) String() string {
	if e.Modifier != 0 {
		return fmt.Sprintf("%dd%d%+d", e.Count, e.Sides, e.Modifier)
	}
	return fmt.Sprintf("%dd%d", e.Count, e.Sides)
}
