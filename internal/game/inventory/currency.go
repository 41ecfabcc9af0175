package inventory

import (
	"fmt"

	"github.com/google/uuid"
)

// Wealth is a purse of gold and silver coins.
type Wealth struct {
	Gold   int `yaml:"gold" json:"gold"`
	Silver int `yaml:"silver" json:"silver"`
}

// IsZero reports whether the purse is empty.
func (w Wealth) IsZero() bool { return w.Gold <= 0 && w.Silver <= 0 }

// Add returns the sum of two purses.
func (w Wealth) Add(o Wealth) Wealth {
	return Wealth{Gold: w.Gold + o.Gold, Silver: w.Silver + o.Silver}
}

// TakeAll empties the purse and returns its former contents.
func (w *Wealth) TakeAll() Wealth {
	out := *w
	*w = Wealth{}
	return out
}

// TakeHalf removes half of each coin type (rounded down) and returns it.
//
// Postcondition: the returned purse plus the remainder equals the original.
func (w *Wealth) TakeHalf() Wealth {
	out := Wealth{Gold: w.Gold / 2, Silver: w.Silver / 2}
	w.Gold -= out.Gold
	w.Silver -= out.Silver
	return out
}

// Describe returns the short description of a pile holding w.
//
// Postcondition: singular forms are used for a single coin.
func (w Wealth) Describe() string {
	switch {
	case w.Gold <= 0 && w.Silver <= 0:
		return "a silver coin"
	case w.Gold <= 0 && w.Silver == 1:
		return "a silver coin"
	case w.Gold == 1 && w.Silver <= 0:
		return "a gold coin"
	case w.Gold <= 0:
		return fmt.Sprintf("%d silver coins", w.Silver)
	case w.Silver <= 0:
		return fmt.Sprintf("%d gold coins", w.Gold)
	default:
		return fmt.Sprintf("%d coins", w.Gold+w.Silver)
	}
}

// NewMoney creates a money pile item holding w. An empty purse still
// yields a single silver coin.
func NewMoney(w Wealth) *Item {
	if w.IsZero() {
		w = Wealth{Silver: 1}
	}
	return &Item{
		ID:          uuid.NewString(),
		PrototypeID: string(KindMoney),
		Name:        w.Describe(),
		Kind:        KindMoney,
		Money:       w,
		Weight:      w.Gold/5 + w.Silver/20,
	}
}
