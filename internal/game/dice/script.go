package dice

import (
	"fmt"
	"sync"
)

// Script is a deterministic RNG that replays a queue of values.
//
// Each primitive call consumes the next queued value and clamps it into the
// primitive's legal range, so Bits(5) fed 19 yields 19 and Percent fed 150
// yields 99. Dice consumes a single value as the total. When the queue is
// exhausted every call returns its minimum legal value and Underflow is
// incremented. Calls records one entry per primitive invocation.
type Script struct {
	mu        sync.Mutex
	values    []int
	Calls     []string
	Underflow int
}

// NewScript returns a Script that will replay values in order.
func NewScript(values ...int) *Script {
	return &Script{values: append([]int(nil), values...)}
}

// Push appends more values to the queue.
func (s *Script) Push(values ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, values...)
}

// Remaining reports how many queued values have not been consumed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func (s *Script) next(call string, low, high int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, call)
	if len(s.values) == 0 {
		s.Underflow++
		return low
	}
	v := s.values[0]
	s.values = s.values[1:]
	if v < low {
		return low
	}
	if high >= low && v > high {
		return high
	}
	return v
}

// Range implements RNG.
func (s *Script) Range(low, high int) int {
	if high < low {
		high = low
	}
	return s.next(fmt.Sprintf("range(%d,%d)", low, high), low, high)
}

// Percent implements RNG.
func (s *Script) Percent() int {
	return s.next("percent", 0, 99)
}

// Dice implements RNG.
func (s *Script) Dice(count, sides int) int {
	switch {
	case count <= 0 || sides <= 0:
		return 0
	case sides == 1:
		return count
	}
	return s.next(fmt.Sprintf("dice(%d,%d)", count, sides), count, count*sides)
}

// Bits implements RNG.
func (s *Script) Bits(n int) int {
	if n <= 0 {
		return 0
	}
	return s.next(fmt.Sprintf("bits(%d)", n), 0, 1<<n-1)
}
