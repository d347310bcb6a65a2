package dice

import (
	"fmt"
	"sync"
)

// Sequence replays a fixed list of values, cycling when exhausted. It exists so
// tests and replays can pin every roll of a battle.
//
// Invariant: values is non-empty.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence returns a Sequence over values.
//
// Precondition: len(values) >= 1. Panics otherwise.
func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		panic("dice: NewSequence requires at least one value")
	}
	cp := make([]int, len(values))
	copy(cp, values)
	return &Sequence{values: cp}
}

func (s *Sequence) pop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// IntRange returns the next value of the sequence.
//
// Precondition: the next value lies in [lo, hi]; a value outside the range
// means the test double was set up wrong, so it panics.
func (s *Sequence) IntRange(lo, hi int) int {
	v := s.pop()
	if v < lo || v > hi {
		panic(fmt.Sprintf("dice: sequence value %d outside [%d, %d]", v, lo, hi))
	}
	return v
}

// Intn returns the next value of the sequence taken modulo n.
//
// Precondition: n > 0.
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v := s.pop() % n
	if v < 0 {
		v += n
	}
	return v
}

// Drawn reports how many values have been consumed since the last wrap.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
