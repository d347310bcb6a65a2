// Package dice provides the randomness sources used by the duel resolver and
// the audit record for each roll.
package dice

import "fmt"

// RollResult holds the audit trail for a single bounded roll.
//
// Postcondition: Min <= Value <= Max for every result produced by this package.
type RollResult struct {
	Min   int
	Max   int
	Value int
}

// Expression returns the roll range in dice notation when the range starts at 1
// ("1d6"), or as an inclusive interval otherwise ("[3..9]").
func (r RollResult) Expression() string {
	if r.Min == 1 && r.Max >= 2 {
		return fmt.Sprintf("1d%d", r.Max)
	}
	return fmt.Sprintf("[%d..%d]", r.Min, r.Max)
}

// String returns a human-readable audit string, e.g. "1d6 → 4".
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %d", r.Expression(), r.Value)
}

// Source is the randomness provider for rolls.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Between returns a value from src in the inclusive range [lo, hi].
//
// Precondition: lo <= hi. Panics otherwise.
func Between(src Source, lo, hi int) int {
	if lo > hi {
		panic(fmt.Sprintf("dice: Between called with lo %d > hi %d", lo, hi))
	}
	return lo + src.Intn(hi-lo+1)
}
